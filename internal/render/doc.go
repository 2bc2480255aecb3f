// Package render formats notable match events as localized notifications.
//
// Rendering is pure once player aliases are known. ResolveAliases performs
// the lookups up front, concurrently, and records failures instead of
// returning them; Render then falls back to the raw player id.
package render
