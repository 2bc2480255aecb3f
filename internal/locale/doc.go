// Package locale holds the phrase tables used to render notifications.
//
// Every table defines the same fifteen keyed slots. Tables ship embedded as
// YAML (en-US, fr-FR, de-DE, es-ES) and may be extended or overridden from a
// directory at startup. An unknown or incomplete table is rejected with
// ErrMissingLocale before any match is processed.
package locale
