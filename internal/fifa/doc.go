// Package fifa is a client for the FIFA live football API.
//
// FetchMatches lists the recent matches of a competition and season and,
// for every match that is live or finished, fetches its timeline
// concurrently. Upstream status, period and event codes are mapped to the
// types of the match package; codes the bot does not know map to
// match.EventUnknown and keep the raw code for logging.
//
// ResolveAlias looks up the display name of a player in the client's
// language.
package fifa
