// Package match holds the persisted match state and the diff engine that decides
// which upstream events are new since the last run.
//
// A Snapshot is read once per run, merged with freshly fetched Payloads by Diff,
// and written back wholesale. Diff is pure: it performs no I/O, never logs and
// never mutates its inputs, so the same inputs always produce the same notable
// events and the same updated snapshot.
package match
