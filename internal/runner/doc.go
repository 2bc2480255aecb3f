// Package runner coordinates one poll: load the snapshot, fetch the
// competition, diff, resolve player aliases, deliver notifications in order
// and save the new snapshot.
//
// A run fails as a whole when the snapshot cannot be loaded or saved or the
// upstream fetch fails; nothing is saved in that case. Delivery failures are
// logged and counted, and the run continues, so a notification may be sent
// again by a later run but state is written once.
package runner
