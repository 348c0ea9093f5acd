// Package altdetect defines the identity/sighting correlation store used to
// flag potential alternate ("alt") accounts on a multiplayer server.
//
// # Data Model
//
// An Identity is one player, keyed by an immutable stable ID and carrying the
// last known display name. A Sighting records that an identity connected from
// a network address; there is at most one sighting per (address, identity)
// pair and a repeat connection refreshes its timestamp. Deleting an identity
// deletes all of its sightings.
//
// # Correlation
//
// Two identities are correlated when they share at least one address with a
// sighting inside the retention window:
//
//	FindCorrelatedNames(U1) ──> addresses of U1
//	                              ↓
//	        other identities seen at those addresses (seen_at >= now - window)
//	                              ↓
//	        distinct display names, ordered case-insensitively
//
// # Backends
//
// The Store contract is implemented once in package storage and specialised
// per relational engine through a dialect.Dialect statement set. SQLite and
// MySQL are supported.
//
// # Threading
//
// Store methods block on database I/O. Callers running a primary loop should
// invoke them from background workers (see package dispatch) and hand the
// results back to the loop.
package altdetect
