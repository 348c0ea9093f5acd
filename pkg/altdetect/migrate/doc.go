// Package migrate performs one-time imports into an altdetect.Store.
//
// Two sources are supported:
//
//   - the legacy ipdata.yml file, keyed ip.<address_with_underscores>.<stable id>
//     with values "<epoch millis>,<name>"
//   - another Store of a different backend (SQLite to MySQL or back)
//
// In both cases identities are written first, each with its most recent
// name, and sightings second with their original timestamps. Imports are not
// transactional: a failed run can leave the destination partly populated.
// Re-running is safe because identity upserts and sighting writes are
// idempotent.
package migrate
