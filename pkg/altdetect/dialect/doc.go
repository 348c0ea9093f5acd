// Package dialect holds the backend-specific SQL used by the generic storage
// engine.
//
// A Dialect supplies the schema DDL, the date arithmetic for "now" and
// "now minus N seconds", unix timestamp conversions and the sighting
// existence check. Shared statement templates reference these through
// placeholders:
//
//	{prefix}     table-name prefix, so several stores can share one database
//	{now}        current timestamp
//	{cutoff}     now minus a bound number of seconds (one parameter)
//	{from_unix}  timestamp from bound unix seconds (one parameter)
//	{to_unix}    sighting timestamp as unix seconds
//
// Templates are rendered once per engine with Render.
package dialect
