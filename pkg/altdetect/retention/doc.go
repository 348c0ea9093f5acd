// Package retention expires old sightings.
//
// A Pruner calls Store.PurgeExpired with the configured window, removing
// every sighting older than the window and every identity left without
// sightings. A Scheduler runs the pruner on a cron expression:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    RetentionDays: 60,
//	    PruneSchedule: "0 3 * * *", // daily at 3 AM
//	})
//	if err := pruner.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pruner.Stop()
//
// The window can be changed at runtime with SetRetentionDays, for example
// after a configuration reload.
package retention
