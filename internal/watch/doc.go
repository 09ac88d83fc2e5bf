// Package watch implements the live thermostat view behind `anna watch`.
//
// The Model is a Bubble Tea program that fetches a status snapshot, renders
// it with the ui status card and schedules the next fetch after the poll
// interval. Pressing r fetches immediately; + and - nudge the target
// temperature by SetpointStep when an Adjuster is configured.
//
//	m := watch.New("Living room", client, 30*time.Second,
//	    watch.WithAdjuster(adjuster))
//	err := watch.Run(ctx, m)
package watch
