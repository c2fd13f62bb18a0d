// Package clock drives the server-side game clock.
//
// A Clock ticks every running session once per interval through the game
// service and hands each changed frame to a publisher, normally the
// WebSocket hub. Sessions created in manual mode are skipped by the service
// and only advance through explicit steps.
//
//	c := clock.New(gameService, hub, settings.TickInterval(), log.Logger)
//	go c.Run(ctx)
//
// CleanupRoutine runs alongside and expires idle sessions.
package clock
