// Package paintwatch provides an embeddable phone-aware painting display.
//
// A camera is sampled at a fixed cadence and each frame is sent to a remote
// object detector. When a phone is seen the painting animates into its
// "removed" state; once the phone has been missing for PhoneTimeout it
// animates back. While removed, a short peek animation plays every
// PeekInterval.
//
// # Basic Usage
//
//	cfg := paintwatch.Config{
//	    APIURL:    "http://localhost:8000",
//	    AssetsDir: "/srv/paintwatch/assets",
//	    Scene:     "Lavandera",
//	    Prefix:    "Lavandera",
//	}
//
//	p, err := paintwatch.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop()
//
// The built-in display server renders the painting at Listen; point a
// kiosk browser at it. Use [WithDisplay] to render elsewhere.
//
// # Event Handling
//
// Implement [EventHandler] (or embed [BaseEventHandler]) and pass it via
// [WithEventHandler] to observe lifecycle, visual state, presence, status
// and detection errors. Display events arrive on the session loop and must
// return quickly.
//
// # Lifecycle States
//
// An instance is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. A failed detector check at startup
// does not crash the instance: the error stays on the display until Stop.
//
// # Plugins
//
// Plugins receive a [Controller] on Initialize. See plugins/devicewatcher
// for camera hot-plug support.
package paintwatch
