// Package app is the composition root for winloop.
//
// Run loads the TOML config, opens the JSON log file, and picks a backend.
// With backend = "auto" it tries an X11 window first and falls back to the
// terminal when no display is reachable. It then drives the loop controller
// through its lifecycle:
//
//	config.Load()
//	  └─> start()            first backend whose Initialize succeeds
//	      └─> CreateWindow() window from the [window] table
//	          ├─> StartHeartbeat()  optional UserEvents via the loop proxy
//	          └─> Controller.Run()  blocks until termination
//
// Initialization and window creation failures are returned to the caller
// and end the process with a non-zero status. Every other way the loop ends,
// including cancellation from SIGINT or SIGTERM, is a normal exit.
package app
