// Package config loads winloop's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/winloop/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	backend = "auto"          # auto | x11 | terminal | headless
//	control_flow = "wait"     # wait | poll
//	poll_interval = "16ms"    # redraw cadence under poll
//	heartbeat = "0s"          # >0 starts the heartbeat worker
//	log_level = "info"
//	log_file = "~/.local/state/winloop/winloop.log"
//	theme = "Nightfox"        # terminal backend palette
//
//	[window]
//	title = ""                # empty lets the platform pick
//	width = 0                 # 0 lets the platform pick
//	height = 0
//	resizable = true
//	decorations = true
//	visible = true
//
// The control-flow policy defaults to wait: an idle window costs nothing and
// only redraws when the platform asks. Poll must be chosen explicitly.
//
// # Error Handling
//
// Load returns errors for unreadable files, TOML parse errors ("parse config")
// and values no component can honour (unknown backend or policy, negative
// durations or sizes). Missing files are NOT an error.
package config
