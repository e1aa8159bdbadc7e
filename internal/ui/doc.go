// Package ui implements the interactive processing view using bubbletea's Elm architecture.
//
// The view tracks one directory run: a progress bar advances as files
// finish, the current file is shown beneath it, and a summary with
// per-status counts replaces the bar when the run completes.
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. Progress updates flow through a channel from the processing
// engine, providing non-blocking status reporting during the run.
package ui
