package jobs

// ProgressUpdate represents a progress event during a processing run.
//
// Used to send real-time updates to the CLI or HTTP layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	File    string // Source file the update concerns, when applicable
}

// Operation phase enumeration
type Phase int

const (
	ScanDirectory Phase = iota
	ProcessFile
	FileDone
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case ScanDirectory:
		return "scan_directory"
	case ProcessFile:
		return "process_file"
	case FileDone:
		return "file_done"
	case WriteManifest:
		return "write_manifest"
	default:
		return "unknown"
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full, skip this update
	}
}
