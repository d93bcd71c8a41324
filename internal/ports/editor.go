package ports

import "os/exec"

// TextEditor opens files in an external editor so that annotation text
// (tag descriptions, comments) can be edited in place
type TextEditor interface {
	// OpenFile opens the specified file in the user's preferred editor
	// It uses $EDITOR environment variable, falling back to common editors
	OpenFile(path string) error

	// Command returns an exec.Cmd for opening a file in the editor
	// This is useful for integrating with bubbletea's ExecProcess
	Command(path string) (*exec.Cmd, error)
}

// AttachmentViewer shows the file behind an attachment annotation
type AttachmentViewer interface {
	Open(name string) error
}
