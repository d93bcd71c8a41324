// Package viewer opens attachment files with the desktop's default application.
package viewer

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Opener resolves attachment names against a root directory and opens them
type Opener struct {
	root string
}

// NewOpener creates an opener for attachments stored under root.
// An empty root resolves relative names against the working directory.
func NewOpener(root string) *Opener {
	return &Opener{root: root}
}

// Open opens the attachment in the default application
func (o *Opener) Open(name string) error {
	path, err := o.Resolve(name)
	if err != nil {
		return err
	}
	return openCommand(path).Run()
}

// Resolve returns the file path of an attachment name
func (o *Opener) Resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("attachment has no file name")
	}
	if filepath.IsAbs(name) || o.root == "" {
		return filepath.Clean(name), nil
	}

	path := filepath.Join(o.root, name)
	rel, err := filepath.Rel(o.root, path)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("attachment is outside the attachment directory: %s", name)
	}
	return path, nil
}

func openCommand(path string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path)
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path)
	default:
		return exec.Command("xdg-open", path)
	}
}
