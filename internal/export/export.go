// Package export moves text and binary artifacts out of the dashboard:
// log transcripts and pairing images go to the clipboard or to files in
// the export directory.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrNoClipboard is returned when the platform has no clipboard utility.
var ErrNoClipboard = errors.New("clipboard unavailable")

// Clipboard copies text for the operator.
type Clipboard interface {
	WriteText(text string) error
}

// Saver persists a blob under filename and reports where it landed.
type Saver interface {
	SaveBlob(data []byte, filename string) (string, error)
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteText copies text to the OS clipboard.
func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrNoClipboard
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// DirSaver writes blobs into Dir, creating it as needed.
type DirSaver struct {
	Dir string
}

// SaveBlob writes data to Dir/filename. The filename is reduced to its
// base name so callers cannot escape Dir.
func (s DirSaver) SaveBlob(data []byte, filename string) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("filename is empty")
	}
	dir := strings.TrimSpace(s.Dir)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
