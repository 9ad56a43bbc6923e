package logtail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/five82/relay/internal/botapi"
)

var _ botapi.LogSource = (*FileSource)(nil)

// ErrWatcherClosed reports that the file watcher shut down underneath a
// live feed.
var ErrWatcherClosed = errors.New("log watcher closed")

// FileSource serves bot logs from <Dir>/<botID>.jsonl, one JSON entry per
// line. It is the offline counterpart of the HTTP client.
type FileSource struct {
	Dir    string
	Logger *slog.Logger
}

// NewFileSource returns a FileSource rooted at dir.
func NewFileSource(dir string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{Dir: dir, Logger: logger}
}

// Path returns the JSONL file backing botID.
func (s *FileSource) Path(botID string) (string, error) {
	id := strings.TrimSpace(botID)
	if id == "" {
		return "", fmt.Errorf("bot id required")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid bot id %q", botID)
	}
	return filepath.Join(s.Dir, id+".jsonl"), nil
}

// FetchHistory returns the last limit well-formed entries in the file. A
// missing file yields no entries.
func (s *FileSource) FetchHistory(ctx context.Context, botID string, limit int) ([]botapi.LogEntry, error) {
	path, err := s.Path(botID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines, err := Read(path, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]botapi.LogEntry, 0, len(lines))
	for _, line := range lines {
		if entry, ok := s.parseLine([]byte(line), botID); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// OpenLiveFeed follows the file from its current end. Lines appended after
// the call are delivered to onEntry in order. Truncation or recreation of
// the file restarts reading from the beginning.
func (s *FileSource) OpenLiveFeed(ctx context.Context, botID string, onEntry func(botapi.LogEntry)) (botapi.Subscription, error) {
	path, err := s.Path(botID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("open live feed: %w", err)
	}
	// Watch the directory so creation and rotation of the file are seen.
	if err := watcher.Add(s.Dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("open live feed: %w", err)
	}

	var offset int64
	if info, err := os.Stat(path); err == nil {
		offset = info.Size()
	}

	handle := botapi.NewHandle(func() { _ = watcher.Close() })
	f := &follower{
		source:  s,
		path:    path,
		botID:   botID,
		offset:  offset,
		onEntry: onEntry,
	}
	go f.run(ctx, watcher, handle)
	return handle, nil
}

type follower struct {
	source  *FileSource
	path    string
	botID   string
	offset  int64
	onEntry func(botapi.LogEntry)
}

func (f *follower) run(ctx context.Context, watcher *fsnotify.Watcher, handle *botapi.Handle) {
	for {
		select {
		case <-ctx.Done():
			handle.Release()
			return
		case <-handle.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				handle.Fail(ErrWatcherClosed)
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				f.offset = 0
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				if err := f.drain(handle); err != nil {
					handle.Fail(err)
					return
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				handle.Fail(ErrWatcherClosed)
				return
			}
			handle.Fail(fmt.Errorf("watch %s: %w", f.path, err))
			return
		}
	}
}

// drain delivers every complete line past the current offset. A trailing
// partial line is left for the next write event.
func (f *follower) drain(handle *botapi.Handle) error {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.offset = 0
			return nil
		}
		return fmt.Errorf("read live feed: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("read live feed: %w", err)
	}
	if info.Size() < f.offset {
		f.offset = 0
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return fmt.Errorf("read live feed: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read live feed: %w", err)
	}
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil
	}
	f.offset += int64(end + 1)

	for _, line := range bytes.Split(data[:end], []byte{'\n'}) {
		select {
		case <-handle.Done():
			return nil
		default:
		}
		entry, ok := f.source.parseLine(line, f.botID)
		if ok && f.onEntry != nil {
			f.onEntry(entry)
		}
	}
	return nil
}

func (s *FileSource) parseLine(line []byte, botID string) (botapi.LogEntry, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return botapi.LogEntry{}, false
	}
	var entry botapi.LogEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		s.Logger.Warn("skipping malformed log line", "bot", botID, "error", err)
		return botapi.LogEntry{}, false
	}
	return botapi.Normalize(entry, botID), true
}
