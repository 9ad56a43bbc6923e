// Package logtail reads bot logs from disk.
//
// # Reading Log Files
//
// Read extracts the last N lines of a file in a single pass using a ring
// buffer of size N, so memory stays O(N) regardless of file size. Missing
// files read as empty rather than failing.
//
//	lines, err := logtail.Read("/var/lib/relay/logs/alpha.jsonl", 50)
//
// # FileSource
//
// FileSource implements botapi.LogSource over a directory of JSONL files,
// one per bot (<dir>/<botID>.jsonl). History is the tail of the file;
// malformed lines are logged and skipped. The live feed watches the
// directory with fsnotify and delivers complete lines appended after the
// subscription opened. Partial lines wait for the next write. When the
// file is truncated, removed or recreated, reading restarts from offset
// zero.
//
// Releasing the subscription closes the watcher. A watcher error ends the
// subscription with that error, which callers surface as a lost feed.
package logtail
