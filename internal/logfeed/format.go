package logfeed

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/relay/internal/botapi"
)

const exportTimeLayout = "15:04:05"

// FormatEntry renders one entry as "[HH:MM:SS] LEVEL SOURCE: MESSAGE" in
// local time. Entries without a source are attributed to "system".
func FormatEntry(e botapi.LogEntry) string {
	source := strings.TrimSpace(e.Source)
	if source == "" {
		source = "system"
	}
	level := strings.ToUpper(string(e.Level))
	if level == "" {
		level = strings.ToUpper(string(botapi.LevelInfo))
	}
	return fmt.Sprintf("[%s] %s %s: %s", e.Timestamp.Local().Format(exportTimeLayout), level, source, e.Message)
}

// FormatEntries renders entries one per line, in the order given, with a
// trailing newline.
func FormatEntries(entries []botapi.LogEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(FormatEntry(e))
		b.WriteByte('\n')
	}
	return b.String()
}

// ExportFilename names a download export taken at now.
func ExportFilename(botID string, now time.Time) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(botID))
	if id == "" {
		id = "bot"
	}
	return fmt.Sprintf("%s-logs-%s.txt", id, now.Format("20060102-150405"))
}
