package logfeed

import (
	"sort"

	"github.com/five82/relay/internal/botapi"
)

// DefaultCapacity bounds a Buffer when no capacity is given.
const DefaultCapacity = 100

// Buffer holds at most capacity log entries, unique by id, in ascending
// timestamp order. Entries with equal timestamps keep arrival order. When
// full, the earliest entry is evicted.
type Buffer struct {
	capacity int
	entries  []botapi.LogEntry
	ids      map[string]struct{}
}

// NewBuffer returns an empty buffer. A non-positive capacity selects
// DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		entries:  make([]botapi.LogEntry, 0, capacity+1),
		ids:      make(map[string]struct{}, capacity+1),
	}
}

// Insert merges entry into the buffer. It reports whether the entry is
// present afterwards: duplicates are dropped, and an entry older than
// everything in a full buffer is evicted immediately.
func (b *Buffer) Insert(entry botapi.LogEntry) bool {
	if _, dup := b.ids[entry.ID]; dup {
		return false
	}
	// Upper bound keeps equal timestamps in arrival order.
	i := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].Timestamp.After(entry.Timestamp)
	})
	b.entries = append(b.entries, botapi.LogEntry{})
	copy(b.entries[i+1:], b.entries[i:])
	b.entries[i] = entry
	b.ids[entry.ID] = struct{}{}

	if len(b.entries) > b.capacity {
		evicted := b.entries[0]
		copy(b.entries, b.entries[1:])
		b.entries[len(b.entries)-1] = botapi.LogEntry{}
		b.entries = b.entries[:len(b.entries)-1]
		delete(b.ids, evicted.ID)
		if evicted.ID == entry.ID {
			return false
		}
	}
	return true
}

// Replace discards the current contents and inserts entries.
func (b *Buffer) Replace(entries []botapi.LogEntry) {
	b.Reset()
	for _, e := range entries {
		b.Insert(e)
	}
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	clear(b.ids)
	for i := range b.entries {
		b.entries[i] = botapi.LogEntry{}
	}
	b.entries = b.entries[:0]
}

// Contains reports whether an entry with id is buffered.
func (b *Buffer) Contains(id string) bool {
	_, ok := b.ids[id]
	return ok
}

// Entries returns a copy of the buffered entries, oldest first.
func (b *Buffer) Entries() []botapi.LogEntry {
	out := make([]botapi.LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int { return len(b.entries) }

// Cap returns the buffer's capacity.
func (b *Buffer) Cap() int { return b.capacity }
