package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/relay/internal/botapi"
)

// Snapshot is the latest polled bot status available to the UI.
type Snapshot struct {
	BotID               string
	Status              botapi.BotStatus
	HasStatus           bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Uptime returns how long the bot has been running, zero when unknown.
func (s Snapshot) Uptime(now time.Time) time.Duration {
	if !s.HasStatus || !s.Status.Running {
		return 0
	}
	started := s.Status.ParsedStartedAt()
	if started.IsZero() || started.After(now) {
		return 0
	}
	return now.Sub(started)
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Reset forgets everything and starts tracking botID.
func (s *Store) Reset(botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{BotID: botID}
}

// Update replaces the stored status. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(status *botapi.BotStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if status != nil {
		s.snapshot.Status = *status
		s.snapshot.HasStatus = true
	} else {
		s.snapshot.HasStatus = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
