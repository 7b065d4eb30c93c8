package metrics

import (
	"sync"
	"time"
)

var _ Metrics = (*Mock)(nil)

// Mock counts calls for assertions in tests. It is safe for concurrent use.
type Mock struct {
	mu                sync.Mutex
	membersRegistered int
	matchesRecorded   int
	matchesDeleted    int
	archiveSuccesses  int
	archiveFailures   int
	archiveRetries    int
	snapshots         int
	purged            int
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) IncMembersRegistered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.membersRegistered++
}

func (m *Mock) IncMatchesRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesRecorded++
}

func (m *Mock) IncMatchesDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesDeleted++
}

func (m *Mock) IncArchiveRetries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archiveRetries++
}

func (m *Mock) ObserveArchive(success bool, _ time.Duration, snapshots, purged int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.archiveSuccesses++
	} else {
		m.archiveFailures++
	}
	m.snapshots += snapshots
	m.purged += purged
}

func (m *Mock) MembersRegistered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.membersRegistered
}

func (m *Mock) MatchesRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesRecorded
}

func (m *Mock) MatchesDeleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesDeleted
}

// ArchiveRuns returns the number of successful and failed sweeps.
func (m *Mock) ArchiveRuns() (success, failure int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.archiveSuccesses, m.archiveFailures
}

func (m *Mock) ArchiveRetries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.archiveRetries
}

func (m *Mock) Snapshots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots
}
