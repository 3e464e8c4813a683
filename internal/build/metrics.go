package build

import (
	"sync"
	"time"
)

// BuildMetrics counts rebuild outcomes over the life of the process.
type BuildMetrics struct {
	mu      sync.Mutex
	builds  int64
	failed  int64
	elapsed time.Duration
	last    time.Time
	lastErr error
}

// MetricsSnapshot is a point-in-time copy of BuildMetrics.
type MetricsSnapshot struct {
	Builds          int64
	Failed          int64
	AverageDuration time.Duration
	LastBuild       time.Time
	LastError       error
}

// Succeeded returns the number of builds that wrote (or would have
// written) a cartridge.
func (s MetricsSnapshot) Succeeded() int64 {
	return s.Builds - s.Failed
}

// NewBuildMetrics creates an empty tracker.
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// Record adds one build result.
func (m *BuildMetrics) Record(result BuildResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.builds++
	m.elapsed += result.Duration
	m.last = time.Now()
	m.lastErr = result.Error
	if result.Error != nil {
		m.failed++
	}
}

// Snapshot returns the current counters.
func (m *BuildMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := MetricsSnapshot{
		Builds:    m.builds,
		Failed:    m.failed,
		LastBuild: m.last,
		LastError: m.lastErr,
	}
	if m.builds > 0 {
		s.AverageDuration = m.elapsed / time.Duration(m.builds)
	}
	return s
}
