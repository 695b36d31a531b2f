package main

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics counts the requests served by the App and their status codes.
type Statistics struct {
	version   string
	container bool
	runtime   string
	platform  string
	started   time.Time
	called    uint64

	mu     sync.RWMutex
	status map[int]uint64
}

// NewStatistics builds the App stats. The git commit stands
// for the version when no tag was set at build time.
func NewStatistics(config *Config, started time.Time) *Statistics {
	version := config.GitTag
	if version == "" {
		version = config.GitCommit
	}
	return &Statistics{
		version:   version,
		container: IsAppRunningInDocker(),
		runtime:   runtime.Version(),
		platform:  runtime.GOOS + "/" + runtime.GOARCH,
		started:   started,
		status:    make(map[int]uint64),
	}
}

// count registers a new request and returns its sequence number.
func (s *Statistics) count() uint64 {
	return atomic.AddUint64(&s.called, 1)
}

func (s *Statistics) calls() uint64 {
	return atomic.LoadUint64(&s.called)
}

func (s *Statistics) record(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		s.status = make(map[int]uint64)
	}
	s.status[code]++
}

func (s *Statistics) statusCounts() map[int]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[int]uint64, len(s.status))
	for code, n := range s.status {
		counts[code] = n
	}
	return counts
}

func (s *Statistics) uptime(now time.Time) string {
	return fmt.Sprintf("%.0f mins", now.Sub(s.started).Minutes())
}

// Maintenance is the switch turning the public endpoints into 503 responses.
type Maintenance struct {
	enabled atomic.Bool
	mu      sync.RWMutex
	reason  string
	since   time.Time
}

// MaintenanceInfo is the reported state of the maintenance mode.
type MaintenanceInfo struct {
	Enabled bool   `json:"enabled"`
	Started string `json:"started"`
	Message string `json:"message"`
}

func (m *Maintenance) Enable(reason string, at time.Time) {
	m.mu.Lock()
	m.reason, m.since = reason, at
	m.mu.Unlock()
	m.enabled.Store(true)
}

func (m *Maintenance) Disable() {
	m.enabled.Store(false)
	m.mu.Lock()
	m.reason, m.since = "", time.Time{}
	m.mu.Unlock()
}

func (m *Maintenance) Enabled() bool {
	return m.enabled.Load()
}

func (m *Maintenance) Info() MaintenanceInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info := MaintenanceInfo{Enabled: m.enabled.Load(), Message: m.reason}
	if !m.since.IsZero() {
		info.Started = m.since.Format(time.RFC1123)
	}
	return info
}
