package recorder

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultMemoryCapacity bounds each in-memory buffer.
const DefaultMemoryCapacity = 1000

// Memory is the in-memory Recorder backend used when the audit database is
// unreachable at startup. Records live only for the process lifetime; reads
// and writes behave exactly like the durable backend.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	events   []Event
	outcomes []Outcome
}

// NewMemory creates an in-memory recorder holding at most capacity records
// per buffer; the oldest records are evicted first.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) LogEvent(_ context.Context, executionID, eventType, incidentNumber, message string, metadata map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, Event{
		ExecutionID:    executionID,
		Timestamp:      time.Now(),
		EventType:      eventType,
		IncidentNumber: incidentNumber,
		Message:        message,
		Metadata:       metadata,
	})
	if len(m.events) > m.capacity {
		m.events = m.events[len(m.events)-m.capacity:]
	}
	return nil
}

func (m *Memory) LogOutcome(_ context.Context, outcome Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if outcome.ProcessedAt.IsZero() {
		outcome.ProcessedAt = time.Now()
	}
	m.outcomes = append(m.outcomes, outcome)
	if len(m.outcomes) > m.capacity {
		m.outcomes = m.outcomes[len(m.outcomes)-m.capacity:]
	}
	return nil
}

func (m *Memory) RecentEvents(_ context.Context, limit int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]Event, len(m.events))
	copy(events, m.events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (m *Memory) RecentOutcomes(_ context.Context, limit int) ([]Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	outcomes := make([]Outcome, len(m.outcomes))
	copy(outcomes, m.outcomes)
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].ProcessedAt.After(outcomes[j].ProcessedAt)
	})
	if limit > 0 && len(outcomes) > limit {
		outcomes = outcomes[:limit]
	}
	return outcomes, nil
}

func (m *Memory) Statistics(_ context.Context) (*Statistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Statistics{}
	stats.AllTime.Total = len(m.outcomes)

	now := time.Now()
	for _, o := range m.outcomes {
		if o.ProcessedAt.Year() != now.Year() || o.ProcessedAt.YearDay() != now.YearDay() {
			continue
		}
		stats.Today.Total++
		switch o.Status {
		case StatusSuccess:
			stats.Today.Success++
		case StatusFailed:
			stats.Today.Failed++
		case StatusSkipped:
			stats.Today.Skipped++
		}
	}
	return stats, nil
}

func (m *Memory) Mode() string {
	return ModeMemory
}

func (m *Memory) Close() error {
	return nil
}
