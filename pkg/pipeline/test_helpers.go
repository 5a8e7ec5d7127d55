package pipeline

import (
	"context"
	"sync"

	"github.com/ishaanzatey/incident-handler/pkg/recorder"
	"github.com/ishaanzatey/incident-handler/pkg/rules"
	"github.com/ishaanzatey/incident-handler/pkg/servicenow"
)

// fakeStore is an in-memory IncidentStore for tests. Fetch can be forced to
// fail or to block on a gate; resolutions can be failed per sys_id.
type fakeStore struct {
	mu sync.Mutex

	incidents []servicenow.Incident
	fetchErr  error
	fetchGate chan struct{}

	resolveErrs map[string]error
	// resolveBlocks makes every resolution hang until its context expires,
	// simulating a remote store slower than the incident deadline.
	resolveBlocks bool
	resolved      []resolvedCall
}

type resolvedCall struct {
	sysID   string
	payload servicenow.ResolutionPayload
}

func (s *fakeStore) FetchEligibleIncidents(_ context.Context, _ string) ([]servicenow.Incident, error) {
	if s.fetchGate != nil {
		<-s.fetchGate
	}
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.incidents, nil
}

func (s *fakeStore) ResolveIncident(ctx context.Context, sysID string, payload servicenow.ResolutionPayload) error {
	if s.resolveBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	if err, ok := s.resolveErrs[sysID]; ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = append(s.resolved, resolvedCall{sysID: sysID, payload: payload})
	return nil
}

func (s *fakeStore) resolvedCalls() []resolvedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]resolvedCall, len(s.resolved))
	copy(out, s.resolved)
	return out
}

// fakeFinder matches against an in-memory rule list in id order, the same
// contract the database-backed store provides.
type fakeFinder struct {
	rules   []rules.Rule
	findErr error
}

func (f *fakeFinder) FindResolveRule(_ context.Context, shortDescription, description string) (*rules.Rule, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i := range f.rules {
		if f.rules[i].Matches(shortDescription, description) {
			return &f.rules[i], nil
		}
	}
	return nil, nil
}

// strictRecorder wraps the in-memory recorder with the context discipline of
// a real database client: writes against an expired context are rejected.
type strictRecorder struct {
	*recorder.Memory
}

func (s *strictRecorder) LogEvent(ctx context.Context, executionID, eventType, incidentNumber, message string, metadata map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Memory.LogEvent(ctx, executionID, eventType, incidentNumber, message, metadata)
}

func (s *strictRecorder) LogOutcome(ctx context.Context, outcome recorder.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Memory.LogOutcome(ctx, outcome)
}

// fakeEmitter records every emitted event type and payload.
type fakeEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	eventType string
	data      interface{}
}

func (e *fakeEmitter) Emit(eventType string, data interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emittedEvent{eventType: eventType, data: data})
}

func (e *fakeEmitter) eventTypes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	types := make([]string, len(e.events))
	for i, ev := range e.events {
		types[i] = ev.eventType
	}
	return types
}
