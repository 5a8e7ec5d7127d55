package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaanzatey/incident-handler/pkg/broadcaster"
	"github.com/ishaanzatey/incident-handler/pkg/recorder"
	"github.com/ishaanzatey/incident-handler/pkg/rules"
	"github.com/ishaanzatey/incident-handler/pkg/servicenow"
)

func diskFullRule() rules.Rule {
	return rules.Rule{
		ID:                      1,
		IsActive:                true,
		ActionType:              rules.ActionResolve,
		ShortDescriptionKeyword: "disk",
		DescriptionKeyword:      "full",
		ClosureNote:             "Cleared temp files",
		WorkNotes:               "Auto-resolved by rule",
	}
}

func newTestRunner(store *fakeStore, finder *fakeFinder, emitter *fakeEmitter) (*Runner, *recorder.Memory) {
	rec := recorder.NewMemory(100)
	runner := NewRunner(Options{
		Store:             store,
		Finder:            finder,
		Recorder:          rec,
		Emitter:           emitter,
		AssignmentGroupID: "group-sys-id",
	})
	return runner, rec
}

func TestRunner_Run_ResolvesMatchedIncident(t *testing.T) {
	store := &fakeStore{
		incidents: []servicenow.Incident{
			{SysID: "abc123", Number: "INC0000001", ShortDescription: "Disk space alert", Description: "/var is full"},
		},
	}
	finder := &fakeFinder{rules: []rules.Rule{diskFullRule()}}
	emitter := &fakeEmitter{}
	runner, rec := newTestRunner(store, finder, emitter)

	stats, err := runner.Run(context.Background())

	require.NoError(t, err, "Expected the run to succeed")
	assert.NotEmpty(t, stats.ExecutionID, "Expected a run identifier")
	assert.Equal(t, 1, stats.Total, "Expected one incident processed")
	assert.Equal(t, 1, stats.Success, "Expected one resolution")
	assert.Equal(t, 0, stats.Failed, "Expected no failures")
	assert.Equal(t, 0, stats.Skipped, "Expected no skips")

	calls := store.resolvedCalls()
	require.Len(t, calls, 1, "Expected exactly one resolution update")
	assert.Equal(t, "abc123", calls[0].sysID, "Expected the update against the matched incident")
	assert.Equal(t, servicenow.StateResolved, calls[0].payload.State, "Expected the resolved state code")
	assert.Equal(t, "Cleared temp files", calls[0].payload.CloseNotes, "Expected the rule's closure note")
	assert.Equal(t, "Auto-resolved by rule", calls[0].payload.WorkNotes, "Expected the rule's work notes")

	assert.Equal(t, []string{
		broadcaster.EventExecutionStarted,
		broadcaster.EventIncidentProcessing,
		broadcaster.EventRuleMatched,
		broadcaster.EventIncidentResolved,
		broadcaster.EventExecutionCompleted,
	}, emitter.eventTypes(), "Expected the full event sequence in order")

	outcomes, err := rec.RecentOutcomes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 1, "Expected one recorded outcome")
	assert.Equal(t, recorder.StatusSuccess, outcomes[0].Status, "Expected a success outcome")
	assert.Equal(t, recorder.ActionResolved, outcomes[0].ActionTaken, "Expected the resolved action")
	require.NotNil(t, outcomes[0].MatchedRuleID, "Expected the matched rule id on the outcome")
	assert.Equal(t, 1, *outcomes[0].MatchedRuleID, "Expected the matching rule's id")
}

func TestRunner_Run_SkipsUnmatchedIncident(t *testing.T) {
	store := &fakeStore{
		incidents: []servicenow.Incident{
			{SysID: "def456", Number: "INC0000002", ShortDescription: "CPU spike", Description: "load average high"},
		},
	}
	finder := &fakeFinder{rules: []rules.Rule{diskFullRule()}}
	emitter := &fakeEmitter{}
	runner, rec := newTestRunner(store, finder, emitter)

	stats, err := runner.Run(context.Background())

	require.NoError(t, err, "Expected the run to succeed")
	assert.Equal(t, 1, stats.Skipped, "Expected the incident skipped")
	assert.Equal(t, 0, stats.Success, "Expected no resolutions")
	assert.Empty(t, store.resolvedCalls(), "Expected no resolution update for an unmatched incident")
	assert.Contains(t, emitter.eventTypes(), broadcaster.EventIncidentSkipped, "Expected a skip event")
	assert.NotContains(t, emitter.eventTypes(), broadcaster.EventRuleMatched, "Expected no match event")

	outcomes, err := rec.RecentOutcomes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 1, "Expected one recorded outcome")
	assert.Equal(t, recorder.StatusSkipped, outcomes[0].Status, "Expected a skipped outcome")
	assert.Equal(t, recorder.ActionSkipped, outcomes[0].ActionTaken, "Expected the skipped action")
	assert.Nil(t, outcomes[0].MatchedRuleID, "Expected no rule id on a skipped outcome")
}

func TestRunner_Run_ResolutionFailureDoesNotAbortRun(t *testing.T) {
	store := &fakeStore{
		incidents: []servicenow.Incident{
			{SysID: "abc123", Number: "INC0000001", ShortDescription: "Disk space alert", Description: "/var is full"},
			{SysID: "ghi789", Number: "INC0000003", ShortDescription: "Disk usage warning", Description: "partition full"},
		},
		resolveErrs: map[string]error{
			"abc123": errors.New("failed to apply resolution update: status 503"),
		},
	}
	finder := &fakeFinder{rules: []rules.Rule{diskFullRule()}}
	emitter := &fakeEmitter{}
	runner, rec := newTestRunner(store, finder, emitter)

	stats, err := runner.Run(context.Background())

	require.NoError(t, err, "Expected one incident's failure not to fail the run")
	assert.Equal(t, 2, stats.Total, "Expected both incidents processed")
	assert.Equal(t, 1, stats.Failed, "Expected the failed resolution counted")
	assert.Equal(t, 1, stats.Success, "Expected the second incident still resolved")

	calls := store.resolvedCalls()
	require.Len(t, calls, 1, "Expected one successful resolution update")
	assert.Equal(t, "ghi789", calls[0].sysID, "Expected processing to continue past the failure")

	outcomes, err := rec.RecentOutcomes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 2, "Expected an outcome per incident")

	var failed *recorder.Outcome
	for i := range outcomes {
		if outcomes[i].Status == recorder.StatusFailed {
			failed = &outcomes[i]
		}
	}
	require.NotNil(t, failed, "Expected a failed outcome")
	assert.Equal(t, "INC0000001", failed.IncidentNumber, "Expected the failure on the first incident")
	assert.Equal(t, recorder.ActionResolved, failed.ActionTaken, "Expected the attempted action recorded")
	assert.Contains(t, failed.ErrorMessage, "503", "Expected the failure text on the outcome")
}

func TestRunner_Run_TimedOutIncidentOutcomeIsPersisted(t *testing.T) {
	store := &fakeStore{
		incidents: []servicenow.Incident{
			{SysID: "abc123", Number: "INC0000001", ShortDescription: "Disk space alert", Description: "/var is full"},
		},
		resolveBlocks: true,
	}
	finder := &fakeFinder{rules: []rules.Rule{diskFullRule()}}
	emitter := &fakeEmitter{}
	rec := &strictRecorder{Memory: recorder.NewMemory(100)}
	runner := NewRunner(Options{
		Store:             store,
		Finder:            finder,
		Recorder:          rec,
		Emitter:           emitter,
		AssignmentGroupID: "group-sys-id",
		IncidentTimeout:   50 * time.Millisecond,
	})

	stats, err := runner.Run(context.Background())

	require.NoError(t, err, "Expected the run to complete past the timed-out incident")
	assert.Equal(t, 1, stats.Failed, "Expected the timed-out resolution counted as failed")

	// The expired incident deadline must not poison the audit writes: the
	// failed outcome and the run's tail events still land in the recorder.
	outcomes, err := rec.RecentOutcomes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 1, "Expected the failed outcome persisted despite the expired deadline")
	assert.Equal(t, recorder.StatusFailed, outcomes[0].Status, "Expected a failed outcome")
	assert.Contains(t, outcomes[0].ErrorMessage, context.DeadlineExceeded.Error(),
		"Expected the timeout recorded as the failure cause")

	events, err := rec.RecentEvents(context.Background(), 0)
	require.NoError(t, err)
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType
	}
	assert.Contains(t, types, broadcaster.EventExecutionCompleted,
		"Expected the completion event persisted despite the expired deadline")
}

func TestRunner_Run_RuleLookupFailureCountsAsFailed(t *testing.T) {
	store := &fakeStore{
		incidents: []servicenow.Incident{
			{SysID: "abc123", Number: "INC0000001", ShortDescription: "Disk space alert", Description: "/var is full"},
		},
	}
	finder := &fakeFinder{findErr: errors.New("connection reset by peer")}
	emitter := &fakeEmitter{}
	runner, rec := newTestRunner(store, finder, emitter)

	stats, err := runner.Run(context.Background())

	require.NoError(t, err, "Expected a lookup failure not to fail the run")
	assert.Equal(t, 1, stats.Failed, "Expected the lookup failure counted")
	assert.Empty(t, store.resolvedCalls(), "Expected no resolution without a rule decision")

	outcomes, err := rec.RecentOutcomes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 1, "Expected one recorded outcome")
	assert.Equal(t, recorder.StatusFailed, outcomes[0].Status, "Expected a failed outcome")
	assert.Equal(t, recorder.ActionSkipped, outcomes[0].ActionTaken, "Expected no action taken")
	assert.Contains(t, outcomes[0].ErrorMessage, "connection reset", "Expected the failure text on the outcome")
}

func TestRunner_Run_FetchFailureAbortsRun(t *testing.T) {
	store := &fakeStore{fetchErr: servicenow.ErrRemoteUnavailable}
	finder := &fakeFinder{}
	emitter := &fakeEmitter{}
	runner, rec := newTestRunner(store, finder, emitter)

	stats, err := runner.Run(context.Background())

	require.Error(t, err, "Expected a fetch failure to fail the run")
	assert.ErrorIs(t, err, servicenow.ErrRemoteUnavailable, "Expected the cause preserved")
	assert.Nil(t, stats, "Expected no stats for an aborted run")
	assert.Equal(t, []string{broadcaster.EventErrorOccurred}, emitter.eventTypes(),
		"Expected only an error event")

	outcomes, err := rec.RecentOutcomes(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, outcomes, "Expected no outcomes for an aborted run")
}

func TestRunner_Run_NoEligibleIncidents(t *testing.T) {
	store := &fakeStore{}
	finder := &fakeFinder{rules: []rules.Rule{diskFullRule()}}
	emitter := &fakeEmitter{}
	runner, rec := newTestRunner(store, finder, emitter)

	stats, err := runner.Run(context.Background())

	require.NoError(t, err, "Expected an empty run to succeed")
	assert.Equal(t, 0, stats.Total, "Expected nothing processed")
	assert.Empty(t, emitter.eventTypes(), "Expected no broadcast for an empty run")

	events, err := rec.RecentEvents(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, events, 1, "Expected a completion record for the empty run")
	assert.Equal(t, broadcaster.EventExecutionCompleted, events[0].EventType, "Expected a completion event")
	assert.Equal(t, "no eligible incidents", events[0].Message, "Expected the empty-run message")
}

func TestRunner_Run_RejectsConcurrentRuns(t *testing.T) {
	gate := make(chan struct{})
	store := &fakeStore{fetchGate: gate}
	finder := &fakeFinder{}
	emitter := &fakeEmitter{}
	runner, _ := newTestRunner(store, finder, emitter)

	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background())
		done <- err
	}()

	require.Eventually(t, runner.Running, time.Second, 10*time.Millisecond,
		"Expected the first run to be active")

	_, err := runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress, "Expected the second trigger rejected")

	close(gate)
	require.NoError(t, <-done, "Expected the first run to finish")

	assert.False(t, runner.Running(), "Expected the runner idle after the run")
	_, err = runner.Run(context.Background())
	assert.NoError(t, err, "Expected a new run allowed after completion")
}
