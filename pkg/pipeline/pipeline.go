package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ishaanzatey/incident-handler/pkg/broadcaster"
	"github.com/ishaanzatey/incident-handler/pkg/logger"
	"github.com/ishaanzatey/incident-handler/pkg/recorder"
	"github.com/ishaanzatey/incident-handler/pkg/rules"
	"github.com/ishaanzatey/incident-handler/pkg/servicenow"
)

// ErrRunInProgress is returned when a run is triggered while another run is
// still active. Concurrent runs against the same remote store are undefined
// behavior, so triggers are serialized here.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// auditWriteTimeout bounds a single recorder write. Audit writes carry their
// own deadline, detached from the run and incident contexts: when a deadline
// is what failed the incident, the failed outcome must still be persisted.
const auditWriteTimeout = 5 * time.Second

// IncidentStore is the remote ticketing service surface the pipeline needs.
type IncidentStore interface {
	FetchEligibleIncidents(ctx context.Context, assignmentGroupID string) ([]servicenow.Incident, error)
	ResolveIncident(ctx context.Context, sysID string, payload servicenow.ResolutionPayload) error
}

// RuleFinder looks up the resolution rule for an incident's text fields.
// A nil rule with a nil error means no rule matched.
type RuleFinder interface {
	FindResolveRule(ctx context.Context, shortDescription, description string) (*rules.Rule, error)
}

// Emitter receives processing events for the live dashboard stream.
// Emission is fire-and-forget; emitter failures never reach the pipeline.
type Emitter interface {
	Emit(eventType string, data interface{})
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	ExecutionID string `json:"execution_id"`
	Total       int    `json:"total"`
	Success     int    `json:"success"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"`
}

// Runner orchestrates one resolution pass: fetch eligible incidents, match
// each against the rule store, resolve or skip, record the outcome, and
// broadcast every step.
type Runner struct {
	store             IncidentStore
	finder            RuleFinder
	recorder          recorder.Recorder
	emitter           Emitter
	assignmentGroupID string
	runTimeout        time.Duration
	incidentTimeout   time.Duration

	mu      sync.Mutex
	running bool
}

// Options configures a Runner.
type Options struct {
	Store             IncidentStore
	Finder            RuleFinder
	Recorder          recorder.Recorder
	Emitter           Emitter
	AssignmentGroupID string

	// RunTimeout bounds a complete run; zero disables the deadline.
	RunTimeout time.Duration

	// IncidentTimeout bounds the remote operations for one incident;
	// zero disables the per-incident deadline.
	IncidentTimeout time.Duration
}

// NewRunner creates a pipeline runner from its collaborators.
func NewRunner(opts Options) *Runner {
	return &Runner{
		store:             opts.Store,
		finder:            opts.Finder,
		recorder:          opts.Recorder,
		emitter:           opts.Emitter,
		assignmentGroupID: opts.AssignmentGroupID,
		runTimeout:        opts.RunTimeout,
		incidentTimeout:   opts.IncidentTimeout,
	}
}

// Running reports whether a run is currently active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Run executes one complete resolution pass. Incidents are processed
// strictly sequentially in fetch order; one incident's failure never aborts
// the run, but a fetch failure does (there is no partial list to iterate).
// Returns ErrRunInProgress when another run is still active.
func (r *Runner) Run(ctx context.Context) (*RunStats, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrRunInProgress
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	if r.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.runTimeout)
		defer cancel()
	}

	stats := &RunStats{ExecutionID: uuid.NewString()}

	incidents, err := r.store.FetchEligibleIncidents(ctx, r.assignmentGroupID)
	if err != nil {
		r.emitter.Emit(broadcaster.EventErrorOccurred, map[string]interface{}{
			"error":  err.Error(),
			"status": "error",
		})
		r.logEvent(ctx, stats.ExecutionID, broadcaster.EventErrorOccurred, "", err.Error(), nil)
		return nil, fmt.Errorf("fetching eligible incidents: %w", err)
	}

	if len(incidents) == 0 {
		logger.Infof("No eligible incidents found")
		r.logEvent(ctx, stats.ExecutionID, broadcaster.EventExecutionCompleted, "", "no eligible incidents", nil)
		return stats, nil
	}

	stats.Total = len(incidents)
	r.emitter.Emit(broadcaster.EventExecutionStarted, map[string]interface{}{
		"total_incidents": stats.Total,
		"status":          "started",
	})
	r.logEvent(ctx, stats.ExecutionID, broadcaster.EventExecutionStarted, "",
		fmt.Sprintf("processing %d eligible incidents", stats.Total),
		map[string]interface{}{"total_incidents": stats.Total})

	for i := range incidents {
		r.processIncident(ctx, stats, &incidents[i])
	}

	counts := map[string]interface{}{
		"total":   stats.Total,
		"success": stats.Success,
		"failed":  stats.Failed,
		"skipped": stats.Skipped,
	}
	r.emitter.Emit(broadcaster.EventExecutionCompleted, map[string]interface{}{
		"stats":  counts,
		"status": "completed",
	})
	r.logEvent(ctx, stats.ExecutionID, broadcaster.EventExecutionCompleted, "",
		fmt.Sprintf("completed: %d resolved, %d failed, %d skipped", stats.Success, stats.Failed, stats.Skipped),
		counts)

	logger.Infof("Pipeline run %s completed: %d total, %d resolved, %d failed, %d skipped",
		stats.ExecutionID, stats.Total, stats.Success, stats.Failed, stats.Skipped)
	return stats, nil
}

// processIncident runs the match/resolve/record/broadcast steps for a single
// incident, updating the run counters in place.
func (r *Runner) processIncident(ctx context.Context, stats *RunStats, inc *servicenow.Incident) {
	if r.incidentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.incidentTimeout)
		defer cancel()
	}

	r.emitter.Emit(broadcaster.EventIncidentProcessing, map[string]interface{}{
		"incident_number":   inc.Number,
		"short_description": inc.ShortDescription,
		"status":            "processing",
	})
	r.logEvent(ctx, stats.ExecutionID, broadcaster.EventIncidentProcessing, inc.Number, "", nil)

	rule, err := r.finder.FindResolveRule(ctx, inc.ShortDescription, inc.Description)
	if err != nil {
		stats.Failed++
		r.emitter.Emit(broadcaster.EventErrorOccurred, map[string]interface{}{
			"incident_number": inc.Number,
			"error":           err.Error(),
			"status":          "error",
		})
		r.logOutcome(ctx, recorder.Outcome{
			IncidentNumber:   inc.Number,
			IncidentSysID:    inc.SysID,
			ShortDescription: inc.ShortDescription,
			ActionTaken:      recorder.ActionSkipped,
			Status:           recorder.StatusFailed,
			ErrorMessage:     err.Error(),
		})
		logger.Errorf("Rule lookup failed for %s: %v", inc.Number, err)
		return
	}

	if rule == nil {
		stats.Skipped++
		r.emitter.Emit(broadcaster.EventIncidentSkipped, map[string]interface{}{
			"incident_number": inc.Number,
			"reason":          "no matching resolution rule",
			"status":          "skipped",
		})
		r.logOutcome(ctx, recorder.Outcome{
			IncidentNumber:   inc.Number,
			IncidentSysID:    inc.SysID,
			ShortDescription: inc.ShortDescription,
			ActionTaken:      recorder.ActionSkipped,
			Status:           recorder.StatusSkipped,
		})
		logger.Infof("Skipped %s (no rule match)", inc.Number)
		return
	}

	r.emitter.Emit(broadcaster.EventRuleMatched, map[string]interface{}{
		"incident_number": inc.Number,
		"rule":            rule.Redacted(),
		"status":          "matched",
	})

	payload := servicenow.NewResolutionPayload(
		rule.ClosureNote, rule.WorkNotes, rule.JiraReference, rule.ParentIncident, rule.KBArticle)

	ruleID := rule.ID
	if err := r.store.ResolveIncident(ctx, inc.SysID, payload); err != nil {
		stats.Failed++
		r.emitter.Emit(broadcaster.EventErrorOccurred, map[string]interface{}{
			"incident_number": inc.Number,
			"error":           err.Error(),
			"status":          "error",
		})
		r.logOutcome(ctx, recorder.Outcome{
			IncidentNumber:   inc.Number,
			IncidentSysID:    inc.SysID,
			ShortDescription: inc.ShortDescription,
			MatchedRuleID:    &ruleID,
			ActionTaken:      recorder.ActionResolved,
			Status:           recorder.StatusFailed,
			ErrorMessage:     err.Error(),
		})
		logger.Errorf("Failed to resolve %s with rule %d: %v", inc.Number, ruleID, err)
		return
	}

	stats.Success++
	r.emitter.Emit(broadcaster.EventIncidentResolved, map[string]interface{}{
		"incident_number": inc.Number,
		"rule_id":         ruleID,
		"status":          "resolved",
	})
	r.logOutcome(ctx, recorder.Outcome{
		IncidentNumber:   inc.Number,
		IncidentSysID:    inc.SysID,
		ShortDescription: inc.ShortDescription,
		MatchedRuleID:    &ruleID,
		ActionTaken:      recorder.ActionResolved,
		Status:           recorder.StatusSuccess,
	})
	logger.Infof("Resolved %s using rule %d", inc.Number, ruleID)
}

// logEvent appends to the audit trail; audit failures are logged and
// swallowed so processing never halts on a recorder problem.
func (r *Runner) logEvent(ctx context.Context, executionID, eventType, incidentNumber, message string, metadata map[string]interface{}) {
	ctx, cancel := auditContext(ctx)
	defer cancel()
	if err := r.recorder.LogEvent(ctx, executionID, eventType, incidentNumber, message, metadata); err != nil {
		logger.Warnf("Failed to record %s event: %v", eventType, err)
	}
}

func (r *Runner) logOutcome(ctx context.Context, outcome recorder.Outcome) {
	ctx, cancel := auditContext(ctx)
	defer cancel()
	if err := r.recorder.LogOutcome(ctx, outcome); err != nil {
		logger.Warnf("Failed to record outcome for %s: %v", outcome.IncidentNumber, err)
	}
}

// auditContext derives a write context that survives an expired run or
// incident deadline. Values are kept, cancellation is not.
func auditContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
}
