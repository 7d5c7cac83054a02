// Package workflow drives a credit application through submission,
// analysis and decision. One foreground transition runs at a time and a
// failed transition leaves the in-memory state exactly as it was.
package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"credit-workflow/internal/audit"
	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/common/logger"
	"credit-workflow/internal/common/metrics"
	"credit-workflow/internal/common/observability"
	"credit-workflow/internal/gateway/ai"
	"credit-workflow/internal/gateway/store"
	"credit-workflow/internal/models"
	"credit-workflow/internal/notify"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store is the remote record store.
type Store interface {
	Upload(ctx context.Context, req store.UploadRequest) (*store.UploadResult, error)
	GetAll(ctx context.Context) ([]models.Summary, error)
	SaveState(ctx context.Context, app *models.CreditApplication) error
	LoadState(ctx context.Context, folderID string) (*models.CreditApplication, error)
	FetchFilesForAI(ctx context.Context, folderID string) ([]models.Attachment, error)
	UpdateSheet(ctx context.Context, u store.SheetUpdate) error
}

// Analyzer is the AI document gateway.
type Analyzer interface {
	ExtractIdentity(ctx context.Context, file models.Attachment) (*ai.Identity, error)
	ValidateDocuments(ctx context.Context, files []models.Attachment, legalName, taxID string) (*models.ValidationResult, error)
	CheckIdentityMatch(ctx context.Context, file models.Attachment, legalName string) (*ai.IdentityMatch, error)
	RunFullAnalysis(ctx context.Context, files []models.Attachment, clientName, taxID string) (*models.AIResult, error)
}

// PinVerifier gates director actions.
type PinVerifier interface {
	Verify(ctx context.Context, pin string) error
	Rotate(ctx context.Context, currentPIN, newPIN string) error
}

type AuditRecorder interface {
	Record(ctx context.Context, ev audit.Event) (string, error)
}

type Notifier interface {
	EmailDecision(ctx context.Context, app *models.CreditApplication) error
	TextAnalysis(ctx context.Context, app *models.CreditApplication) error
}

type Dependencies struct {
	Store      Store
	AI         Analyzer
	PIN        PinVerifier
	Audit      AuditRecorder
	Channels   Notifier
	Dispatcher *notify.Dispatcher
	Logger     logger.Logger
	Obs        *observability.Observability
	Now        func() time.Time
}

type Orchestrator struct {
	store      Store
	ai         Analyzer
	pin        PinVerifier
	audit      AuditRecorder
	channels   Notifier
	dispatcher *notify.Dispatcher
	logger     logger.Logger
	obs        *observability.Observability
	now        func() time.Time

	busy atomic.Bool

	mu         sync.RWMutex
	collection []models.Summary
	deep       map[string]*models.CreditApplication
	open       *models.CreditApplication
}

func New(deps Dependencies) *Orchestrator {
	o := &Orchestrator{
		store:      deps.Store,
		ai:         deps.AI,
		pin:        deps.PIN,
		audit:      deps.Audit,
		channels:   deps.Channels,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger.With(map[string]interface{}{"component": "workflow"}),
		obs:        deps.Obs,
		now:        deps.Now,
		deep:       make(map[string]*models.CreditApplication),
	}
	if o.obs == nil {
		o.obs = observability.NewNoop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.dispatcher == nil {
		o.dispatcher = notify.NewDispatcher(deps.Logger, 0)
	}
	return o
}

// Busy reports whether a foreground transition is running.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Dispatcher returns the runner of detached tasks.
func (o *Orchestrator) Dispatcher() *notify.Dispatcher {
	return o.dispatcher
}

// Applications returns a copy of the list view.
func (o *Orchestrator) Applications() []models.Summary {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]models.Summary, len(o.collection))
	copy(out, o.collection)
	return out
}

// Open returns a copy of the record open in the detail view, or nil.
func (o *Orchestrator) Open() *models.CreditApplication {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.open.Clone()
}

// begin claims the busy flag. The returned finish must be deferred with
// the address of the operation's error.
func (o *Orchestrator) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(*error), error) {
	if !o.busy.CompareAndSwap(false, true) {
		metrics.WorkflowTransitions.WithLabelValues(operation, "busy").Inc()
		return ctx, nil, errors.NewWorkflowBusyError(operation)
	}

	start := time.Now()
	ctx, span := o.obs.StartSpan(ctx, "workflow."+operation, attrs...)
	o.logger.Debug("Transition started", map[string]interface{}{"operation": operation})

	return ctx, func(errp *error) {
		defer o.busy.Store(false)
		o.finish(span, operation, start, *errp)
	}, nil
}

func (o *Orchestrator) finish(span trace.Span, operation string, start time.Time, err error) {
	defer span.End()

	if err == nil {
		metrics.WorkflowTransitions.WithLabelValues(operation, "success").Inc()
		span.SetStatus(codes.Ok, "")
		o.logger.Info("Transition completed", map[string]interface{}{
			"operation": operation,
			"duration":  time.Since(start).String(),
		})
		return
	}

	stdErr := errors.Normalize(err)
	metrics.WorkflowTransitions.WithLabelValues(operation, string(stdErr.Code)).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stdErr.Code))

	fields := map[string]interface{}{
		"operation": operation,
		"errorCode": stdErr.Code,
		"error":     err.Error(),
	}
	if errors.IsStaleData(err) {
		o.logger.Error("Transition rejected by store: stale data", fields)
		return
	}
	o.logger.Warn("Transition failed", fields)
}

// commit publishes app as the latest state of its record. An empty detail
// keeps the list row's current detail text.
func (o *Orchestrator) commit(app *models.CreditApplication, detail string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	summary := app.Summary()
	summary.Detail = detail
	replaced := false
	for i := range o.collection {
		if o.collection[i].ID == app.ID {
			if detail == "" {
				summary.Detail = o.collection[i].Detail
			}
			o.collection[i] = summary
			replaced = true
			break
		}
	}
	if !replaced {
		o.collection = append(o.collection, summary)
	}

	o.deep[app.ID] = app
	if o.open == nil || o.open.ID == app.ID {
		o.open = app
	}
	o.updateStatusGauge()
}

// updateStatusGauge must run under o.mu.
func (o *Orchestrator) updateStatusGauge() {
	counts := map[models.Status]int{
		models.StatusPendingAnalyst:  0,
		models.StatusPendingDirector: 0,
		models.StatusAnalyzed:        0,
		models.StatusApproved:        0,
		models.StatusDenied:          0,
	}
	for _, s := range o.collection {
		counts[s.Status]++
	}
	for status, n := range counts {
		metrics.ApplicationsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}

// lookup finds the best local copy of id: the open record, a session
// record, or a shallow record built from the list row.
func (o *Orchestrator) lookup(id string) (*models.CreditApplication, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.open != nil && o.open.ID == id {
		return o.open.Clone(), true
	}
	if app, ok := o.deep[id]; ok {
		return app.Clone(), true
	}
	for _, s := range o.collection {
		if s.ID == id {
			return models.FromSummary(s), true
		}
	}
	return nil, false
}

func (o *Orchestrator) summaryOf(id string) (models.Summary, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, s := range o.collection {
		if s.ID == id {
			return s, true
		}
	}
	return models.Summary{}, false
}

// record queues an audit event on the dispatcher.
func (o *Orchestrator) record(ev audit.Event) {
	if o.audit == nil {
		return
	}
	o.dispatcher.Go("audit", func(ctx context.Context) error {
		_, err := o.audit.Record(ctx, ev)
		return err
	})
}
