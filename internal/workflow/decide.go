package workflow

import (
	"context"
	"fmt"
	"strings"

	"credit-workflow/internal/audit"
	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/credit/format"
	"credit-workflow/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DeniedDetail           = "Credit denied"
	defaultRejectionReason = "The application does not meet the credit policy."
)

// Decision is the director's verdict.
type Decision struct {
	ID      string
	Approve bool
	// Limit and TermDays apply to approvals only.
	Limit    float64
	TermDays int
	PIN      string
	// ConfirmOverride accepts a limit above the liberal bound.
	ConfirmOverride bool
}

// Decide approves or denies an analyzed application. Persistence and
// notifications run detached once the decision is committed locally.
func (o *Orchestrator) Decide(ctx context.Context, d Decision) (app *models.CreditApplication, err error) {
	ctx, finish, err := o.begin(ctx, "decide",
		attribute.String("application.id", d.ID), attribute.Bool("approve", d.Approve))
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	if err := o.pin.Verify(ctx, d.PIN); err != nil {
		return nil, err
	}

	current, err := o.deepRecord(d.ID)
	if err != nil {
		return nil, err
	}

	target := models.StatusDenied
	if d.Approve {
		target = models.StatusApproved
	}
	if !models.CanTransition(current.Status, target) {
		return nil, errors.NewInvalidTransitionError(string(current.Status), string(target))
	}

	next := current.Clone()
	next.Status = target
	next.Source = models.SourceSession

	var detail string
	if d.Approve {
		if d.Limit <= 0 || d.TermDays <= 0 {
			return nil, errors.NewValidationError("approved limit and term must be positive")
		}
		if next.Limit != nil && d.Limit > next.Limit.Liberal && !d.ConfirmOverride {
			return nil, errors.NewOverrideConfirmationError(d.Limit, next.Limit.Liberal)
		}
		limit, term := d.Limit, d.TermDays
		next.ApprovedLimit = &limit
		next.ApprovedTerm = &term
		next.RejectionReason = ""
		detail = ApprovalDetail(limit, term)
	} else {
		zeroLimit, zeroTerm := 0.0, 0
		next.ApprovedLimit = &zeroLimit
		next.ApprovedTerm = &zeroTerm
		next.RejectionReason = rejectionReason(next.AIResult)
		detail = DeniedDetail
	}

	o.commit(next, detail)

	published := next.Clone()
	o.dispatcher.Go("save_state", func(ctx context.Context) error {
		return o.store.SaveState(ctx, published)
	})
	o.dispatcher.Go("update_sheet", func(ctx context.Context) error {
		return o.store.UpdateSheet(ctx, sheetUpdate(published, detail))
	})
	if o.channels != nil {
		o.dispatcher.Go("email", func(ctx context.Context) error {
			return o.channels.EmailDecision(ctx, published)
		})
	}

	event := audit.Event{
		Type:          audit.EventApplicationDenied,
		ApplicationID: next.ID,
		Status:        string(next.Status),
		Details:       map[string]interface{}{"reason": next.RejectionReason},
	}
	if d.Approve {
		event.Type = audit.EventApplicationApproved
		event.Details = map[string]interface{}{
			"approvedLimit": d.Limit,
			"approvedTerm":  d.TermDays,
			"override":      next.Limit != nil && d.Limit > next.Limit.Liberal,
		}
	}
	o.record(event)

	return next.Clone(), nil
}

// RotatePIN changes the director PIN.
func (o *Orchestrator) RotatePIN(ctx context.Context, currentPIN, newPIN string) (err error) {
	ctx, finish, err := o.begin(ctx, "rotate_pin")
	if err != nil {
		return err
	}
	defer finish(&err)

	if err := o.pin.Rotate(ctx, currentPIN, newPIN); err != nil {
		return err
	}
	o.record(audit.Event{Type: audit.EventPinRotated})
	return nil
}

// deepRecord returns the full record for id. A record known only from the
// list view cannot be decided: saving it would drop the analysis.
func (o *Orchestrator) deepRecord(id string) (*models.CreditApplication, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.open != nil && o.open.ID == id && o.open.Deep() {
		return o.open.Clone(), nil
	}
	if app, ok := o.deep[id]; ok && app.Deep() {
		return app.Clone(), nil
	}
	for _, s := range o.collection {
		if s.ID == id {
			return nil, errors.NewShallowRecordError(id)
		}
	}
	if o.open != nil && o.open.ID == id {
		return nil, errors.NewShallowRecordError(id)
	}
	return nil, errors.NewRecordNotFoundError(id)
}

// ApprovalDetail is the sheet detail line of an approval.
func ApprovalDetail(limit float64, termDays int) string {
	return fmt.Sprintf("Limit: %s - Term: %d days", format.Currency(limit), termDays)
}

func rejectionReason(result *models.AIResult) string {
	if result == nil {
		return defaultRejectionReason
	}
	var flags []string
	for _, f := range result.Flags.Red {
		if f = strings.TrimSpace(f); f != "" {
			flags = append(flags, f)
		}
	}
	if len(flags) == 0 {
		return defaultRejectionReason
	}
	return strings.Join(flags, "; ")
}
