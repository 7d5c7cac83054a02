// Package audit appends decision events to a Postgres table. Writes are
// best effort: a failure is reported to the caller but never undoes the
// decision it describes.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/common/logger"

	"github.com/google/uuid"
)

const (
	EventApplicationSubmitted = "application_submitted"
	EventAnalysisCompleted    = "analysis_completed"
	EventApplicationApproved  = "application_approved"
	EventApplicationDenied    = "application_denied"
	EventIdentityOverride     = "identity_override"
	EventPinRotated           = "director_pin_rotated"
)

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// Event is one row of the audit log.
type Event struct {
	Type          string
	ApplicationID string
	Status        string
	Details       map[string]interface{}
}

// Recorder persists events. The zero value is disabled.
type Recorder struct {
	db     *sql.DB
	table  string
	logger logger.Logger
	now    func() time.Time
}

func NewRecorder(db *sql.DB, table string, log logger.Logger) (*Recorder, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid audit table name %q", table)
	}
	return &Recorder{db: db, table: table, logger: log, now: time.Now}, nil
}

// Enabled reports whether events are written anywhere.
func (r *Recorder) Enabled() bool {
	return r != nil && r.db != nil
}

// Record inserts ev and returns its generated id.
func (r *Recorder) Record(ctx context.Context, ev Event) (string, error) {
	if !r.Enabled() {
		return "", nil
	}

	details, err := json.Marshal(ev.Details)
	if err != nil {
		return "", errors.NewAuditInsertFailedError(err)
	}

	id := uuid.New().String()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, event_type, application_id, status, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, r.table)

	if _, err := r.db.ExecContext(ctx, query, id, ev.Type, ev.ApplicationID, ev.Status, details, r.now().UTC()); err != nil {
		r.logger.Error("Audit insert failed", map[string]interface{}{
			"eventType":     ev.Type,
			"applicationId": ev.ApplicationID,
			"error":         err.Error(),
		})
		return "", errors.NewAuditInsertFailedError(err)
	}

	r.logger.Debug("Audit event recorded", map[string]interface{}{
		"eventId":       id,
		"eventType":     ev.Type,
		"applicationId": ev.ApplicationID,
	})
	return id, nil
}
