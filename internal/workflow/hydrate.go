package workflow

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/credit/format"
	"credit-workflow/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	limitPattern = regexp.MustCompile(`(?:limit|limite|cupo)(?:\s+aprobado)?\s*:?\s*\$?\s*([0-9][0-9.,]*)`)
	termPattern  = regexp.MustCompile(`(?:term|plazo)\s*:?\s*([0-9]+)`)
)

// LoadFull opens the detail view of id. The stored snapshot is merged
// with the list row, which stays authoritative for id and status. Without
// a snapshot the session copy, or else the list row, is used.
func (o *Orchestrator) LoadFull(ctx context.Context, id string) (app *models.CreditApplication, err error) {
	ctx, finish, err := o.begin(ctx, "load_full", attribute.String("application.id", id))
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	summary, ok := o.summaryOf(id)
	if !ok {
		return nil, errors.NewRecordNotFoundError(id)
	}

	var full *models.CreditApplication
	if summary.FolderID != "" {
		full, err = o.store.LoadState(ctx, summary.FolderID)
		if err != nil {
			o.logger.Warn("Snapshot unavailable, using local record", map[string]interface{}{
				"applicationId": id,
				"error":         err.Error(),
			})
			full, err = nil, nil
		}
	}

	var merged *models.CreditApplication
	switch {
	case full != nil:
		merged = models.MergeAuthoritative(summary, full)
	default:
		o.mu.RLock()
		session, ok := o.deep[id]
		o.mu.RUnlock()
		if ok {
			merged = session.Clone()
			merged.Status = summary.Status
		} else {
			merged = models.FromSummary(summary)
		}
	}

	o.mu.Lock()
	o.open = merged
	if merged.Deep() {
		o.deep[id] = merged
	}
	o.mu.Unlock()

	return merged.Clone(), nil
}

// hydrate swaps a list-only record for its stored snapshot merged with the
// list row, so a later SaveState cannot overwrite the snapshot with list
// fields. The list record is kept only when the folder has no snapshot.
func (o *Orchestrator) hydrate(ctx context.Context, current *models.CreditApplication) (*models.CreditApplication, error) {
	if current.Source != models.SourceSummary || current.RemoteFolderID == "" {
		return current, nil
	}
	summary, ok := o.summaryOf(current.ID)
	if !ok {
		return current, nil
	}
	full, err := o.store.LoadState(ctx, current.RemoteFolderID)
	if err != nil {
		return nil, err
	}
	if full == nil {
		return current, nil
	}
	return models.MergeAuthoritative(summary, full), nil
}

// Refresh replaces the list view with the store's rows. Session records
// are dropped except the one open in the detail view.
func (o *Orchestrator) Refresh(ctx context.Context) (n int, err error) {
	ctx, finish, err := o.begin(ctx, "refresh")
	if err != nil {
		return 0, err
	}
	defer finish(&err)

	rows, err := o.store.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	for i := range rows {
		limit, term := ParseDetail(rows[i].Detail)
		if rows[i].ApprovedLimit == nil {
			rows[i].ApprovedLimit = limit
		}
		if rows[i].ApprovedTerm == nil {
			rows[i].ApprovedTerm = term
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.collection = rows
	o.deep = make(map[string]*models.CreditApplication)
	if o.open != nil && o.open.Deep() {
		o.deep[o.open.ID] = o.open
	}
	o.updateStatusGauge()

	o.logger.Info("Applications refreshed", map[string]interface{}{"count": len(rows)})
	return len(rows), nil
}

// ParseDetail reads the approved limit and term back from a sheet detail
// line such as "Limit: $ 150.000.000 - Term: 45 days" or its Spanish form
// "Cupo: $ 150.000.000 - Plazo: 45 días".
func ParseDetail(detail string) (*float64, *int) {
	text := foldAccents(strings.ToLower(detail))

	var limit *float64
	if m := limitPattern.FindStringSubmatch(text); m != nil {
		if v, err := format.ParseAmount(m[1]); err == nil {
			limit = &v
		}
	}
	var term *int
	if m := termPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			term = &v
		}
	}
	return limit, term
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
