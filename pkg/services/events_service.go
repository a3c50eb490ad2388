package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/riskdesk/ews-console/pkg/alerts"
	"github.com/riskdesk/ews-console/pkg/apperrors"
	"github.com/riskdesk/ews-console/pkg/drafts"
	"github.com/riskdesk/ews-console/pkg/export"
	"github.com/riskdesk/ews-console/pkg/logging"
	"github.com/riskdesk/ews-console/pkg/match"
	"github.com/riskdesk/ews-console/pkg/models"
	"github.com/riskdesk/ews-console/pkg/retry"
	"github.com/riskdesk/ews-console/pkg/table"
	"github.com/riskdesk/ews-console/pkg/workbook"
)

// EventsAPI is the slice of the backend client the events workflow needs.
type EventsAPI interface {
	ListEvents(ctx context.Context) ([]*models.EventRecord, error)
	CreateEvent(ctx context.Context, rec *models.EventRecord) (*models.EventRecord, error)
	UpdateEvent(ctx context.Context, serverID string, rec *models.EventRecord) error
	DeleteEvent(ctx context.Context, serverID string) error
	CreateAlerts(ctx context.Context, payloads []models.AlertPayload) ([]*models.Alert, error)
}

// Catalog is the rule-catalog view the matcher consumes; RulesService
// implements it.
type Catalog interface {
	Index() *match.Index
	Rules() []*models.RuleRecord
}

// ImportStats summarizes a bulk event import by confidence tier.
type ImportStats struct {
	Rows          int
	Matched       int
	LowConfidence int
	Unmatched     int
}

// SaveOutcome is the aggregate report of an event save: rows persisted, rows
// failed, and alerts raised from the matched rows afterwards.
type SaveOutcome struct {
	table.SaveResult
	AlertsCreated int
}

// EventsService owns the editable event table for both sheet partitions and
// drives auto-matching against the rule catalog.
type EventsService struct {
	api     EventsAPI
	catalog Catalog
	store   *drafts.Store
	logger  *zap.Logger

	table *table.Table[models.EventRecord]
}

func NewEventsService(api EventsAPI, catalog Catalog, store *drafts.Store, logger *zap.Logger) *EventsService {
	return &EventsService{
		api:     api,
		catalog: catalog,
		store:   store,
		logger:  logger,
		table:   table.New[models.EventRecord](),
	}
}

// Table exposes the editable collection for views and cell edits.
func (s *EventsService) Table() *table.Table[models.EventRecord] { return s.table }

// ImportWorkbook parses an event log and appends its rows, auto-matching
// each against the catalog. The first worksheet feeds the "new" partition,
// the second feeds "old"; further sheets are ignored. A parse failure
// commits nothing.
func (s *EventsService) ImportWorkbook(r io.Reader, filename string) (ImportStats, error) {
	sheets, err := workbook.Read(r, filename)
	if err != nil {
		return ImportStats{}, err
	}
	if len(sheets) > 2 {
		sheets = sheets[:2]
	}

	var stats ImportStats
	for i, sheet := range sheets {
		mapping := workbook.MapHeaders(sheet.Headers, workbook.EventFields)
		origin := workbook.SheetOrigin(i)

		for _, raw := range sheet.Rows {
			rec := workbook.NormalizeEvent(raw, mapping, origin)
			s.autoMatch(&rec)
			s.table.Append(rec)

			stats.Rows++
			switch rec.MatchTier {
			case models.TierMatched:
				stats.Matched++
			case models.TierLowConfidence:
				stats.LowConfidence++
			default:
				stats.Unmatched++
			}
		}
	}

	s.logger.Info("event log imported",
		zap.String("file", filename),
		zap.Int("rows", stats.Rows),
		zap.Int("matched", stats.Matched),
		zap.Int("low_confidence", stats.LowConfidence),
		zap.Int("unmatched", stats.Unmatched))
	return stats, nil
}

// autoMatch classifies one row against the catalog. Only a "matched" tier
// applies the rule's fields; a low-confidence candidate is recorded as tier
// and score but needs a human override before it drives anything.
func (s *EventsService) autoMatch(rec *models.EventRecord) {
	candidate, tier := s.catalog.Index().Best(rec.ReportedChangeText)
	if candidate == nil {
		rec.MatchTier = models.TierUnmatched
		rec.MatchScore = nil
		rec.MatchedRule = nil
		return
	}

	if tier == models.TierMatched {
		d := candidate.Distance
		rec.ApplyRule(candidate.Rule, tier, &d)
		return
	}

	d := candidate.Distance
	rec.MatchTier = tier
	rec.MatchScore = &d
	rec.MatchedRule = nil
}

// MatchAll re-runs auto-matching over every row, e.g. after a catalog
// reload. Rows a reviewer already matched manually are left alone.
func (s *EventsService) MatchAll() {
	for _, row := range s.table.Rows() {
		if row.Record.MatchTier == models.TierMatched && row.Record.MatchScore == nil {
			continue // manual match
		}
		s.autoMatch(&row.Record)
	}
}

// ApplyManualMatch applies a reviewer-chosen rule to a row, bypassing the
// distance budget. The canonical phrasing overwrites the operator's text.
func (s *EventsService) ApplyManualMatch(rowID string, rule *models.RuleRecord) bool {
	return s.table.Update(rowID, func(rec *models.EventRecord) {
		rec.ApplyRule(rule, models.TierMatched, nil)
	})
}

// ClearMatch resets a row to unmatched ("no rule" in the manual override).
func (s *EventsService) ClearMatch(rowID string) bool {
	return s.table.Update(rowID, func(rec *models.EventRecord) {
		rec.ClearMatch()
	})
}

// Suggest returns the interactive fuzzy suggestion list for a row's text.
func (s *EventsService) Suggest(text string) []match.Candidate {
	return s.catalog.Index().Query(text, match.DefaultSuggestions)
}

// Validate runs the validation pass over the whole table.
func (s *EventsService) Validate() bool {
	return s.table.Validate((*models.EventRecord).Validate)
}

// SaveAll validates, batch-persists every row, reloads the authoritative
// collection, and then raises alerts from the rows carrying a matched rule.
// The alert call is independent: its failure is reported as zero alerts
// created, never undoing saved events. Rows that already produced an alert
// are flagged so a re-save of an unchanged draft raises nothing twice.
func (s *EventsService) SaveAll(ctx context.Context) (SaveOutcome, error) {
	if !s.Validate() {
		return SaveOutcome{}, apperrors.ErrValidation
	}

	result := s.table.SaveAll(ctx, table.SaveOps[models.EventRecord]{
		Create: func(ctx context.Context, rec *models.EventRecord) (string, error) {
			created, err := s.api.CreateEvent(ctx, rec)
			if err != nil {
				return "", err
			}
			return created.ServerID, nil
		},
		Update: func(ctx context.Context, serverID string, rec *models.EventRecord) error {
			return s.api.UpdateEvent(ctx, serverID, rec)
		},
	}, s.logger)

	outcome := SaveOutcome{SaveResult: result}

	// Reload only after a fully clean save; a partial failure keeps the
	// working table so the failed rows stay visible for a retry.
	if result.Failed == 0 {
		if err := s.reload(ctx); err != nil {
			s.logger.Warn("event reload after save failed", zap.Error(err))
		}
	}

	payloads := alerts.Project(s.table.Rows(), time.Now().UTC())
	if len(payloads) > 0 {
		created, err := s.api.CreateAlerts(ctx, payloads)
		if err != nil {
			s.logger.Warn("alert creation failed",
				zap.Int("payloads", len(payloads)),
				zap.String("error", logging.SanitizeError(err)))
		} else {
			outcome.AlertsCreated = len(created)
			s.markAlerted()
		}
	}

	s.logger.Info("events saved",
		zap.Int("saved", outcome.Saved),
		zap.Int("failed", outcome.Failed),
		zap.Int("alerts_created", outcome.AlertsCreated))
	return outcome, nil
}

// reload replaces the table with the backend's authoritative event
// collection. Transient failures are retried; the working table survives a
// failed reload.
func (s *EventsService) reload(ctx context.Context) error {
	events, err := retry.DoWithResult(ctx, nil, func() ([]*models.EventRecord, error) {
		return s.api.ListEvents(ctx)
	})
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	serverIDs := make([]string, len(events))
	records := make([]models.EventRecord, len(events))
	for i, e := range events {
		serverIDs[i] = e.ServerID
		records[i] = *e
	}
	s.table.Replace(serverIDs, records)
	return nil
}

// markAlerted flags the rows that just projected into alert payloads. The
// flag rides along in drafts and saved records, so the same predicate that
// selected the payloads selects the rows to mark.
func (s *EventsService) markAlerted() {
	for _, row := range s.table.Rows() {
		if row.Record.MatchedRule != nil && !row.Record.AlertRaised {
			row.Record.AlertRaised = true
		}
	}
}

// Delete removes an event row, calling the backend first when the row has
// been persisted.
func (s *EventsService) Delete(ctx context.Context, id string) error {
	return s.table.Delete(ctx, id, s.api.DeleteEvent)
}

// View filters the table by free text and categorical values and slices the
// requested page, clamping the page number into range.
func (s *EventsService) View(query, flag, trigger string, page, size int) table.Page[models.EventRecord] {
	filtered := s.table.Filter(func(row *table.Row[models.EventRecord]) bool {
		return row.Record.MatchesQuery(query) &&
			row.Record.MatchesFlag(flag) &&
			row.Record.MatchesTrigger(trigger)
	})
	return table.Paginate(filtered, page, size)
}

// SaveDraft stores both sheet partitions under the fixed events draft key.
func (s *EventsService) SaveDraft(ctx context.Context) error {
	return s.store.Save(ctx, drafts.KeyEvents, s.table.Snapshot())
}

// LoadDraft restores the table from the stored draft with fresh client ids.
func (s *EventsService) LoadDraft(ctx context.Context) (bool, error) {
	var snap table.Snapshot[models.EventRecord]
	ok, err := s.store.Load(ctx, drafts.KeyEvents, &snap)
	if err != nil || !ok {
		return ok, err
	}
	s.table.Restore(snap)
	return true, nil
}

// ClearDraft drops both the in-memory table and the stored draft.
func (s *EventsService) ClearDraft(ctx context.Context) error {
	s.table.Clear()
	return s.store.Clear(ctx, drafts.KeyEvents)
}

// Export writes the table as a CSV artifact. Export cannot fail the
// workflow; callers surface I/O errors without touching state.
func (s *EventsService) Export(w io.Writer) error {
	if err := export.Events(w, s.table.Rows()); err != nil {
		return fmt.Errorf("export events: %w", err)
	}
	return nil
}
