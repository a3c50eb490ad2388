package services

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/riskdesk/ews-console/pkg/apperrors"
	"github.com/riskdesk/ews-console/pkg/drafts"
	"github.com/riskdesk/ews-console/pkg/export"
	"github.com/riskdesk/ews-console/pkg/match"
	"github.com/riskdesk/ews-console/pkg/models"
	"github.com/riskdesk/ews-console/pkg/retry"
	"github.com/riskdesk/ews-console/pkg/table"
	"github.com/riskdesk/ews-console/pkg/workbook"
)

// RulesAPI is the slice of the backend client the rules workflow needs.
type RulesAPI interface {
	ListRules(ctx context.Context) ([]*models.RuleRecord, error)
	CreateRule(ctx context.Context, rec *models.RuleRecord) (*models.RuleRecord, error)
	UpdateRule(ctx context.Context, serverID string, rec *models.RuleRecord) error
	DeleteRule(ctx context.Context, serverID string) error
}

// RulesService owns the editable rulebook table and the fuzzy-match index
// over it. The index is rebuilt synchronously on every catalog change, so a
// query never observes a stale catalog.
type RulesService struct {
	api    RulesAPI
	store  *drafts.Store
	logger *zap.Logger

	table *table.Table[models.RuleRecord]
	index *match.Index
}

func NewRulesService(api RulesAPI, store *drafts.Store, logger *zap.Logger) *RulesService {
	s := &RulesService{
		api:    api,
		store:  store,
		logger: logger,
		table:  table.New[models.RuleRecord](),
	}
	s.reindex()
	return s
}

// Table exposes the editable collection for views and cell edits. Callers
// that mutate records must call Reindex afterwards.
func (s *RulesService) Table() *table.Table[models.RuleRecord] { return s.table }

// Index returns the current fuzzy-match index over the catalog.
func (s *RulesService) Index() *match.Index { return s.index }

// Rules returns the catalog records in table order.
func (s *RulesService) Rules() []*models.RuleRecord {
	rows := s.table.Rows()
	out := make([]*models.RuleRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, &row.Record)
	}
	return out
}

// Reindex rebuilds the fuzzy index. Cheap, pure, and synchronous.
func (s *RulesService) Reindex() { s.reindex() }

func (s *RulesService) reindex() {
	s.index = match.NewIndex(s.Rules())
}

// LoadCatalog replaces the table with the backend's authoritative rule set.
// Transient failures are retried; the prior table survives a failed load.
func (s *RulesService) LoadCatalog(ctx context.Context) error {
	rules, err := retry.DoWithResult(ctx, nil, func() ([]*models.RuleRecord, error) {
		return s.api.ListRules(ctx)
	})
	if err != nil {
		return fmt.Errorf("load rule catalog: %w", err)
	}

	s.replaceAll(rules)
	s.logger.Info("rule catalog loaded", zap.Int("rules", len(rules)))
	return nil
}

func (s *RulesService) replaceAll(rules []*models.RuleRecord) {
	serverIDs := make([]string, len(rules))
	records := make([]models.RuleRecord, len(rules))
	for i, r := range rules {
		serverIDs[i] = r.ServerID
		records[i] = *r
	}
	s.table.Replace(serverIDs, records)
	s.reindex()
}

// ImportWorkbook parses a rulebook spreadsheet and appends its rows to the
// table. Rows without a code get a freshly minted locally-unique one. On a
// parse failure nothing is committed.
func (s *RulesService) ImportWorkbook(r io.Reader, filename string) (int, error) {
	sheets, err := workbook.Read(r, filename)
	if err != nil {
		return 0, err
	}

	sheet := sheets[0]
	mapping := workbook.MapHeaders(sheet.Headers, workbook.RuleFields)

	imported := 0
	for _, raw := range sheet.Rows {
		rec := workbook.NormalizeRule(raw, sheet.Headers, mapping)
		if rec.Code == "" {
			rec.Code = s.nextCode()
		}
		s.table.Append(rec)
		imported++
	}

	s.reindex()
	s.logger.Info("rulebook imported",
		zap.String("file", filename),
		zap.Int("rows", imported))
	return imported, nil
}

// AddRow appends a blank rule row with a freshly minted code.
func (s *RulesService) AddRow() *table.Row[models.RuleRecord] {
	row := s.table.Append(models.RuleRecord{Code: s.nextCode()})
	s.reindex()
	return row
}

// InsertAfter inserts a blank rule row after the given row id.
func (s *RulesService) InsertAfter(id string) *table.Row[models.RuleRecord] {
	row := s.table.InsertAfter(id, models.RuleRecord{Code: s.nextCode()})
	s.reindex()
	return row
}

func (s *RulesService) nextCode() string {
	var codes []string
	for _, row := range s.table.Rows() {
		codes = append(codes, row.Record.Code)
	}
	return models.NextRuleCode(codes)
}

// Update patches one rule row and rebuilds the index.
func (s *RulesService) Update(id string, fn func(*models.RuleRecord)) bool {
	ok := s.table.Update(id, fn)
	if ok {
		s.reindex()
	}
	return ok
}

// Delete removes a rule row, calling the backend first when the row has been
// persisted.
func (s *RulesService) Delete(ctx context.Context, id string) error {
	err := s.table.Delete(ctx, id, s.api.DeleteRule)
	if err != nil {
		return err
	}
	s.reindex()
	return nil
}

// Validate runs the validation pass over the whole table.
func (s *RulesService) Validate() bool {
	return s.table.Validate((*models.RuleRecord).Validate)
}

// SaveAll validates and then batch-persists every row: updates for rows with
// a server id, creates for the rest. Partial success is accepted; the
// catalog is then reloaded so server-assigned codes replace local ones.
func (s *RulesService) SaveAll(ctx context.Context) (table.SaveResult, error) {
	if !s.Validate() {
		return table.SaveResult{}, apperrors.ErrValidation
	}

	result := s.table.SaveAll(ctx, table.SaveOps[models.RuleRecord]{
		Create: func(ctx context.Context, rec *models.RuleRecord) (string, error) {
			created, err := s.api.CreateRule(ctx, rec)
			if err != nil {
				return "", err
			}
			return created.ServerID, nil
		},
		Update: func(ctx context.Context, serverID string, rec *models.RuleRecord) error {
			return s.api.UpdateRule(ctx, serverID, rec)
		},
	}, s.logger)

	s.logger.Info("rulebook saved",
		zap.Int("saved", result.Saved),
		zap.Int("failed", result.Failed))

	if err := s.LoadCatalog(ctx); err != nil {
		// The save already happened; a failed reload only delays seeing
		// server-assigned codes.
		s.logger.Warn("catalog reload after save failed", zap.Error(err))
	}

	return result, nil
}

// Suggest returns interactive fuzzy suggestions for free text.
func (s *RulesService) Suggest(text string) []match.Candidate {
	return s.index.Query(text, match.DefaultSuggestions)
}

// FilterCatalog is the manual-override lookup: plain substring, no fuzz.
func (s *RulesService) FilterCatalog(query string) []*models.RuleRecord {
	return match.FilterSubstring(s.Rules(), query)
}

// SaveDraft stores the current table under the fixed rules draft key,
// overwriting any prior draft.
func (s *RulesService) SaveDraft(ctx context.Context) error {
	return s.store.Save(ctx, drafts.KeyRules, s.table.Snapshot())
}

// LoadDraft restores the table from the stored draft, minting fresh
// client-local ids. Returns false when no draft exists.
func (s *RulesService) LoadDraft(ctx context.Context) (bool, error) {
	var snap table.Snapshot[models.RuleRecord]
	ok, err := s.store.Load(ctx, drafts.KeyRules, &snap)
	if err != nil || !ok {
		return ok, err
	}
	s.table.Restore(snap)
	s.reindex()
	return true, nil
}

// ClearDraft drops both the in-memory table and the stored draft.
func (s *RulesService) ClearDraft(ctx context.Context) error {
	s.table.Clear()
	s.reindex()
	return s.store.Clear(ctx, drafts.KeyRules)
}

// Export writes the table as a CSV artifact. Stored state is unaffected.
func (s *RulesService) Export(w io.Writer) error {
	return export.Rules(w, s.table.Rows())
}
