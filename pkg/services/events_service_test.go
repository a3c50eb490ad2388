package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/riskdesk/ews-console/pkg/apperrors"
	"github.com/riskdesk/ews-console/pkg/drafts"
	"github.com/riskdesk/ews-console/pkg/match"
	"github.com/riskdesk/ews-console/pkg/models"
)

type fakeEventsAPI struct {
	listFn         func() ([]*models.EventRecord, error)
	createFn       func(rec *models.EventRecord) (*models.EventRecord, error)
	updateFn       func(serverID string, rec *models.EventRecord) error
	deleteFn       func(serverID string) error
	createAlertsFn func(payloads []models.AlertPayload) ([]*models.Alert, error)
}

func (f *fakeEventsAPI) ListEvents(ctx context.Context) ([]*models.EventRecord, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn()
}

func (f *fakeEventsAPI) CreateEvent(ctx context.Context, rec *models.EventRecord) (*models.EventRecord, error) {
	if f.createFn == nil {
		return &models.EventRecord{ServerID: "created"}, nil
	}
	return f.createFn(rec)
}

func (f *fakeEventsAPI) UpdateEvent(ctx context.Context, serverID string, rec *models.EventRecord) error {
	if f.updateFn == nil {
		return nil
	}
	return f.updateFn(serverID, rec)
}

func (f *fakeEventsAPI) DeleteEvent(ctx context.Context, serverID string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(serverID)
}

func (f *fakeEventsAPI) CreateAlerts(ctx context.Context, payloads []models.AlertPayload) ([]*models.Alert, error) {
	if f.createAlertsFn == nil {
		alerts := make([]*models.Alert, len(payloads))
		for i := range payloads {
			alerts[i] = &models.Alert{ID: "a" + string(rune('1'+i)), Status: models.AlertStatusPending}
		}
		return alerts, nil
	}
	return f.createAlertsFn(payloads)
}

type fakeCatalog struct {
	rules []*models.RuleRecord
}

func (f *fakeCatalog) Index() *match.Index         { return match.NewIndex(f.rules) }
func (f *fakeCatalog) Rules() []*models.RuleRecord { return f.rules }

func testCatalog() *fakeCatalog {
	return &fakeCatalog{rules: []*models.RuleRecord{
		{ServerID: "r1", Code: "R-1", ReportedChangeText: "Resignation of Statutory Auditor",
			Severity: "High", PrimaryAction: "escalate", TurnaroundDays: "5"},
		{ServerID: "r2", Code: "R-2", ReportedChangeText: "Default on term loan repayment",
			Severity: "High", TurnaroundDays: "2"},
	}}
}

func newEventsService(t *testing.T, api *fakeEventsAPI) *EventsService {
	t.Helper()
	store, err := drafts.Open(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewEventsService(api, testCatalog(), store, zap.NewNop())
}

const eventCSV = "Company Name,Reported Change,Event Date,Flag\n" +
	"Acme Ltd,Resignation of Statutory Auditor,07/03/2024,red\n" +
	"Globex Corp,resignation of auditor,2024-03-08,amber\n" +
	"Initech,annual general meeting rescheduled,2024-03-09,\n"

func TestEventsImport_AutoMatchTiers(t *testing.T) {
	svc := newEventsService(t, &fakeEventsAPI{})

	stats, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Rows: 3, Matched: 1, LowConfidence: 1, Unmatched: 1}, stats)

	rows := svc.Table().Rows()
	require.Len(t, rows, 3)

	matched := rows[0].Record
	assert.Equal(t, models.TierMatched, matched.MatchTier)
	require.NotNil(t, matched.MatchedRule)
	assert.Equal(t, "R-1", matched.MatchedRule.Code)
	assert.Equal(t, "escalate", matched.PrimaryAction, "matched tier applies rule fields")
	assert.Equal(t, models.SeverityHigh, matched.Severity)

	low := rows[1].Record
	assert.Equal(t, models.TierLowConfidence, low.MatchTier)
	require.NotNil(t, low.MatchScore)
	assert.Nil(t, low.MatchedRule, "low confidence records a score but applies nothing")
	assert.Equal(t, "resignation of auditor", low.ReportedChangeText, "operator text untouched")

	unmatched := rows[2].Record
	assert.Equal(t, models.TierUnmatched, unmatched.MatchTier)
	assert.Nil(t, unmatched.MatchScore)
}

func TestEventsImport_SheetPartitions(t *testing.T) {
	// CSV yields a single sheet, which lands in the "new" partition.
	svc := newEventsService(t, &fakeEventsAPI{})
	_, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)

	for _, row := range svc.Table().Rows() {
		assert.Equal(t, models.SheetOriginNew, row.Record.SheetOrigin)
	}
}

func TestEventsImport_ParseFailureCommitsNothing(t *testing.T) {
	svc := newEventsService(t, &fakeEventsAPI{})

	_, err := svc.ImportWorkbook(strings.NewReader("not a workbook"), "bad.xlsx")
	require.Error(t, err)

	var parseErr *apperrors.ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Zero(t, svc.Table().Len())
}

func TestApplyManualMatch(t *testing.T) {
	svc := newEventsService(t, &fakeEventsAPI{})
	_, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)

	low := svc.Table().Rows()[1]
	rule := testCatalog().rules[0]

	require.True(t, svc.ApplyManualMatch(low.ID, rule))
	assert.Equal(t, models.TierMatched, low.Record.MatchTier)
	assert.Nil(t, low.Record.MatchScore, "manual matches carry no distance")
	assert.Equal(t, rule.ReportedChangeText, low.Record.ReportedChangeText,
		"canonical phrasing overwrites the transcription")

	require.True(t, svc.ClearMatch(low.ID))
	assert.Equal(t, models.TierUnmatched, low.Record.MatchTier)
	assert.Nil(t, low.Record.MatchedRule)
}

func TestMatchAll_SkipsManualMatches(t *testing.T) {
	svc := newEventsService(t, &fakeEventsAPI{})
	_, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)

	unmatchedRow := svc.Table().Rows()[2]
	manual := testCatalog().rules[1]
	require.True(t, svc.ApplyManualMatch(unmatchedRow.ID, manual))

	svc.MatchAll()

	assert.Equal(t, models.TierMatched, unmatchedRow.Record.MatchTier,
		"rematch must not clobber a reviewer's manual match")
	assert.Equal(t, manual.ReportedChangeText, unmatchedRow.Record.ReportedChangeText)
}

func TestEventsSaveAll_ValidationGate(t *testing.T) {
	svc := newEventsService(t, &fakeEventsAPI{
		createFn: func(rec *models.EventRecord) (*models.EventRecord, error) {
			t.Fatal("no remote call may happen while validation fails")
			return nil, nil
		},
	})

	svc.Table().Append(models.EventRecord{Company: "Acme"}) // missing reported change

	_, err := svc.SaveAll(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.NotEmpty(t, svc.Table().Rows()[0].Errors)
}

func TestEventsSaveAll_CreatesAlertsFromMatchedRows(t *testing.T) {
	var alertPayloads []models.AlertPayload
	var stored []*models.EventRecord
	api := &fakeEventsAPI{
		createFn: func(rec *models.EventRecord) (*models.EventRecord, error) {
			saved := *rec
			saved.ServerID = "e-" + rec.Company
			stored = append(stored, &saved)
			return &saved, nil
		},
		listFn: func() ([]*models.EventRecord, error) { return stored, nil },
		createAlertsFn: func(payloads []models.AlertPayload) ([]*models.Alert, error) {
			alertPayloads = payloads
			alerts := make([]*models.Alert, len(payloads))
			for i := range payloads {
				alerts[i] = &models.Alert{ID: fmt.Sprintf("a%d", i+1)}
			}
			return alerts, nil
		},
	}
	svc := newEventsService(t, api)

	_, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)

	outcome, err := svc.SaveAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Saved)
	assert.Zero(t, outcome.Failed)
	assert.Equal(t, 1, outcome.AlertsCreated, "only the matched row projects an alert")
	require.Len(t, alertPayloads, 1)
	assert.Equal(t, "Acme Ltd", alertPayloads[0].Company)
	assert.Equal(t, models.AlertStatusPending, alertPayloads[0].Status)

	assert.Equal(t, "e-Acme Ltd", svc.Table().Rows()[0].ServerID)
}

func TestEventsSaveAll_AlertFailureKeepsSaves(t *testing.T) {
	var stored []*models.EventRecord
	api := &fakeEventsAPI{
		createFn: func(rec *models.EventRecord) (*models.EventRecord, error) {
			saved := *rec
			saved.ServerID = fmt.Sprintf("e%d", len(stored)+1)
			stored = append(stored, &saved)
			return &saved, nil
		},
		listFn: func() ([]*models.EventRecord, error) { return stored, nil },
		createAlertsFn: func(payloads []models.AlertPayload) ([]*models.Alert, error) {
			return nil, errors.New("status 503: unavailable")
		},
	}
	svc := newEventsService(t, api)

	_, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)

	outcome, err := svc.SaveAll(context.Background())
	require.NoError(t, err, "alert failure never fails the save")
	assert.Equal(t, 3, outcome.Saved)
	assert.Zero(t, outcome.AlertsCreated)
	assert.False(t, svc.Table().Rows()[0].Record.AlertRaised,
		"a failed alert call leaves the row eligible for the next save")
}

func TestEventsSaveAll_ReloadsFromBackend(t *testing.T) {
	var stored []*models.EventRecord
	api := &fakeEventsAPI{
		createFn: func(rec *models.EventRecord) (*models.EventRecord, error) {
			saved := *rec
			saved.ServerID = fmt.Sprintf("e%d", len(stored)+1)
			saved.Description = "enriched by backend"
			stored = append(stored, &saved)
			return &saved, nil
		},
		listFn: func() ([]*models.EventRecord, error) { return stored, nil },
	}
	svc := newEventsService(t, api)

	_, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)

	_, err = svc.SaveAll(context.Background())
	require.NoError(t, err)

	rows := svc.Table().Rows()
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, fmt.Sprintf("e%d", i+1), row.ServerID)
		assert.Equal(t, "enriched by backend", row.Record.Description,
			"a clean save swaps the table for the backend's copy")
	}
}

func TestEventsSaveAll_SecondSaveDoesNotDuplicateAlerts(t *testing.T) {
	stored := map[string]*models.EventRecord{}
	var order []string
	updates := 0
	api := &fakeEventsAPI{
		createFn: func(rec *models.EventRecord) (*models.EventRecord, error) {
			saved := *rec
			saved.ServerID = fmt.Sprintf("e%d", len(stored)+1)
			stored[saved.ServerID] = &saved
			order = append(order, saved.ServerID)
			return &saved, nil
		},
		updateFn: func(serverID string, rec *models.EventRecord) error {
			updates++
			saved := *rec
			saved.ServerID = serverID
			stored[serverID] = &saved
			return nil
		},
		listFn: func() ([]*models.EventRecord, error) {
			out := make([]*models.EventRecord, 0, len(order))
			for _, id := range order {
				out = append(out, stored[id])
			}
			return out, nil
		},
	}
	svc := newEventsService(t, api)

	_, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)

	first, err := svc.SaveAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.AlertsCreated)
	assert.True(t, svc.Table().Rows()[0].Record.AlertRaised)

	second, err := svc.SaveAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.AlertsCreated, "re-saving an unchanged table raises nothing")
	assert.Equal(t, 3, second.Saved)
	assert.Equal(t, 3, updates, "the second pass updates every persisted row")
}

func TestEventsSaveAll_PartialFailure(t *testing.T) {
	calls := 0
	api := &fakeEventsAPI{
		createFn: func(rec *models.EventRecord) (*models.EventRecord, error) {
			calls++
			if calls == 2 {
				return nil, errors.New("status 500: internal")
			}
			return &models.EventRecord{ServerID: fmt.Sprintf("e%d", calls)}, nil
		},
	}
	svc := newEventsService(t, api)

	_, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)

	outcome, err := svc.SaveAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Saved)
	assert.Equal(t, 1, outcome.Failed)

	rows := svc.Table().Rows()
	assert.NotEmpty(t, rows[0].ServerID)
	assert.Empty(t, rows[1].ServerID, "failed row stays unpersisted for a retry")
	assert.NotEmpty(t, rows[2].ServerID)
}

func TestEventsView_FilterAndPaginate(t *testing.T) {
	svc := newEventsService(t, &fakeEventsAPI{})
	_, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)

	page := svc.View("", "", "", 1, 2)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.PageCount)
	assert.Len(t, page.Rows, 2)

	page = svc.View("globex", "", "", 1, 25)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Globex Corp", page.Rows[0].Record.Company)

	page = svc.View("", "red", "", 1, 25)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Acme Ltd", page.Rows[0].Record.Company)

	// Page clamps rather than rendering empty.
	page = svc.View("", "", "", 99, 2)
	assert.Equal(t, 2, page.Number)
}

func TestEventsDraftRoundTrip(t *testing.T) {
	svc := newEventsService(t, &fakeEventsAPI{})
	ctx := context.Background()

	_, err := svc.ImportWorkbook(strings.NewReader(eventCSV), "events.csv")
	require.NoError(t, err)
	require.NoError(t, svc.SaveDraft(ctx))

	svc.Table().Clear()
	found, err := svc.LoadDraft(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, svc.Table().Len())

	require.NoError(t, svc.ClearDraft(ctx))
	assert.Zero(t, svc.Table().Len())

	found, err = svc.LoadDraft(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEventsDelete(t *testing.T) {
	var deleted []string
	svc := newEventsService(t, &fakeEventsAPI{
		deleteFn: func(serverID string) error {
			deleted = append(deleted, serverID)
			return nil
		},
	})

	local := svc.Table().Append(models.EventRecord{Company: "Local"})
	persisted := svc.Table().AppendExisting("e9", models.EventRecord{Company: "Remote"})

	require.NoError(t, svc.Delete(context.Background(), local.ID))
	require.NoError(t, svc.Delete(context.Background(), persisted.ID))

	assert.Equal(t, []string{"e9"}, deleted, "only persisted rows hit the backend")
	assert.Zero(t, svc.Table().Len())
}
