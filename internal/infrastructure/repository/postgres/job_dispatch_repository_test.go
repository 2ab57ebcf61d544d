package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/prediction-league/internal/platform/querybuilder"
)

func TestDispatchRow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 17, 9, 0, 0, 0, time.UTC)

	sent, err := dispatchRow(jobscheduler.DispatchEvent{
		DispatchID: " scoring-lg-1 ",
		JobName:    jobscheduler.JobScoring,
		JobPath:    jobscheduler.PathScoring,
		LeagueID:   "lg-1",
		Status:     jobscheduler.StatusSent,
		Payload:    map[string]any{"league_id": "lg-1"},
		TraceID:    "abc",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "scoring-lg-1", sent.DispatchID)
	assert.Equal(t, 1, sent.Attempts)
	assert.Nil(t, sent.FinishedAt)
	if sent.SentAt == nil || !sent.SentAt.Equal(now) {
		t.Fatalf("unexpected sent_at: got=%v want=%v", sent.SentAt, now)
	}
	assert.JSONEq(t, `{"league_id":"lg-1"}`, sent.Payload)

	failed, err := dispatchRow(jobscheduler.DispatchEvent{
		DispatchID:   "price_refresh-all",
		Status:       jobscheduler.StatusFailed,
		ErrorMessage: "gamma unavailable",
		OccurredAt:   now.Add(time.Minute),
	}, now)
	require.NoError(t, err)
	assert.Equal(t, 0, failed.Attempts)
	assert.Equal(t, "unknown", failed.JobName)
	assert.Equal(t, "/unknown", failed.JobPath)
	assert.Equal(t, "{}", failed.Payload)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "gamma unavailable", *failed.LastError)
	require.NotNil(t, failed.FinishedAt)

	_, err = dispatchRow(jobscheduler.DispatchEvent{DispatchID: " "}, now)
	assert.Error(t, err)
	_, err = dispatchRow(jobscheduler.DispatchEvent{DispatchID: "x", Status: "queued"}, now)
	assert.Error(t, err)
}

func TestDispatchUpsertQuery(t *testing.T) {
	t.Parallel()

	query, args, err := qb.InsertModel("job_dispatches", jobDispatchInsertModel{DispatchID: "d-1", Status: "sent"}, dispatchMerge)
	require.NoError(t, err)
	if len(args) != 13 {
		t.Fatalf("unexpected args len: got=%d want=13", len(args))
	}
	for _, want := range []string{
		"ON CONFLICT (dispatch_id) WHERE deleted_at IS NULL DO UPDATE SET",
		"status = EXCLUDED.status",
		"attempts = job_dispatches.attempts + EXCLUDED.attempts",
		"sent_at = COALESCE(job_dispatches.sent_at, EXCLUDED.sent_at)",
	} {
		if !strings.Contains(query, want) {
			t.Fatalf("query missing %q:\n%s", want, query)
		}
	}
}
