package memory

import (
	"strconv"
	"testing"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
)

func TestJobMetricStore_BoundedNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewJobMetricStore(0)
	for i := 0; i < 120; i++ {
		store.Record(jobscheduler.Metric{JobName: "scoring", LeagueID: strconv.Itoa(i)})
	}

	if got := store.Len(); got != DefaultJobMetricCapacity {
		t.Fatalf("unexpected store size: got=%d want=%d", got, DefaultJobMetricCapacity)
	}

	recent := store.Recent(0)
	if len(recent) != DefaultJobMetricCapacity {
		t.Fatalf("unexpected recent size: got=%d want=%d", len(recent), DefaultJobMetricCapacity)
	}
	if recent[0].LeagueID != "119" || recent[len(recent)-1].LeagueID != "70" {
		t.Fatalf("unexpected window: newest=%s oldest=%s", recent[0].LeagueID, recent[len(recent)-1].LeagueID)
	}

	if got := store.Recent(3); len(got) != 3 || got[2].LeagueID != "117" {
		t.Fatalf("unexpected limited window: %+v", got)
	}
}

func TestJobMetricStore_PartiallyFilled(t *testing.T) {
	t.Parallel()

	store := NewJobMetricStore(5)
	store.Record(jobscheduler.Metric{LeagueID: "a"})
	store.Record(jobscheduler.Metric{LeagueID: "b"})

	got := store.Recent(10)
	if len(got) != 2 || got[0].LeagueID != "b" || got[1].LeagueID != "a" {
		t.Fatalf("unexpected metrics: %+v", got)
	}
}
