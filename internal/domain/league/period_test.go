package league

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodIndex(t *testing.T) {
	start := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		cadence Cadence
		now     time.Time
		want    int
		wantErr error
	}{
		{name: "before season clamps to zero", cadence: CadenceDaily, now: start.Add(-time.Hour), want: 0},
		{name: "season start", cadence: CadenceDaily, now: start, want: 0},
		{name: "daily mid second day", cadence: CadenceDaily, now: start.Add(36 * time.Hour), want: 1},
		{name: "daily boundary belongs to next period", cadence: CadenceDaily, now: start.Add(48 * time.Hour), want: 2},
		{name: "daily after season clamps to last", cadence: CadenceDaily, now: start.Add(30 * 24 * time.Hour), want: 6},
		{name: "weekly third week", cadence: CadenceWeekly, now: start.Add(15 * 24 * time.Hour), want: 2},
		{name: "weekly after season clamps to last", cadence: CadenceWeekly, now: start.Add(90 * 24 * time.Hour), want: 3},
		{name: "unknown cadence", cadence: Cadence("monthly"), now: start, wantErr: ErrInvalidCadence},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PeriodIndex(League{Cadence: tc.cadence, StartAt: start}, tc.now)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("unexpected error: got=%v want=%v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected period index: got=%d want=%d", got, tc.want)
			}
		})
	}
}

func TestPeriodIndex_NonNegativeAndMonotonic(t *testing.T) {
	start := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	for _, cadence := range []Cadence{CadenceDaily, CadenceWeekly} {
		l := League{Cadence: cadence, StartAt: start}
		prev := -1
		for now := start.Add(-48 * time.Hour); now.Before(start.Add(40 * 24 * time.Hour)); now = now.Add(5 * time.Hour) {
			got, err := PeriodIndex(l, now)
			if err != nil {
				t.Fatalf("cadence=%s unexpected error: %v", cadence, err)
			}
			if got < 0 {
				t.Fatalf("cadence=%s negative index at %s: %d", cadence, now, got)
			}
			if got < prev {
				t.Fatalf("cadence=%s index went backwards at %s: got=%d prev=%d", cadence, now, got, prev)
			}
			prev = got
		}
	}
}

func TestPeriodBounds(t *testing.T) {
	start := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	weekly := League{Cadence: CadenceWeekly, StartAt: start}
	gotStart, gotEnd, err := PeriodBounds(weekly, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotStart.Equal(start.Add(21*24*time.Hour)) || !gotEnd.Equal(start.Add(28*24*time.Hour)) {
		t.Fatalf("unexpected weekly bounds: start=%s end=%s", gotStart, gotEnd)
	}

	if _, _, err := PeriodBounds(weekly, 4); !errors.Is(err, ErrPeriodOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if _, _, err := PeriodBounds(League{Cadence: "hourly"}, 0); !errors.Is(err, ErrInvalidCadence) {
		t.Fatalf("expected invalid cadence, got %v", err)
	}

	daily := League{Cadence: CadenceDaily, StartAt: start}
	end, err := SeasonEnd(daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !end.Equal(start.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected daily season end: %s", end)
	}

	in, err := InSeason(daily, end)
	if err != nil || in {
		t.Fatalf("season end is exclusive: in=%v err=%v", in, err)
	}
}

func TestInSeason_StoredEndAtShortensSeason(t *testing.T) {
	start := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		endAt  time.Time
		now    time.Time
		wantIn bool
	}{
		{name: "zero end uses calendar", now: start.Add(6 * 24 * time.Hour), wantIn: true},
		{name: "early end closes writes", endAt: start.Add(3 * 24 * time.Hour), now: start.Add(3 * 24 * time.Hour), wantIn: false},
		{name: "before early end", endAt: start.Add(3 * 24 * time.Hour), now: start.Add(71 * time.Hour), wantIn: true},
		{name: "later end capped by calendar", endAt: start.Add(30 * 24 * time.Hour), now: start.Add(7 * 24 * time.Hour), wantIn: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := League{Cadence: CadenceDaily, StartAt: start, EndAt: tc.endAt}
			got, err := InSeason(l, tc.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.wantIn {
				t.Fatalf("unexpected in-season: got=%v want=%v", got, tc.wantIn)
			}
		})
	}
}

func TestFindMemberByWallet_CaseInsensitive(t *testing.T) {
	members := []Member{
		{MemberID: "m-1", WalletAddress: "0xAbCd000000000000000000000000000000000001"},
	}

	got, ok := FindMemberByWallet(members, "0xabcd000000000000000000000000000000000001")
	if !ok || got.MemberID != "m-1" {
		t.Fatalf("expected wallet match, got=%+v ok=%v", got, ok)
	}
	if _, ok := FindMemberByWallet(members, " "); ok {
		t.Fatalf("blank wallet must not match")
	}
}
