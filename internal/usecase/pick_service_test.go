package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/repository/memory"
)

func newTestPickService(leagues *memory.LeagueRepository, at time.Time) (*PickService, *memory.PickRepository) {
	picks := memory.NewPickRepository()
	service := NewPickService(leagues, picks, nil, &sequenceIDs{prefix: "pick-"}, nil)
	service.now = fixedClock(at)
	return service, picks
}

func TestPickService_RecordPick_PeriodCapAndDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, picks := newTestPickService(seededLeagues(), testSeasonStart.Add(2*time.Hour))

	for i, marketID := range []string{"m1", "m2", "m3"} {
		got, err := service.RecordPick(ctx, RecordPickInput{
			LeagueID: memory.LeagueIDDailySim,
			MemberID: testAlice,
			MarketID: marketID,
			Side:     "YES",
		})
		if err != nil {
			t.Fatalf("record pick %s: %v", marketID, err)
		}
		if got.Period != 0 || got.Sequence != i+1 {
			t.Fatalf("unexpected slot for %s: period=%d sequence=%d", marketID, got.Period, got.Sequence)
		}
	}

	_, err := service.RecordPick(ctx, RecordPickInput{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", Side: "no"})
	if !crerr.Is(err, ErrDuplicateMarketPick) {
		t.Fatalf("expected duplicate pick error, got %v", err)
	}

	_, err = service.RecordPick(ctx, RecordPickInput{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m4", Side: "yes"})
	if !crerr.Is(err, ErrPeriodCapExceeded) {
		t.Fatalf("expected period cap error, got %v", err)
	}
	if !crerr.Is(err, ErrCapExceeded) {
		t.Fatalf("period cap must also match ErrCapExceeded, got %v", err)
	}

	// Caps are per member.
	if _, err := service.RecordPick(ctx, RecordPickInput{LeagueID: memory.LeagueIDDailySim, MemberID: testBob, MarketID: "m4", Side: "yes"}); err != nil {
		t.Fatalf("record pick for second member: %v", err)
	}

	service.now = fixedClock(testSeasonStart.Add(26 * time.Hour))
	next, err := service.RecordPick(ctx, RecordPickInput{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", Side: "yes"})
	if err != nil {
		t.Fatalf("record pick in next period: %v", err)
	}
	if next.Period != 1 || next.Sequence != 1 {
		t.Fatalf("unexpected slot in next period: period=%d sequence=%d", next.Period, next.Sequence)
	}

	stored, err := picks.ListByMember(ctx, memory.LeagueIDDailySim, testAlice)
	if err != nil {
		t.Fatalf("list picks: %v", err)
	}
	if len(stored) != 4 {
		t.Fatalf("unexpected stored picks: got=%d want=4", len(stored))
	}
}

func TestPickService_RecordPick_Gating(t *testing.T) {
	t.Parallel()

	openLeague := league.League{
		ID:               "sim-open",
		Mode:             league.ModeSim,
		Cadence:          league.CadenceDaily,
		MarketsPerPeriod: 3,
		StartAt:          testSeasonStart,
		Status:           league.StatusOpen,
		PointsPolicy:     PointsPolicyStandard,
	}
	inSeason := testSeasonStart.Add(time.Hour)

	tests := []struct {
		name    string
		now     time.Time
		input   RecordPickInput
		wantErr error
	}{
		{
			name:    "live league",
			now:     inSeason,
			input:   RecordPickInput{LeagueID: memory.LeagueIDLive, MemberID: testAlice, MarketID: "m1", Side: "yes"},
			wantErr: ErrLeagueNotSimulated,
		},
		{
			name:    "league not active",
			now:     inSeason,
			input:   RecordPickInput{LeagueID: openLeague.ID, MemberID: testAlice, MarketID: "m1", Side: "yes"},
			wantErr: ErrLeagueInactive,
		},
		{
			name:    "before season start",
			now:     testSeasonStart.Add(-time.Minute),
			input:   RecordPickInput{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", Side: "yes"},
			wantErr: ErrLeagueInactive,
		},
		{
			name:    "season end is exclusive",
			now:     testSeasonStart.Add(7 * 24 * time.Hour),
			input:   RecordPickInput{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", Side: "yes"},
			wantErr: ErrLeagueInactive,
		},
		{
			name:    "unknown league",
			now:     inSeason,
			input:   RecordPickInput{LeagueID: "missing", MemberID: testAlice, MarketID: "m1", Side: "yes"},
			wantErr: ErrNotFound,
		},
		{
			name:    "not a member",
			now:     inSeason,
			input:   RecordPickInput{LeagueID: memory.LeagueIDDailySim, MemberID: "member-carol", MarketID: "m1", Side: "yes"},
			wantErr: ErrNotFound,
		},
		{
			name:    "invalid side",
			now:     inSeason,
			input:   RecordPickInput{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", Side: "maybe"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "missing market",
			now:     inSeason,
			input:   RecordPickInput{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "  ", Side: "yes"},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, _ := newTestPickService(seededLeagues(openLeague), tc.now)
			_, err := service.RecordPick(context.Background(), tc.input)
			if !crerr.Is(err, tc.wantErr) {
				t.Fatalf("unexpected error: got=%v want=%v", err, tc.wantErr)
			}
		})
	}
}

func TestPickService_RecordPick_ConcurrentRespectsCap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, picks := newTestPickService(seededLeagues(), testSeasonStart.Add(time.Hour))

	const attempts = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		capped  int
	)
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		marketID := fmt.Sprintf("m-%02d", i)
		go func() {
			defer wg.Done()
			_, err := service.RecordPick(ctx, RecordPickInput{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: marketID, Side: "yes"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case crerr.Is(err, ErrPeriodCapExceeded):
				capped++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 3 || capped != attempts-3 {
		t.Fatalf("unexpected outcome: success=%d capped=%d", success, capped)
	}

	stored, _ := picks.ListByMember(ctx, memory.LeagueIDDailySim, testAlice)
	seen := make(map[int]bool, len(stored))
	for _, item := range stored {
		if seen[item.Sequence] {
			t.Fatalf("sequence %d assigned twice", item.Sequence)
		}
		seen[item.Sequence] = true
	}
}

func TestPickService_ListPicks_SortedBySlot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, _ := newTestPickService(seededLeagues(), testSeasonStart.Add(30*time.Hour))
	for _, input := range []RecordPickInput{
		{LeagueID: memory.LeagueIDDailySim, MemberID: testBob, MarketID: "m2", Side: "no"},
		{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", Side: "yes"},
	} {
		if _, err := service.RecordPick(ctx, input); err != nil {
			t.Fatalf("record pick: %v", err)
		}
	}

	got, err := service.ListPicks(ctx, memory.LeagueIDDailySim, "")
	if err != nil {
		t.Fatalf("list picks: %v", err)
	}
	if len(got) != 2 || got[0].MemberID != testAlice || got[1].MemberID != testBob {
		t.Fatalf("unexpected order: %+v", got)
	}

	if _, err := service.ListPicks(ctx, " ", ""); !crerr.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
