package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/price"
	"github.com/riskibarqy/prediction-league/internal/domain/score"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	"github.com/riskibarqy/prediction-league/internal/platform/id"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
)

const (
	leaderboardSnapshotLimit = 200
	valueScale               = 6
)

type RecomputeResult struct {
	LeagueID      string        `json:"league_id"`
	Period        int           `json:"period"`
	Members       int           `json:"members"`
	ResolvedPicks int           `json:"resolved_picks"`
	Snapshots     int           `json:"snapshots"`
	Policy        string        `json:"policy"`
	Scores        []score.Score `json:"-"`
}

func (r RecomputeResult) Stats() map[string]any {
	return map[string]any{
		"period":         r.Period,
		"members":        r.Members,
		"resolved_picks": r.ResolvedPicks,
		"snapshots":      r.Snapshots,
		"policy":         r.Policy,
	}
}

type Leaderboard struct {
	League    league.League
	Scores    []score.Score
	Snapshots []score.Snapshot
}

type LeagueState struct {
	League    league.League
	Period    PeriodInfo
	Picks     []pick.Pick
	Swaps     []swap.Swap
	Positions []swap.Position
	Scores    []score.Score
}

type ScoringService struct {
	gate      leagueGate
	pickRepo  pick.Repository
	swapRepo  swap.Repository
	priceRepo price.Repository
	scoreRepo score.Repository
	policies  *PointsPolicyRegistry
	locks     *resilience.KeyedMutex
	idGen     id.Generator
	logger    *logging.Logger
	now       func() time.Time
}

func NewScoringService(
	leagueRepo league.Repository,
	pickRepo pick.Repository,
	swapRepo swap.Repository,
	priceRepo price.Repository,
	scoreRepo score.Repository,
	policies *PointsPolicyRegistry,
	locks *resilience.KeyedMutex,
	idGen id.Generator,
	logger *logging.Logger,
) *ScoringService {
	if logger == nil {
		logger = logging.Default()
	}
	if policies == nil {
		policies = NewPointsPolicyRegistry()
	}
	if locks == nil {
		locks = resilience.NewKeyedMutex()
	}
	if idGen == nil {
		idGen = id.WithPrefix("snap_", nil)
	}

	return &ScoringService{
		gate:      leagueGate{leagueRepo: leagueRepo},
		pickRepo:  pickRepo,
		swapRepo:  swapRepo,
		priceRepo: priceRepo,
		scoreRepo: scoreRepo,
		policies:  policies,
		locks:     locks,
		idGen:     idGen,
		logger:    logger,
		now:       time.Now,
	}
}

// scoringInputs is the snapshot a recompute reads at invocation time.
type scoringInputs struct {
	league      league.League
	members     []league.Member
	picks       []pick.Pick
	swaps       []swap.Swap
	positions   []swap.Position
	previous    map[string]score.Score
	resolutions map[string]price.Resolution
	book        price.Book
}

// RecomputeScores revalues every member of a league and writes scores and snapshots in one run.
func (s *ScoringService) RecomputeScores(ctx context.Context, leagueID string) (RecomputeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.RecomputeScores", leagueID)
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return RecomputeResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	unlock, ok := s.locks.TryLock(resilience.Key("recompute", leagueID))
	if !ok {
		return RecomputeResult{}, fmt.Errorf("%w: league=%s", ErrRecomputeInProgress, leagueID)
	}
	defer unlock()

	inputs, err := s.loadInputs(ctx, leagueID)
	if err != nil {
		return RecomputeResult{}, err
	}
	policy, err := s.policies.Resolve(inputs.league.PointsPolicy)
	if err != nil {
		return RecomputeResult{}, err
	}

	now := s.now().UTC()
	period, err := league.PeriodIndex(inputs.league, now)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}

	resolved := resolvePicks(inputs.picks, inputs.resolutions, policy, now)
	scores := computeScores(inputs, policy, now)
	ranked := score.Rank(scores)

	snapshots := make([]score.Snapshot, 0, len(ranked))
	for _, item := range ranked {
		snapshotID, err := s.idGen.NewID()
		if err != nil {
			return RecomputeResult{}, fmt.Errorf("generate snapshot id: %w", err)
		}
		snapshots = append(snapshots, score.Snapshot{
			ID:     snapshotID,
			Score:  item,
			Period: period,
			AsOf:   now,
		})
	}

	run := score.Run{
		LeagueID:      leagueID,
		Scores:        ranked,
		Snapshots:     snapshots,
		ResolvedPicks: resolved,
	}
	if err := s.scoreRepo.SaveRun(ctx, run); err != nil {
		return RecomputeResult{}, fmt.Errorf("save scoring run: %w", err)
	}

	result := RecomputeResult{
		LeagueID:      leagueID,
		Period:        period,
		Members:       len(ranked),
		ResolvedPicks: len(resolved),
		Snapshots:     len(snapshots),
		Policy:        policy.Name(),
		Scores:        ranked,
	}
	s.logger.InfoContext(ctx, "scores recomputed",
		"league_id", leagueID,
		"period", period,
		"members", result.Members,
		"resolved_picks", result.ResolvedPicks,
		"policy", result.Policy,
	)
	return result, nil
}

func (s *ScoringService) loadInputs(ctx context.Context, leagueID string) (scoringInputs, error) {
	item, err := s.gate.getLeague(ctx, leagueID)
	if err != nil {
		return scoringInputs{}, err
	}
	members, err := s.gate.leagueRepo.ListMembers(ctx, leagueID)
	if err != nil {
		return scoringInputs{}, fmt.Errorf("list league members: %w", err)
	}
	picks, err := s.pickRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return scoringInputs{}, fmt.Errorf("list league picks: %w", err)
	}
	swaps, positions, err := s.swapRepo.Snapshot(ctx, leagueID)
	if err != nil {
		return scoringInputs{}, fmt.Errorf("snapshot league swaps: %w", err)
	}
	previous, err := s.scoreRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return scoringInputs{}, fmt.Errorf("list previous scores: %w", err)
	}

	marketIDs := make([]string, 0, len(picks))
	for _, p := range picks {
		if !p.IsResolved() {
			marketIDs = append(marketIDs, p.MarketID)
		}
	}
	resolutions := make(map[string]price.Resolution)
	if marketIDs = normalizeIDs(marketIDs); len(marketIDs) > 0 {
		items, err := s.priceRepo.ListResolutions(ctx, marketIDs)
		if err != nil {
			return scoringInputs{}, fmt.Errorf("list market resolutions: %w", err)
		}
		for _, r := range items {
			resolutions[r.MarketID] = r
		}
	}

	outcomeIDs := make([]string, 0, len(positions))
	for _, p := range positions {
		outcomeIDs = append(outcomeIDs, p.OutcomeID)
	}
	book := price.NewBook(nil)
	if outcomeIDs = normalizeIDs(outcomeIDs); len(outcomeIDs) > 0 {
		quotes, err := s.priceRepo.ListQuotes(ctx, outcomeIDs)
		if err != nil {
			return scoringInputs{}, fmt.Errorf("list quotes: %w", err)
		}
		book = price.NewBook(quotes)
	}

	prevByMember := make(map[string]score.Score, len(previous))
	for _, row := range previous {
		prevByMember[row.MemberID] = row
	}

	return scoringInputs{
		league:      item,
		members:     members,
		picks:       picks,
		swaps:       swaps,
		positions:   positions,
		previous:    prevByMember,
		resolutions: resolutions,
		book:        book,
	}, nil
}

// resolvePicks settles unresolved picks in place and returns the newly settled ones.
func resolvePicks(picks []pick.Pick, resolutions map[string]price.Resolution, policy PointsPolicy, now time.Time) []pick.Pick {
	out := make([]pick.Pick, 0)
	for i, p := range picks {
		if p.IsResolved() {
			continue
		}
		resolution, ok := resolutions[p.MarketID]
		if !ok {
			continue
		}
		at := resolution.ResolvedAt
		if at.IsZero() {
			at = now
		}
		settled := p.Resolve(resolution.WinningSide, policy.PickCredit(p.Side == resolution.WinningSide), at)
		picks[i] = settled
		out = append(out, settled)
	}
	return out
}

func computeScores(inputs scoringInputs, policy PointsPolicy, now time.Time) []score.Score {
	type tally struct {
		credits    decimal.Decimal
		correct    int
		total      int
		value      decimal.Decimal
		realized   decimal.Decimal
		unrealized decimal.Decimal
	}

	tallies := make(map[string]*tally, len(inputs.members))
	for _, m := range inputs.members {
		tallies[m.MemberID] = &tally{}
	}

	for _, p := range inputs.picks {
		t, ok := tallies[p.MemberID]
		if !ok {
			continue
		}
		t.total++
		if p.Correct != nil && *p.Correct {
			t.correct++
		}
		if p.PointsEarned != nil {
			t.credits = t.credits.Add(*p.PointsEarned)
		}
	}
	for _, sw := range inputs.swaps {
		if t, ok := tallies[sw.MemberID]; ok {
			t.realized = t.realized.Add(sw.PnLDelta)
		}
	}
	for _, pos := range inputs.positions {
		t, ok := tallies[pos.MemberID]
		if !ok {
			continue
		}
		mark := inputs.book.Effective(pos.OutcomeID)
		t.value = t.value.Add(pos.Value(mark))
		t.unrealized = t.unrealized.Add(pos.Unrealized(mark))
	}

	out := make([]score.Score, 0, len(inputs.members))
	for _, m := range inputs.members {
		t := tallies[m.MemberID]
		row := score.Score{
			LeagueID:       inputs.league.ID,
			MemberID:       m.MemberID,
			CorrectPicks:   t.correct,
			TotalPicks:     t.total,
			PortfolioValue: t.value.Round(valueScale),
			RealizedPnL:    t.realized.Round(valueScale),
			UnrealizedPnL:  t.unrealized.Round(valueScale),
		}
		row.Points = policy.Points(PointsInput{
			PickCredits:   t.credits,
			RealizedPnL:   row.RealizedPnL,
			UnrealizedPnL: row.UnrealizedPnL,
		})

		row.UpdatedAt = now
		if prev, ok := inputs.previous[m.MemberID]; ok && prev.Points.Equal(row.Points) && !prev.UpdatedAt.IsZero() {
			row.UpdatedAt = prev.UpdatedAt
		}
		out = append(out, row)
	}
	return out
}

func (s *ScoringService) Leaderboard(ctx context.Context, leagueID string) (Leaderboard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.Leaderboard", leagueID)
	defer span.End()

	item, err := s.gate.getLeague(ctx, leagueID)
	if err != nil {
		return Leaderboard{}, err
	}

	scores, err := s.scoreRepo.ListByLeague(ctx, item.ID)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("list scores: %w", err)
	}
	sortScoresByRank(scores)

	snapshots, err := s.scoreRepo.ListRecentSnapshots(ctx, item.ID, leaderboardSnapshotLimit)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("list recent snapshots: %w", err)
	}
	if len(snapshots) > leaderboardSnapshotLimit {
		snapshots = snapshots[:leaderboardSnapshotLimit]
	}

	return Leaderboard{League: item, Scores: scores, Snapshots: snapshots}, nil
}

func (s *ScoringService) LeagueState(ctx context.Context, leagueID string) (LeagueState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.LeagueState", leagueID)
	defer span.End()

	item, err := s.gate.getLeague(ctx, leagueID)
	if err != nil {
		return LeagueState{}, err
	}
	period, err := periodInfo(item, s.now().UTC())
	if err != nil {
		return LeagueState{}, err
	}

	picks, err := s.pickRepo.ListByLeague(ctx, item.ID)
	if err != nil {
		return LeagueState{}, fmt.Errorf("list league picks: %w", err)
	}
	swaps, positions, err := s.swapRepo.Snapshot(ctx, item.ID)
	if err != nil {
		return LeagueState{}, fmt.Errorf("snapshot league swaps: %w", err)
	}
	scores, err := s.scoreRepo.ListByLeague(ctx, item.ID)
	if err != nil {
		return LeagueState{}, fmt.Errorf("list scores: %w", err)
	}

	sortPicks(picks)
	sortSwaps(swaps)
	sort.SliceStable(positions, func(i, j int) bool {
		if positions[i].MemberID != positions[j].MemberID {
			return positions[i].MemberID < positions[j].MemberID
		}
		return positions[i].MarketID < positions[j].MarketID
	})
	sortScoresByRank(scores)

	return LeagueState{
		League:    item,
		Period:    period,
		Picks:     picks,
		Swaps:     swaps,
		Positions: positions,
		Scores:    scores,
	}, nil
}

func sortScoresByRank(items []score.Score) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Rank != items[j].Rank {
			return items[i].Rank < items[j].Rank
		}
		return items[i].MemberID < items[j].MemberID
	})
}
