package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/score"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	"github.com/riskibarqy/prediction-league/internal/domain/transparency"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

type leagueDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Mode             string `json:"mode"`
	Cadence          string `json:"cadence"`
	MarketsPerPeriod int    `json:"markets_per_period"`
	StartAt          string `json:"start_at"`
	EndAt            string `json:"end_at,omitempty"`
	Status           string `json:"status"`
	PointsPolicy     string `json:"points_policy,omitempty"`
	EscrowAddress    string `json:"escrow_address,omitempty"`
}

type periodDTO struct {
	Index        int    `json:"index"`
	StartAt      string `json:"start_at"`
	EndAt        string `json:"end_at"`
	SeasonLength int    `json:"season_length"`
	SeasonEndAt  string `json:"season_end_at"`
	InSeason     bool   `json:"in_season"`
}

type pickDTO struct {
	ID           string  `json:"id"`
	LeagueID     string  `json:"league_id"`
	MemberID     string  `json:"member_id"`
	MarketID     string  `json:"market_id"`
	Side         string  `json:"side"`
	Period       int     `json:"period"`
	Sequence     int     `json:"sequence"`
	PointsEarned *string `json:"points_earned"`
	Correct      *bool   `json:"correct"`
	ResolvedAt   *string `json:"resolved_at"`
	CreatedAt    string  `json:"created_at"`
}

type swapDTO struct {
	ID            string `json:"id"`
	LeagueID      string `json:"league_id"`
	MemberID      string `json:"member_id"`
	MarketID      string `json:"market_id"`
	OutcomeID     string `json:"outcome_id"`
	Side          string `json:"side"`
	NotionalIn    string `json:"notional_in"`
	NotionalOut   string `json:"notional_out"`
	ExecutedPrice string `json:"executed_price"`
	Fee           string `json:"fee"`
	PnLDelta      string `json:"pnl_delta"`
	Shares        string `json:"shares"`
	CreatedAt     string `json:"created_at"`
}

type positionDTO struct {
	MemberID  string `json:"member_id"`
	MarketID  string `json:"market_id"`
	OutcomeID string `json:"outcome_id"`
	Side      string `json:"side"`
	Shares    string `json:"shares"`
	CostBasis string `json:"cost_basis"`
	OpenedAt  string `json:"opened_at"`
	UpdatedAt string `json:"updated_at"`
}

type recordSwapDTO struct {
	Swap        swapDTO     `json:"swap"`
	Position    positionDTO `json:"position"`
	SeededQuote bool        `json:"seeded_quote"`
}

type scoreDTO struct {
	MemberID       string `json:"member_id"`
	Rank           int    `json:"rank"`
	Points         string `json:"points"`
	CorrectPicks   int    `json:"correct_picks"`
	TotalPicks     int    `json:"total_picks"`
	PortfolioValue string `json:"portfolio_value"`
	RealizedPnL    string `json:"realized_pnl"`
	UnrealizedPnL  string `json:"unrealized_pnl"`
	UpdatedAt      string `json:"updated_at"`
}

type snapshotDTO struct {
	ID string `json:"id"`
	scoreDTO
	Period int    `json:"period"`
	AsOf   string `json:"as_of"`
}

type leaderboardDTO struct {
	League    leagueDTO     `json:"league"`
	Scores    []scoreDTO    `json:"scores"`
	Snapshots []snapshotDTO `json:"snapshots"`
}

type leagueStateDTO struct {
	League    leagueDTO     `json:"league"`
	Period    periodDTO     `json:"period"`
	Picks     []pickDTO     `json:"picks"`
	Swaps     []swapDTO     `json:"swaps"`
	Positions []positionDTO `json:"positions"`
	Scores    []scoreDTO    `json:"scores"`
}

type chainMetaDTO struct {
	ChainID       int64  `json:"chain_id"`
	TokenAddress  string `json:"token_address"`
	TokenSymbol   string `json:"token_symbol"`
	TokenDecimals int32  `json:"token_decimals"`
	EscrowAddress string `json:"escrow_address,omitempty"`
	LatestBlock   uint64 `json:"latest_block"`
}

type feedEntryDTO struct {
	Origin     string         `json:"origin"`
	Kind       string         `json:"kind"`
	Reference  string         `json:"reference"`
	MemberID   string         `json:"member_id,omitempty"`
	Wallet     string         `json:"wallet,omitempty"`
	MarketID   string         `json:"market_id,omitempty"`
	Amount     *string        `json:"amount,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}

type onchainDTO struct {
	Meta    *chainMetaDTO  `json:"meta"`
	Holder  string         `json:"holder,omitempty"`
	Balance *string        `json:"balance"`
	Events  []feedEntryDTO `json:"events"`
	Error   string         `json:"error,omitempty"`
}

type offchainDTO struct {
	Picks       []feedEntryDTO `json:"picks"`
	Swaps       []feedEntryDTO `json:"swaps"`
	Settlements []feedEntryDTO `json:"settlements"`
}

type transparencyDTO struct {
	LeagueID    string         `json:"league_id"`
	Wallet      string         `json:"wallet,omitempty"`
	MemberID    string         `json:"member_id,omitempty"`
	Onchain     onchainDTO     `json:"onchain"`
	Offchain    offchainDTO    `json:"offchain"`
	Feed        []feedEntryDTO `json:"feed"`
	Degraded    bool           `json:"degraded"`
	GeneratedAt string         `json:"generated_at"`
}

type jobMetricDTO struct {
	JobName    string         `json:"job_name"`
	LeagueID   string         `json:"league_id"`
	Success    bool           `json:"success"`
	Skipped    bool           `json:"skipped"`
	DurationMS int64          `json:"duration_ms"`
	StartedAt  string         `json:"started_at"`
	Error      string         `json:"error,omitempty"`
	Stats      map[string]any `json:"stats,omitempty"`
}

type dispatchEventDTO struct {
	DispatchID   string         `json:"dispatch_id"`
	JobName      string         `json:"job_name"`
	JobPath      string         `json:"job_path"`
	LeagueID     string         `json:"league_id,omitempty"`
	Status       string         `json:"status"`
	Attempts     int            `json:"attempts"`
	Payload      map[string]any `json:"payload,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	OccurredAt   string         `json:"occurred_at"`
	TraceID      string         `json:"trace_id,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decimalPtr(v *decimal.Decimal) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func leagueToDTO(v league.League) leagueDTO {
	return leagueDTO{
		ID:               v.ID,
		Name:             v.Name,
		Mode:             string(v.Mode),
		Cadence:          string(v.Cadence),
		MarketsPerPeriod: v.MarketsPerPeriod,
		StartAt:          formatTime(v.StartAt),
		EndAt:            formatTime(v.EndAt),
		Status:           string(v.Status),
		PointsPolicy:     v.PointsPolicy,
		EscrowAddress:    v.EscrowAddress,
	}
}

func periodToDTO(v usecase.PeriodInfo) periodDTO {
	return periodDTO{
		Index:        v.Index,
		StartAt:      formatTime(v.StartAt),
		EndAt:        formatTime(v.EndAt),
		SeasonLength: v.SeasonLength,
		SeasonEndAt:  formatTime(v.SeasonEndAt),
		InSeason:     v.InSeason,
	}
}

func pickToDTO(v pick.Pick) pickDTO {
	out := pickDTO{
		ID:           v.ID,
		LeagueID:     v.LeagueID,
		MemberID:     v.MemberID,
		MarketID:     v.MarketID,
		Side:         string(v.Side),
		Period:       v.Period,
		Sequence:     v.Sequence,
		PointsEarned: decimalPtr(v.PointsEarned),
		Correct:      v.Correct,
		CreatedAt:    formatTime(v.CreatedAt),
	}
	if v.ResolvedAt != nil {
		resolved := formatTime(*v.ResolvedAt)
		out.ResolvedAt = &resolved
	}
	return out
}

func swapToDTO(v swap.Swap) swapDTO {
	return swapDTO{
		ID:            v.ID,
		LeagueID:      v.LeagueID,
		MemberID:      v.MemberID,
		MarketID:      v.MarketID,
		OutcomeID:     v.OutcomeID,
		Side:          string(v.Side),
		NotionalIn:    v.NotionalIn.String(),
		NotionalOut:   v.NotionalOut.String(),
		ExecutedPrice: v.ExecutedPrice.String(),
		Fee:           v.Fee.String(),
		PnLDelta:      v.PnLDelta.String(),
		Shares:        v.Shares.String(),
		CreatedAt:     formatTime(v.CreatedAt),
	}
}

func positionToDTO(v swap.Position) positionDTO {
	return positionDTO{
		MemberID:  v.MemberID,
		MarketID:  v.MarketID,
		OutcomeID: v.OutcomeID,
		Side:      string(v.Side),
		Shares:    v.Shares.String(),
		CostBasis: v.CostBasis.String(),
		OpenedAt:  formatTime(v.OpenedAt),
		UpdatedAt: formatTime(v.UpdatedAt),
	}
}

func scoreToDTO(v score.Score) scoreDTO {
	return scoreDTO{
		MemberID:       v.MemberID,
		Rank:           v.Rank,
		Points:         v.Points.String(),
		CorrectPicks:   v.CorrectPicks,
		TotalPicks:     v.TotalPicks,
		PortfolioValue: v.PortfolioValue.String(),
		RealizedPnL:    v.RealizedPnL.String(),
		UnrealizedPnL:  v.UnrealizedPnL.String(),
		UpdatedAt:      formatTime(v.UpdatedAt),
	}
}

func snapshotToDTO(v score.Snapshot) snapshotDTO {
	return snapshotDTO{
		ID:       v.ID,
		scoreDTO: scoreToDTO(v.Score),
		Period:   v.Period,
		AsOf:     formatTime(v.AsOf),
	}
}

func mapSlice[T, U any](items []T, fn func(T) U) []U {
	out := make([]U, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}

func entryToDTO(v transparency.Entry) feedEntryDTO {
	return feedEntryDTO{
		Origin:     string(v.Origin),
		Kind:       string(v.Kind),
		Reference:  v.Reference,
		MemberID:   v.MemberID,
		Wallet:     v.Wallet,
		MarketID:   v.MarketID,
		Amount:     decimalPtr(v.Amount),
		Detail:     v.Detail,
		OccurredAt: formatTime(v.OccurredAt),
	}
}

func feedToDTO(v transparency.Feed) transparencyDTO {
	onchain := onchainDTO{
		Holder:  v.Onchain.Holder,
		Balance: decimalPtr(v.Onchain.Balance),
		Events:  make([]feedEntryDTO, 0, len(v.Onchain.Transfers)),
		Error:   v.Onchain.Error,
	}
	if meta := v.Onchain.Meta; meta != nil {
		onchain.Meta = &chainMetaDTO{
			ChainID:       meta.ChainID,
			TokenAddress:  meta.TokenAddress,
			TokenSymbol:   meta.TokenSymbol,
			TokenDecimals: meta.TokenDecimals,
			EscrowAddress: meta.EscrowAddress,
			LatestBlock:   meta.LatestBlock,
		}
	}
	escrow := ""
	if onchain.Meta != nil {
		escrow = onchain.Meta.EscrowAddress
	}
	for _, t := range v.Onchain.Transfers {
		onchain.Events = append(onchain.Events, entryToDTO(transparency.TransferEntry(v.LeagueID, escrow, t)))
	}

	return transparencyDTO{
		LeagueID: v.LeagueID,
		Wallet:   v.Wallet,
		MemberID: v.MemberID,
		Onchain:  onchain,
		Offchain: offchainDTO{
			Picks:       mapSlice(v.Offchain.Picks, entryToDTO),
			Swaps:       mapSlice(v.Offchain.Swaps, entryToDTO),
			Settlements: mapSlice(v.Offchain.Settlements, entryToDTO),
		},
		Feed:        mapSlice(v.Entries, entryToDTO),
		Degraded:    v.Degraded,
		GeneratedAt: formatTime(v.GeneratedAt),
	}
}

func jobMetricToDTO(v jobscheduler.Metric) jobMetricDTO {
	return jobMetricDTO{
		JobName:    v.JobName,
		LeagueID:   v.LeagueID,
		Success:    v.Success,
		Skipped:    v.Skipped,
		DurationMS: v.Duration.Milliseconds(),
		StartedAt:  formatTime(v.StartedAt),
		Error:      v.Error,
		Stats:      v.Stats,
	}
}

func dispatchEventToDTO(v jobscheduler.DispatchEvent) dispatchEventDTO {
	return dispatchEventDTO{
		DispatchID:   v.DispatchID,
		JobName:      v.JobName,
		JobPath:      v.JobPath,
		LeagueID:     v.LeagueID,
		Status:       string(v.Status),
		Attempts:     v.Attempts,
		Payload:      v.Payload,
		ErrorMessage: v.ErrorMessage,
		OccurredAt:   formatTime(v.OccurredAt),
		TraceID:      v.TraceID,
	}
}
