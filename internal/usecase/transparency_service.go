package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	"github.com/riskibarqy/prediction-league/internal/domain/transparency"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

// ChainReader is the read-only on-chain collaborator.
type ChainReader interface {
	Metadata(ctx context.Context) (transparency.ChainMeta, error)
	Balance(ctx context.Context, holder string) (decimal.Decimal, error)
	Transfers(ctx context.Context, query transparency.TransferQuery) ([]transparency.Transfer, error)
}

type TransparencyServiceConfig struct {
	ChainTimeout time.Duration
}

type TransparencyService struct {
	cfg      TransparencyServiceConfig
	gate     leagueGate
	pickRepo pick.Repository
	swapRepo swap.Repository
	chain    ChainReader
	logger   *logging.Logger
	now      func() time.Time
}

func NewTransparencyService(
	cfg TransparencyServiceConfig,
	leagueRepo league.Repository,
	pickRepo pick.Repository,
	swapRepo swap.Repository,
	chain ChainReader,
	logger *logging.Logger,
) *TransparencyService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ChainTimeout <= 0 {
		cfg.ChainTimeout = 8 * time.Second
	}

	return &TransparencyService{
		cfg:      cfg,
		gate:     leagueGate{leagueRepo: leagueRepo},
		pickRepo: pickRepo,
		swapRepo: swapRepo,
		chain:    chain,
		logger:   logger,
		now:      time.Now,
	}
}

// Reconcile merges on-chain and off-chain activity. An on-chain failure degrades the feed
// but never drops off-chain entries.
func (s *TransparencyService) Reconcile(ctx context.Context, leagueID, wallet string) (transparency.Feed, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TransparencyService.Reconcile", leagueID)
	defer span.End()

	item, err := s.gate.getLeague(ctx, leagueID)
	if err != nil {
		return transparency.Feed{}, err
	}

	wallet = strings.TrimSpace(wallet)
	if wallet != "" && !common.IsHexAddress(wallet) {
		return transparency.Feed{}, fmt.Errorf("%w: wallet %q is not a hex address", ErrInvalidInput, wallet)
	}

	members, err := s.gate.leagueRepo.ListMembers(ctx, item.ID)
	if err != nil {
		return transparency.Feed{}, fmt.Errorf("list league members: %w", err)
	}
	var member league.Member
	if wallet != "" {
		found, ok := league.FindMemberByWallet(members, wallet)
		if !ok {
			return transparency.Feed{}, fmt.Errorf("%w: wallet %s is not a member of league %s", ErrNotFound, wallet, item.ID)
		}
		member = found
	}

	var (
		onchain     transparency.Onchain
		offchain    transparency.Offchain
		offchainErr error
		wg          conc.WaitGroup
	)
	wg.Go(func() {
		onchain = s.readOnchain(ctx, item, wallet)
	})
	wg.Go(func() {
		offchain, offchainErr = s.readOffchain(ctx, item.ID, member.MemberID, members)
	})
	wg.Wait()

	if offchainErr != nil {
		return transparency.Feed{}, offchainErr
	}

	onchainEntries := make([]transparency.Entry, 0, len(onchain.Transfers))
	for _, t := range onchain.Transfers {
		onchainEntries = append(onchainEntries, transparency.TransferEntry(item.ID, item.EscrowAddress, t))
	}

	feed := transparency.Feed{
		LeagueID:    item.ID,
		Wallet:      wallet,
		MemberID:    member.MemberID,
		Onchain:     onchain,
		Offchain:    offchain,
		Entries:     transparency.Merge(onchainEntries, offchain.Picks, offchain.Swaps, offchain.Settlements),
		Degraded:    onchain.Error != "",
		GeneratedAt: s.now().UTC(),
	}
	if feed.Degraded {
		s.logger.WarnContext(ctx, "transparency feed degraded",
			"league_id", item.ID,
			"wallet", wallet,
			"error", onchain.Error,
		)
	}
	return feed, nil
}

func (s *TransparencyService) readOnchain(ctx context.Context, item league.League, wallet string) (out transparency.Onchain) {
	defer func() {
		if recovered := recover(); recovered != nil {
			out.Error = fmt.Sprintf("chain reader panic: %v", recovered)
		}
	}()

	if s.chain == nil {
		out.Error = "chain reader is not configured"
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ChainTimeout)
	defer cancel()

	meta, err := s.chain.Metadata(ctx)
	if err != nil {
		out.Error = fmt.Sprintf("read chain metadata: %v", err)
		return out
	}
	if meta.EscrowAddress == "" {
		meta.EscrowAddress = item.EscrowAddress
	}
	out.Meta = &meta

	out.Holder = wallet
	if out.Holder == "" {
		out.Holder = item.EscrowAddress
	}
	if out.Holder != "" {
		balance, err := s.chain.Balance(ctx, out.Holder)
		if err != nil {
			out.Error = fmt.Sprintf("read balance: %v", err)
			return out
		}
		out.Balance = &balance
	}

	if item.EscrowAddress == "" && wallet == "" {
		return out
	}
	transfers, err := s.chain.Transfers(ctx, transparency.TransferQuery{Contract: item.EscrowAddress, Wallet: wallet})
	if err != nil {
		out.Error = fmt.Sprintf("read transfers: %v", err)
		return out
	}
	out.Transfers = transfers
	return out
}

func (s *TransparencyService) readOffchain(ctx context.Context, leagueID, memberID string, members []league.Member) (transparency.Offchain, error) {
	var (
		picks []pick.Pick
		swaps []swap.Swap
		err   error
	)
	if memberID == "" {
		picks, err = s.pickRepo.ListByLeague(ctx, leagueID)
	} else {
		picks, err = s.pickRepo.ListByMember(ctx, leagueID, memberID)
	}
	if err != nil {
		return transparency.Offchain{}, fmt.Errorf("list picks: %w", err)
	}
	if memberID == "" {
		swaps, err = s.swapRepo.ListByLeague(ctx, leagueID)
	} else {
		swaps, err = s.swapRepo.ListByMember(ctx, leagueID, memberID)
	}
	if err != nil {
		return transparency.Offchain{}, fmt.Errorf("list swaps: %w", err)
	}

	wallets := make(map[string]string, len(members))
	for _, m := range members {
		wallets[m.MemberID] = m.WalletAddress
	}

	out := transparency.Offchain{
		Picks:       make([]transparency.Entry, 0, len(picks)),
		Swaps:       make([]transparency.Entry, 0, len(swaps)),
		Settlements: make([]transparency.Entry, 0),
	}
	for _, p := range picks {
		out.Picks = append(out.Picks, transparency.Entry{
			Origin:    transparency.OriginOffchain,
			Kind:      transparency.KindPick,
			Reference: p.ID,
			LeagueID:  p.LeagueID,
			MemberID:  p.MemberID,
			Wallet:    wallets[p.MemberID],
			MarketID:  p.MarketID,
			Detail: map[string]any{
				"side":     string(p.Side),
				"period":   p.Period,
				"sequence": p.Sequence,
			},
			OccurredAt: p.CreatedAt,
		})
		if !p.IsResolved() {
			continue
		}
		detail := map[string]any{"side": string(p.Side)}
		if p.Correct != nil {
			detail["correct"] = *p.Correct
		}
		out.Settlements = append(out.Settlements, transparency.Entry{
			Origin:     transparency.OriginOffchain,
			Kind:       transparency.KindSettlement,
			Reference:  "settle:" + p.ID,
			LeagueID:   p.LeagueID,
			MemberID:   p.MemberID,
			Wallet:     wallets[p.MemberID],
			MarketID:   p.MarketID,
			Amount:     p.PointsEarned,
			Detail:     detail,
			OccurredAt: *p.ResolvedAt,
		})
	}
	for _, sw := range swaps {
		amount := sw.NotionalIn
		out.Swaps = append(out.Swaps, transparency.Entry{
			Origin:    transparency.OriginOffchain,
			Kind:      transparency.KindSwap,
			Reference: sw.ID,
			LeagueID:  sw.LeagueID,
			MemberID:  sw.MemberID,
			Wallet:    wallets[sw.MemberID],
			MarketID:  sw.MarketID,
			Amount:    &amount,
			Detail: map[string]any{
				"outcome_id":     sw.OutcomeID,
				"side":           string(sw.Side),
				"executed_price": sw.ExecutedPrice.String(),
				"fee":            sw.Fee.String(),
				"notional_out":   sw.NotionalOut.String(),
				"pnl_delta":      sw.PnLDelta.String(),
			},
			OccurredAt: sw.CreatedAt,
		})
	}
	return out, nil
}
