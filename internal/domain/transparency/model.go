package transparency

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type Origin string

const (
	OriginOnchain  Origin = "onchain"
	OriginOffchain Origin = "offchain"
)

type Kind string

const (
	KindTransferIn  Kind = "transfer_in"
	KindTransferOut Kind = "transfer_out"
	KindPick        Kind = "pick"
	KindSwap        Kind = "swap"
	KindSettlement  Kind = "settlement"
)

// Entry is one line of the combined audit feed.
type Entry struct {
	Origin     Origin
	Kind       Kind
	Reference  string
	LeagueID   string
	MemberID   string
	Wallet     string
	MarketID   string
	Amount     *decimal.Decimal
	Detail     map[string]any
	OccurredAt time.Time
}

// ChainMeta describes the token and contract the on-chain branch reads.
type ChainMeta struct {
	ChainID       int64
	TokenAddress  string
	TokenSymbol   string
	TokenDecimals int32
	EscrowAddress string
	LatestBlock   uint64
}

// Transfer is an ERC-20 Transfer log touching the escrow.
type Transfer struct {
	TxHash      string
	LogIndex    uint
	BlockNumber uint64
	From        string
	To          string
	Amount      decimal.Decimal
	OccurredAt  time.Time
}

type TransferQuery struct {
	Contract string
	Wallet   string
}

type Onchain struct {
	Meta      *ChainMeta
	Holder    string
	Balance   *decimal.Decimal
	Transfers []Transfer
	Error     string
}

type Offchain struct {
	Picks       []Entry
	Swaps       []Entry
	Settlements []Entry
}

// Feed is the reconciled view for a league, optionally narrowed to one wallet.
type Feed struct {
	LeagueID    string
	Wallet      string
	MemberID    string
	Onchain     Onchain
	Offchain    Offchain
	Entries     []Entry
	Degraded    bool
	GeneratedAt time.Time
}

// Merge concatenates groups ordered by (OccurredAt, Origin, Reference).
func Merge(groups ...[]Entry) []Entry {
	size := 0
	for _, g := range groups {
		size += len(g)
	}
	out := make([]Entry, 0, size)
	for _, g := range groups {
		out = append(out, g...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		if out[i].Origin != out[j].Origin {
			return out[i].Origin < out[j].Origin
		}
		return out[i].Reference < out[j].Reference
	})
	return out
}

// TransferEntry tags t relative to escrow: funds arriving at escrow are transfer_in.
func TransferEntry(leagueID, escrow string, t Transfer) Entry {
	kind := KindTransferOut
	wallet := t.To
	if equalAddress(t.To, escrow) {
		kind = KindTransferIn
		wallet = t.From
	}
	amount := t.Amount
	return Entry{
		Origin:    OriginOnchain,
		Kind:      kind,
		Reference: t.TxHash,
		LeagueID:  leagueID,
		Wallet:    wallet,
		Amount:    &amount,
		Detail: map[string]any{
			"block_number": t.BlockNumber,
			"log_index":    t.LogIndex,
			"from":         t.From,
			"to":           t.To,
		},
		OccurredAt: t.OccurredAt,
	}
}
