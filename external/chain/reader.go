package chain

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/riskibarqy/prediction-league/internal/domain/transparency"
	basecache "github.com/riskibarqy/prediction-league/internal/platform/cache"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

const defaultLookbackBlocks = 50_000

// backend is the subset of *ethclient.Client the reader needs.
type backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type ReaderConfig struct {
	RPCURL         string
	TokenAddress   string
	EscrowAddress  string
	LookbackBlocks uint64
	Logger         *logging.Logger
}

// Reader is a read-only ERC-20 view of the league escrow.
type Reader struct {
	backend  backend
	closer   func()
	token    common.Address
	escrow   string
	lookback uint64
	logger   *logging.Logger
	blocks   *basecache.Store

	mu       sync.Mutex
	symbol   string
	decimals int32
	loaded   bool
}

func NewReader(ctx context.Context, cfg ReaderConfig) (*Reader, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, fmt.Errorf("chain rpc url is required")
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}

	r, err := newReader(client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	r.closer = client.Close
	return r, nil
}

func newReader(b backend, cfg ReaderConfig) (*Reader, error) {
	if !common.IsHexAddress(cfg.TokenAddress) {
		return nil, fmt.Errorf("invalid token address %q", cfg.TokenAddress)
	}
	escrow := strings.TrimSpace(cfg.EscrowAddress)
	if escrow != "" && !common.IsHexAddress(escrow) {
		return nil, fmt.Errorf("invalid escrow address %q", escrow)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	lookback := cfg.LookbackBlocks
	if lookback == 0 {
		lookback = defaultLookbackBlocks
	}

	return &Reader{
		backend:  b,
		token:    common.HexToAddress(cfg.TokenAddress),
		escrow:   escrow,
		lookback: lookback,
		logger:   logger,
		// block timestamps never change
		blocks: basecache.NewStore(0),
	}, nil
}

func (r *Reader) Close() {
	if r.closer != nil {
		r.closer()
	}
}

func (r *Reader) Metadata(ctx context.Context) (transparency.ChainMeta, error) {
	chainID, err := r.backend.ChainID(ctx)
	if err != nil {
		return transparency.ChainMeta{}, fmt.Errorf("read chain id: %w", err)
	}
	latest, err := r.backend.BlockNumber(ctx)
	if err != nil {
		return transparency.ChainMeta{}, fmt.Errorf("read latest block: %w", err)
	}
	symbol, decimals, err := r.tokenInfo(ctx)
	if err != nil {
		return transparency.ChainMeta{}, err
	}

	escrow := ""
	if r.escrow != "" {
		escrow = common.HexToAddress(r.escrow).Hex()
	}
	return transparency.ChainMeta{
		ChainID:       chainID.Int64(),
		TokenAddress:  r.token.Hex(),
		TokenSymbol:   symbol,
		TokenDecimals: decimals,
		EscrowAddress: escrow,
		LatestBlock:   latest,
	}, nil
}

func (r *Reader) Balance(ctx context.Context, holder string) (decimal.Decimal, error) {
	if !common.IsHexAddress(holder) {
		return decimal.Decimal{}, fmt.Errorf("invalid holder address %q", holder)
	}
	_, decimals, err := r.tokenInfo(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}

	out, err := r.call(ctx, "balanceOf", common.HexToAddress(holder))
	if err != nil {
		return decimal.Decimal{}, err
	}
	raw, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unexpected balanceOf output %T", out[0])
	}
	return scaleAmount(raw, decimals), nil
}

// Transfers returns Transfer logs between the contract and the wallet in both directions.
// With only one side set it returns everything in and out of that address.
func (r *Reader) Transfers(ctx context.Context, query transparency.TransferQuery) ([]transparency.Transfer, error) {
	anchor, counterparty := strings.TrimSpace(query.Contract), strings.TrimSpace(query.Wallet)
	if anchor == "" {
		anchor, counterparty = counterparty, ""
	}
	if !common.IsHexAddress(anchor) {
		return nil, fmt.Errorf("invalid transfer anchor address %q", anchor)
	}
	if counterparty != "" && !common.IsHexAddress(counterparty) {
		return nil, fmt.Errorf("invalid transfer counterparty address %q", counterparty)
	}

	_, decimals, err := r.tokenInfo(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := r.backend.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("read latest block: %w", err)
	}
	from := uint64(0)
	if latest > r.lookback {
		from = latest - r.lookback
	}

	a := []common.Hash{common.BytesToHash(common.HexToAddress(anchor).Bytes())}
	var b []common.Hash
	if counterparty != "" {
		b = []common.Hash{common.BytesToHash(common.HexToAddress(counterparty).Bytes())}
	}

	var logs []types.Log
	for _, topics := range [][][]common.Hash{
		{{transferTopic}, a, b},
		{{transferTopic}, b, a},
	} {
		items, err := r.backend.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(from),
			ToBlock:   new(big.Int).SetUint64(latest),
			Addresses: []common.Address{r.token},
			Topics:    topics,
		})
		if err != nil {
			return nil, fmt.Errorf("filter transfer logs: %w", err)
		}
		logs = append(logs, items...)
	}

	seen := make(map[string]struct{}, len(logs))
	out := make([]transparency.Transfer, 0, len(logs))
	for _, lg := range logs {
		transfer, ok := decodeTransfer(lg, decimals)
		if !ok {
			continue
		}
		key := transfer.TxHash + ":" + strconv.FormatUint(uint64(transfer.LogIndex), 10)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		at, err := r.blockTime(ctx, transfer.BlockNumber)
		if err != nil {
			return nil, err
		}
		transfer.OccurredAt = at
		out = append(out, transfer)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].LogIndex < out[j].LogIndex
	})
	return out, nil
}

func (r *Reader) tokenInfo(ctx context.Context) (string, int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.symbol, r.decimals, nil
	}

	out, err := r.call(ctx, "decimals")
	if err != nil {
		return "", 0, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return "", 0, fmt.Errorf("unexpected decimals output %T", out[0])
	}

	symbol := ""
	if out, err := r.call(ctx, "symbol"); err != nil {
		r.logger.WarnContext(ctx, "read token symbol failed", "token", r.token.Hex(), "error", err)
	} else if s, ok := out[0].(string); ok {
		symbol = s
	}

	r.symbol, r.decimals, r.loaded = symbol, int32(decimals), true
	return r.symbol, r.decimals, nil
}

func (r *Reader) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	to := r.token
	raw, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := erc20ABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s output", method)
	}
	return out, nil
}

func (r *Reader) blockTime(ctx context.Context, number uint64) (time.Time, error) {
	v, err := r.blocks.GetOrLoad(ctx, "block:"+strconv.FormatUint(number, 10), func(ctx context.Context) (any, error) {
		header, err := r.backend.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			return nil, fmt.Errorf("read block header %d: %w", number, err)
		}
		return time.Unix(int64(header.Time), 0).UTC(), nil
	})
	if err != nil {
		return time.Time{}, err
	}
	at, _ := v.(time.Time)
	return at, nil
}

func decodeTransfer(lg types.Log, decimals int32) (transparency.Transfer, bool) {
	if lg.Removed || len(lg.Topics) < 3 || lg.Topics[0] != transferTopic {
		return transparency.Transfer{}, false
	}
	return transparency.Transfer{
		TxHash:      lg.TxHash.Hex(),
		LogIndex:    lg.Index,
		BlockNumber: lg.BlockNumber,
		From:        common.BytesToAddress(lg.Topics[1].Bytes()).Hex(),
		To:          common.BytesToAddress(lg.Topics[2].Bytes()).Hex(),
		Amount:      scaleAmount(new(big.Int).SetBytes(lg.Data), decimals),
	}, true
}

func scaleAmount(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}
