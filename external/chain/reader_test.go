package chain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/prediction-league/internal/domain/transparency"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

const (
	tokenAddr  = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	escrowAddr = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
	walletAddr = "0x1111111111111111111111111111111111111111"
)

type fakeBackend struct {
	latest      uint64
	balance     *big.Int
	logs        []types.Log
	headerCalls atomic.Int32
	queries     []ethereum.FilterQuery
	callErr     error
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(137), nil }

func (f *fakeBackend) BlockNumber(context.Context) (uint64, error) { return f.latest, nil }

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	selector := msg.Data[:4]
	switch {
	case bytes.Equal(selector, erc20ABI.Methods["decimals"].ID):
		return erc20ABI.Methods["decimals"].Outputs.Pack(uint8(6))
	case bytes.Equal(selector, erc20ABI.Methods["symbol"].ID):
		return erc20ABI.Methods["symbol"].Outputs.Pack("USDC")
	case bytes.Equal(selector, erc20ABI.Methods["balanceOf"].ID):
		return erc20ABI.Methods["balanceOf"].Outputs.Pack(f.balance)
	}
	return nil, errors.New("unknown selector")
}

func (f *fakeBackend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.queries = append(f.queries, q)
	var out []types.Log
	for _, lg := range f.logs {
		if topicMatches(q.Topics, lg.Topics) {
			out = append(out, lg)
		}
	}
	return out, nil
}

func (f *fakeBackend) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	f.headerCalls.Add(1)
	return &types.Header{Number: number, Time: 1_700_000_000 + number.Uint64()}, nil
}

func topicMatches(filter [][]common.Hash, topics []common.Hash) bool {
	for i, want := range filter {
		if len(want) == 0 {
			continue
		}
		if i >= len(topics) {
			return false
		}
		hit := false
		for _, h := range want {
			if h == topics[i] {
				hit = true
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func transferLog(block uint64, index uint, from, to string, amount int64) types.Log {
	return types.Log{
		Address:     common.HexToAddress(tokenAddr),
		Topics:      []common.Hash{transferTopic, common.BytesToHash(common.HexToAddress(from).Bytes()), common.BytesToHash(common.HexToAddress(to).Bytes())},
		Data:        common.LeftPadBytes(big.NewInt(amount).Bytes(), 32),
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block)*1000 + int64(index))),
		Index:       index,
	}
}

func newTestReader(t *testing.T, b *fakeBackend) *Reader {
	t.Helper()
	r, err := newReader(b, ReaderConfig{
		TokenAddress:   tokenAddr,
		EscrowAddress:  escrowAddr,
		LookbackBlocks: 100,
		Logger:         logging.NewNop(),
	})
	require.NoError(t, err)
	return r
}

func TestReader_BalanceScalesByDecimals(t *testing.T) {
	t.Parallel()

	r := newTestReader(t, &fakeBackend{latest: 500, balance: big.NewInt(12_345_678)})
	got, err := r.Balance(context.Background(), walletAddr)
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("12.345678")), "got=%s", got)

	_, err = r.Balance(context.Background(), "not-an-address")
	require.Error(t, err)
}

func TestReader_Metadata(t *testing.T) {
	t.Parallel()

	r := newTestReader(t, &fakeBackend{latest: 500, balance: big.NewInt(0)})
	meta, err := r.Metadata(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(137), meta.ChainID)
	require.Equal(t, "USDC", meta.TokenSymbol)
	require.Equal(t, int32(6), meta.TokenDecimals)
	require.Equal(t, uint64(500), meta.LatestBlock)
	require.Equal(t, common.HexToAddress(escrowAddr).Hex(), meta.EscrowAddress)
}

func TestReader_TransfersBothDirectionsWithinLookback(t *testing.T) {
	t.Parallel()

	other := "0x3333333333333333333333333333333333333333"
	b := &fakeBackend{
		latest:  500,
		balance: big.NewInt(0),
		logs: []types.Log{
			transferLog(450, 2, escrowAddr, walletAddr, 2_000_000),
			transferLog(420, 0, walletAddr, escrowAddr, 5_000_000),
			transferLog(430, 1, other, escrowAddr, 9_000_000),
			transferLog(420, 3, walletAddr, escrowAddr, 1_000_000),
		},
	}
	r := newTestReader(t, b)

	got, err := r.Transfers(context.Background(), transparency.TransferQuery{Contract: escrowAddr, Wallet: walletAddr})
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, uint64(420), got[0].BlockNumber)
	require.Equal(t, uint(0), got[0].LogIndex)
	require.True(t, got[0].Amount.Equal(decimal.NewFromInt(5)))
	require.Equal(t, uint(3), got[1].LogIndex)
	require.Equal(t, uint64(450), got[2].BlockNumber)
	require.Equal(t, int64(1_700_000_450), got[2].OccurredAt.Unix())

	require.Len(t, b.queries, 2)
	require.Equal(t, uint64(400), b.queries[0].FromBlock.Uint64())
	require.Equal(t, int32(2), b.headerCalls.Load(), "block timestamps are cached per block")
}

func TestReader_TransfersWithoutWalletReturnsAllEscrowTraffic(t *testing.T) {
	t.Parallel()

	other := "0x3333333333333333333333333333333333333333"
	r := newTestReader(t, &fakeBackend{
		latest:  500,
		balance: big.NewInt(0),
		logs: []types.Log{
			transferLog(430, 1, other, escrowAddr, 9_000_000),
			transferLog(431, 0, escrowAddr, walletAddr, 1_000_000),
			transferLog(432, 0, other, walletAddr, 1_000_000),
		},
	})

	got, err := r.Transfers(context.Background(), transparency.TransferQuery{Contract: escrowAddr})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestReader_CallFailurePropagates(t *testing.T) {
	t.Parallel()

	r := newTestReader(t, &fakeBackend{latest: 1, callErr: errors.New("rpc down")})
	_, err := r.Metadata(context.Background())
	require.Error(t, err)
}

func TestNewReader_ValidatesAddresses(t *testing.T) {
	t.Parallel()

	if _, err := newReader(&fakeBackend{}, ReaderConfig{TokenAddress: "bad"}); err == nil {
		t.Fatalf("expected invalid token address error")
	}
	if _, err := newReader(&fakeBackend{}, ReaderConfig{TokenAddress: tokenAddr, EscrowAddress: "0x12"}); err == nil {
		t.Fatalf("expected invalid escrow address error")
	}
}
