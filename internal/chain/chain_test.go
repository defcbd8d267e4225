package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method string
	args   []any
}

type fakeRPC struct {
	calls []recordedCall
	hash  common.Hash
	err   error
}

func (f *fakeRPC) CallContext(_ context.Context, result any, method string, args ...any) error {
	f.calls = append(f.calls, recordedCall{method: method, args: args})
	if f.err != nil {
		return f.err
	}
	*(result.(*common.Hash)) = f.hash
	return nil
}

func TestNodeSubmitter_Submit(t *testing.T) {
	from := common.HexToAddress("0x627306090abab3a6e1400e9345bc60c78a8bef57")
	proxy := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	rpc := &fakeRPC{hash: common.HexToHash("0x01")}
	submitter := NewNodeSubmitter(rpc, from)

	t.Run("contract creation omits recipient", func(t *testing.T) {
		hash, err := submitter.Submit(context.Background(), TransactionRequest{
			From:     from,
			Data:     []byte{0x60, 0x01},
			Gas:      21_000,
			GasPrice: big.NewInt(params.GWei),
		})
		require.NoError(t, err)
		assert.Equal(t, rpc.hash, hash)

		call := rpc.calls[len(rpc.calls)-1]
		assert.Equal(t, "eth_sendTransaction", call.method)
		require.Len(t, call.args, 1)
		args := call.args[0].(map[string]any)
		assert.Equal(t, from, args["from"])
		assert.Equal(t, hexutil.Bytes{0x60, 0x01}, args["data"])
		assert.Equal(t, hexutil.Uint64(21_000), args["gas"])
		assert.Equal(t, (*hexutil.Big)(big.NewInt(params.GWei)), args["gasPrice"])
		assert.NotContains(t, args, "to")
	})

	t.Run("call carries recipient", func(t *testing.T) {
		_, err := submitter.Submit(context.Background(), TransactionRequest{To: &proxy, Gas: 50_000})
		require.NoError(t, err)

		args := rpc.calls[len(rpc.calls)-1].args[0].(map[string]any)
		assert.Equal(t, proxy, args["to"])
		assert.NotContains(t, args, "gasPrice")
	})

	t.Run("propagates node errors", func(t *testing.T) {
		failing := NewNodeSubmitter(&fakeRPC{err: errors.New("authentication needed: password or unlock")}, from)
		_, err := failing.Submit(context.Background(), TransactionRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unlock")
	})
}

func TestKeySubmitter_SimulatedChain(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)

	backend := simulated.NewBackend(types.GenesisAlloc{
		from: {Balance: new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))},
	})
	t.Cleanup(func() { _ = backend.Close() })
	client := backend.Client()

	submitter, err := NewKeySubmitter(client, hexutil.Encode(crypto.FromECDSA(key)))
	require.NoError(t, err)
	assert.Equal(t, from, submitter.From())

	ctx := context.Background()
	data := common.FromHex("0x6001600c60003960016000f300")
	gas, err := client.EstimateGas(ctx, ethereum.CallMsg{From: from, Data: data})
	require.NoError(t, err)

	hash, err := submitter.Submit(ctx, TransactionRequest{
		From:     from,
		Data:     data,
		Gas:      gas,
		GasPrice: big.NewInt(2 * params.GWei),
	})
	require.NoError(t, err)
	backend.Commit()

	receipt, err := WaitForReceipt(ctx, client, hash, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(from, 0), receipt.ContractAddress)

	code, err := client.CodeAt(ctx, receipt.ContractAddress, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, code)

	_, err = submitter.Submit(ctx, TransactionRequest{From: common.HexToAddress("0x01")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match key address")
}

func TestNewKeySubmitter_InvalidKey(t *testing.T) {
	_, err := NewKeySubmitter(nil, "0xnothex")
	require.Error(t, err)
}

type scriptedReceipts struct {
	responses []func() (*types.Receipt, error)
	calls     int
}

func (s *scriptedReceipts) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return s.responses[i]()
}

func TestWaitForReceipt(t *testing.T) {
	hash := common.HexToHash("0xbeef")
	notFound := func() (*types.Receipt, error) { return nil, ethereum.NotFound }

	t.Run("polls until mined", func(t *testing.T) {
		reader := &scriptedReceipts{responses: []func() (*types.Receipt, error){
			notFound,
			notFound,
			func() (*types.Receipt, error) {
				return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(7)}, nil
			},
		}}
		receipt, err := WaitForReceipt(context.Background(), reader, hash, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, int64(7), receipt.BlockNumber.Int64())
		assert.Equal(t, 3, reader.calls)
	})

	t.Run("reverted", func(t *testing.T) {
		reader := &scriptedReceipts{responses: []func() (*types.Receipt, error){
			func() (*types.Receipt, error) {
				return &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(9)}, nil
			},
		}}
		_, err := WaitForReceipt(context.Background(), reader, hash, time.Millisecond)
		require.ErrorIs(t, err, ErrReverted)
	})

	t.Run("rpc failure", func(t *testing.T) {
		reader := &scriptedReceipts{responses: []func() (*types.Receipt, error){
			func() (*types.Receipt, error) { return nil, errors.New("connection refused") },
		}}
		_, err := WaitForReceipt(context.Background(), reader, hash, time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		reader := &scriptedReceipts{responses: []func() (*types.Receipt, error){notFound}}
		_, err := WaitForReceipt(ctx, reader, hash, 5*time.Millisecond)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
