// Package chaintest provides testify mocks for the chain interfaces.
package chaintest

import (
	"context"
	"math/big"

	"github.com/atonomi/atonomi-deploy/internal/chain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

var (
	_ chain.Client    = (*Client)(nil)
	_ chain.Submitter = (*Submitter)(nil)
)

type Client struct {
	mock.Mock
}

func (m *Client) ChainID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return bigInt(args.Get(0)), args.Error(1)
}

func (m *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return bigInt(args.Get(0)), args.Error(1)
}

func (m *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, msg, blockNumber)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

func (m *Client) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, account, blockNumber)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

func (m *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, txHash)
	receipt, _ := args.Get(0).(*types.Receipt)
	return receipt, args.Error(1)
}

// Submitter records submissions. From is fixed at construction.
type Submitter struct {
	mock.Mock
	Sender common.Address
}

func (m *Submitter) From() common.Address {
	return m.Sender
}

func (m *Submitter) Submit(ctx context.Context, req chain.TransactionRequest) (common.Hash, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(common.Hash), args.Error(1)
}

func bigInt(v any) *big.Int {
	n, _ := v.(*big.Int)
	return n
}
