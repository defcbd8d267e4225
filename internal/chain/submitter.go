package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

type (
	// TransactionRequest is built fresh for every submission and discarded
	// afterwards. A nil To creates a contract.
	TransactionRequest struct {
		From     common.Address
		To       *common.Address
		Data     []byte
		Gas      uint64
		GasPrice *big.Int
	}

	// Submitter sends transactions on behalf of one fixed sender.
	Submitter interface {
		From() common.Address
		Submit(ctx context.Context, req TransactionRequest) (common.Hash, error)
	}

	rpcCaller interface {
		CallContext(ctx context.Context, result any, method string, args ...any) error
	}

	// KeySubmitter signs legacy transactions locally and broadcasts them.
	KeySubmitter struct {
		client Client
		key    *ecdsa.PrivateKey
		from   common.Address
	}

	// NodeSubmitter asks the node to sign with one of its unlocked accounts
	// through eth_sendTransaction.
	NodeSubmitter struct {
		rpc  rpcCaller
		from common.Address
	}
)

var (
	_ Submitter = (*KeySubmitter)(nil)
	_ Submitter = (*NodeSubmitter)(nil)
)

// NewKeySubmitter parses a hex private key, with or without 0x prefix.
func NewKeySubmitter(client Client, privateKeyHex string) (*KeySubmitter, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &KeySubmitter{
		client: client,
		key:    key,
		from:   crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *KeySubmitter) From() common.Address {
	return s.from
}

func (s *KeySubmitter) Submit(ctx context.Context, req TransactionRequest) (common.Hash, error) {
	if req.From != (common.Address{}) && req.From != s.from {
		return common.Hash{}, fmt.Errorf("request sender %s does not match key address %s", req.From.Hex(), s.from.Hex())
	}

	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get chain ID: %w", err)
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       req.To,
		Gas:      req.Gas,
		GasPrice: req.GasPrice,
		Data:     req.Data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash(), nil
}

func NewNodeSubmitter(rpc rpcCaller, from common.Address) *NodeSubmitter {
	return &NodeSubmitter{rpc: rpc, from: from}
}

func (s *NodeSubmitter) From() common.Address {
	return s.from
}

func (s *NodeSubmitter) Submit(ctx context.Context, req TransactionRequest) (common.Hash, error) {
	args := map[string]any{
		"from": s.from,
		"data": hexutil.Bytes(req.Data),
		"gas":  hexutil.Uint64(req.Gas),
	}
	if req.To != nil {
		args["to"] = *req.To
	}
	if req.GasPrice != nil {
		args["gasPrice"] = (*hexutil.Big)(req.GasPrice)
	}

	var hash common.Hash
	if err := s.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction failed: %w", err)
	}

	return hash, nil
}
