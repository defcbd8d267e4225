// Package deploy publishes a compiled contract with a contract-creation
// transaction.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"github.com/atonomi/atonomi-deploy/internal/chain"
	"github.com/atonomi/atonomi-deploy/internal/logger"
	"github.com/atonomi/atonomi-deploy/internal/units"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const defaultPollInterval = 2 * time.Second

type (
	Request struct {
		Contract artifacts.ContractName
		// GasPriceGwei is a decimal gwei amount. Empty uses the node's suggestion.
		GasPriceGwei string
		EstimateOnly bool
		// Args are already typed for the constructor; see Artifact.ConstructorArgs.
		Args []any
		// Wait blocks until the creation receipt is available.
		Wait         bool
		PollInterval time.Duration
		// ReceiptTimeout bounds the wait. Zero waits as long as ctx allows.
		ReceiptTimeout time.Duration
	}

	Result struct {
		Contract    artifacts.ContractName
		GasPrice    *big.Int
		GasEstimate uint64
		Submitted   bool
		TxHash      common.Hash
		// Address is predicted from the sender nonce and replaced by the
		// receipt's contract address once Wait confirms it.
		Address common.Address
		Receipt *types.Receipt
	}

	Deployer struct {
		client    chain.Client
		submitter chain.Submitter
		registry  *artifacts.Registry
		logger    *slog.Logger
	}
)

func NewDeployer(client chain.Client, submitter chain.Submitter, registry *artifacts.Registry) *Deployer {
	return &Deployer{
		client:    client,
		submitter: submitter,
		registry:  registry,
		logger:    logger.Named("deploy"),
	}
}

// Registry exposes the artifacts the deployer publishes from, so callers can
// link libraries between deployments.
func (d *Deployer) Registry() *artifacts.Registry {
	return d.registry
}

// From is the fixed sender of every deployment.
func (d *Deployer) From() common.Address {
	return d.submitter.From()
}

// Deploy estimates the gas for creating req.Contract and, unless
// EstimateOnly is set, submits the creation transaction.
func (d *Deployer) Deploy(ctx context.Context, req Request) (Result, error) {
	log := d.logger.With("contract", req.Contract)

	artifact, err := d.registry.Get(req.Contract)
	if err != nil {
		return Result{}, err
	}

	data, err := artifact.CreationData(req.Args...)
	if err != nil {
		return Result{}, err
	}

	gasPrice, err := chain.GasPrice(ctx, d.client, req.GasPriceGwei)
	if err != nil {
		return Result{}, err
	}
	log.With("gas_price_gwei", units.FromWei(gasPrice, units.Gwei)).Info("gas price")

	from := d.submitter.From()
	gas, err := d.client.EstimateGas(ctx, ethereum.CallMsg{
		From:     from,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to estimate gas for %s: %w", req.Contract, err)
	}
	log.With("gas", gas).Info("gas estimate")

	result := Result{
		Contract:    req.Contract,
		GasPrice:    gasPrice,
		GasEstimate: gas,
	}
	if req.EstimateOnly {
		return result, nil
	}

	nonce, err := d.client.PendingNonceAt(ctx, from)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get nonce: %w", err)
	}
	result.Address = crypto.CreateAddress(from, nonce)

	hash, err := d.submitter.Submit(ctx, chain.TransactionRequest{
		From:     from,
		Data:     data,
		Gas:      gas,
		GasPrice: gasPrice,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to deploy %s: %w", req.Contract, err)
	}
	result.Submitted = true
	result.TxHash = hash
	log.With("tx_hash", hash.Hex()).With("address", result.Address.Hex()).Info("txn hash")

	if !req.Wait {
		return result, nil
	}

	interval := req.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	waitCtx := ctx
	if req.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, req.ReceiptTimeout)
		defer cancel()
	}
	receipt, err := chain.WaitForReceipt(waitCtx, d.client, hash, interval)
	if err != nil {
		return result, fmt.Errorf("failed to deploy %s: %w", req.Contract, err)
	}
	result.Receipt = receipt
	if receipt.ContractAddress != (common.Address{}) {
		result.Address = receipt.ContractAddress
	}
	log.With("address", result.Address.Hex()).With("block", receipt.BlockNumber).Info("contract deployed")

	return result, nil
}

// DeployAtonomiProxy deploys the upgradability proxy, which takes no
// constructor arguments.
func (d *Deployer) DeployAtonomiProxy(ctx context.Context, gasPriceGwei string, estimateOnly bool) (Result, error) {
	return d.Deploy(ctx, Request{
		Contract:     artifacts.ContractNameProxy,
		GasPriceGwei: gasPriceGwei,
		EstimateOnly: estimateOnly,
	})
}
