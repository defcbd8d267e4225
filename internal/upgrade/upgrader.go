// Package upgrade points the Atonomi upgradability proxy at a new
// implementation.
package upgrade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/atonomi/atonomi-deploy/internal/chain"
	"github.com/atonomi/atonomi-deploy/internal/logger"
	"github.com/atonomi/atonomi-deploy/internal/units"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
)

var (
	funcUpgradeTo        = w3.MustNewFunc("upgradeTo(address)", "")
	funcUpgradeToAndCall = w3.MustNewFunc("upgradeToAndCall(address,bytes)", "")
	funcImplementation   = w3.MustNewFunc("implementation()", "address")
	funcProxyOwner       = w3.MustNewFunc("proxyOwner()", "address")
)

type (
	Request struct {
		Proxy          common.Address
		Implementation common.Address
		GasPriceGwei   string
		EstimateOnly   bool
		// CallData, when set, is executed against the new implementation in
		// the same transaction through upgradeToAndCall.
		CallData []byte
	}

	Result struct {
		Proxy       common.Address
		GasPrice    *big.Int
		GasEstimate uint64
		Submitted   bool
		TxHash      common.Hash
	}

	// ProxyState is what the proxy reports about itself.
	ProxyState struct {
		Implementation common.Address
		Owner          common.Address
	}

	Upgrader struct {
		client    chain.Client
		submitter chain.Submitter
		logger    *slog.Logger
	}
)

func NewUpgrader(client chain.Client, submitter chain.Submitter) *Upgrader {
	return &Upgrader{
		client:    client,
		submitter: submitter,
		logger:    logger.Named("upgrade"),
	}
}

// Upgrade estimates and optionally sends the upgrade call. The transaction
// is always addressed to req.Proxy.
func (u *Upgrader) Upgrade(ctx context.Context, req Request) (Result, error) {
	if req.Proxy == (common.Address{}) {
		return Result{}, errors.New("proxy address is required")
	}
	if req.Implementation == (common.Address{}) {
		return Result{}, errors.New("implementation address is required")
	}

	log := u.logger.
		With("proxy", req.Proxy.Hex()).
		With("implementation", req.Implementation.Hex())

	data, err := encodeUpgrade(req.Implementation, req.CallData)
	if err != nil {
		return Result{}, err
	}

	gasPrice, err := chain.GasPrice(ctx, u.client, req.GasPriceGwei)
	if err != nil {
		return Result{}, err
	}
	log.With("gas_price_gwei", units.FromWei(gasPrice, units.Gwei)).Info("gas price")

	proxy := req.Proxy
	from := u.submitter.From()
	gas, err := u.client.EstimateGas(ctx, ethereum.CallMsg{
		From:     from,
		To:       &proxy,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to estimate gas for upgrade of %s: %w", proxy.Hex(), err)
	}
	log.With("gas", gas).Info("gas estimate")

	result := Result{
		Proxy:       proxy,
		GasPrice:    gasPrice,
		GasEstimate: gas,
	}
	if req.EstimateOnly {
		return result, nil
	}

	hash, err := u.submitter.Submit(ctx, chain.TransactionRequest{
		From:     from,
		To:       &proxy,
		Data:     data,
		Gas:      gas,
		GasPrice: gasPrice,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to upgrade %s: %w", proxy.Hex(), err)
	}
	result.Submitted = true
	result.TxHash = hash
	log.With("tx_hash", hash.Hex()).Info("txn hash")

	return result, nil
}

// Inspect reads the current implementation and owner from the proxy.
func (u *Upgrader) Inspect(ctx context.Context, proxy common.Address) (ProxyState, error) {
	code, err := u.client.CodeAt(ctx, proxy, nil)
	if err != nil {
		return ProxyState{}, fmt.Errorf("failed to get code at %s: %w", proxy.Hex(), err)
	}
	if len(code) == 0 {
		return ProxyState{}, fmt.Errorf("no contract deployed at %s", proxy.Hex())
	}

	var state ProxyState
	if err := u.call(ctx, proxy, "implementation", funcImplementation, &state.Implementation); err != nil {
		return ProxyState{}, err
	}
	if err := u.call(ctx, proxy, "proxyOwner", funcProxyOwner, &state.Owner); err != nil {
		return ProxyState{}, err
	}

	u.logger.
		With("proxy", proxy.Hex()).
		With("implementation", state.Implementation.Hex()).
		With("owner", state.Owner.Hex()).
		Info("proxy state")

	return state, nil
}

func (u *Upgrader) call(ctx context.Context, to common.Address, name string, fn *w3.Func, out *common.Address) error {
	input, err := fn.EncodeArgs()
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	output, err := u.client.CallContract(ctx, ethereum.CallMsg{From: u.submitter.From(), To: &to, Data: input}, nil)
	if err != nil {
		return fmt.Errorf("call %s on %s: %w", name, to.Hex(), err)
	}
	if err := fn.DecodeReturns(output, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func encodeUpgrade(implementation common.Address, callData []byte) ([]byte, error) {
	if len(callData) == 0 {
		data, err := funcUpgradeTo.EncodeArgs(implementation)
		if err != nil {
			return nil, fmt.Errorf("encode upgradeTo: %w", err)
		}
		return data, nil
	}

	data, err := funcUpgradeToAndCall.EncodeArgs(implementation, callData)
	if err != nil {
		return nil, fmt.Errorf("encode upgradeToAndCall: %w", err)
	}
	return data, nil
}
