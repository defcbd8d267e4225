package deploy_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"github.com/atonomi/atonomi-deploy/internal/artifacts/artifactstest"
	"github.com/atonomi/atonomi-deploy/internal/chain"
	"github.com/atonomi/atonomi-deploy/internal/chain/chaintest"
	"github.com/atonomi/atonomi-deploy/internal/deploy"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var sender = common.HexToAddress("0x627306090abab3a6e1400e9345bc60c78a8bef57")

func TestDeploy_EstimateOnlyNeverSubmits(t *testing.T) {
	client := new(chaintest.Client)
	submitter := &chaintest.Submitter{Sender: sender}
	registry := artifactstest.Registry(t)

	client.On("EstimateGas", mock.Anything, mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return msg.From == sender && msg.To == nil && msg.GasPrice.Cmp(big.NewInt(20*params.GWei)) == 0
	})).Return(uint64(1_234_567), nil).Once()

	result, err := deploy.NewDeployer(client, submitter, registry).
		DeployAtonomiProxy(context.Background(), "20", true)
	require.NoError(t, err)

	assert.Equal(t, uint64(1_234_567), result.GasEstimate)
	assert.Equal(t, big.NewInt(20*params.GWei), result.GasPrice)
	assert.False(t, result.Submitted)
	assert.Equal(t, common.Hash{}, result.TxHash)

	client.AssertExpectations(t)
	client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "PendingNonceAt", mock.Anything, mock.Anything)
	submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestDeploy_SubmitsCreationWithEstimatedGas(t *testing.T) {
	client := new(chaintest.Client)
	submitter := &chaintest.Submitter{Sender: sender}
	registry := artifactstest.Registry(t)
	hash := common.HexToHash("0xabc")

	client.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(3*params.GWei), nil).Once()
	client.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(90_000), nil).Once()
	client.On("PendingNonceAt", mock.Anything, sender).Return(uint64(4), nil).Once()
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(req chain.TransactionRequest) bool {
		return req.To == nil &&
			req.From == sender &&
			req.Gas == 90_000 &&
			req.GasPrice.Cmp(big.NewInt(3*params.GWei)) == 0 &&
			common.Bytes2Hex(req.Data) == "6001600c60003960016000f300"
	})).Return(hash, nil).Once()

	result, err := deploy.NewDeployer(client, submitter, registry).Deploy(context.Background(), deploy.Request{
		Contract: artifacts.ContractNameStorage,
	})
	require.NoError(t, err)

	assert.True(t, result.Submitted)
	assert.Equal(t, hash, result.TxHash)
	assert.Equal(t, crypto.CreateAddress(sender, 4), result.Address)
	assert.Nil(t, result.Receipt)

	client.AssertExpectations(t)
	submitter.AssertExpectations(t)
}

func TestDeploy_WaitUsesReceiptAddress(t *testing.T) {
	client := new(chaintest.Client)
	submitter := &chaintest.Submitter{Sender: sender}
	hash := common.HexToHash("0xdef")
	deployed := common.HexToAddress("0x00000000000000000000000000000000000000d1")

	client.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(50_000), nil)
	client.On("PendingNonceAt", mock.Anything, sender).Return(uint64(0), nil)
	client.On("TransactionReceipt", mock.Anything, hash).Return(nil, ethereum.NotFound).Once()
	client.On("TransactionReceipt", mock.Anything, hash).Return(&types.Receipt{
		Status:          types.ReceiptStatusSuccessful,
		ContractAddress: deployed,
		BlockNumber:     big.NewInt(3),
	}, nil).Once()
	submitter.On("Submit", mock.Anything, mock.Anything).Return(hash, nil)

	result, err := deploy.NewDeployer(client, submitter, artifactstest.Registry(t)).Deploy(context.Background(), deploy.Request{
		Contract:     artifacts.ContractNameStorage,
		GasPriceGwei: "1",
		Wait:         true,
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, deployed, result.Address)
	require.NotNil(t, result.Receipt)
	client.AssertExpectations(t)
}

func TestDeploy_Failures(t *testing.T) {
	t.Run("unknown contract", func(t *testing.T) {
		client := new(chaintest.Client)
		_, err := deploy.NewDeployer(client, &chaintest.Submitter{Sender: sender}, artifactstest.Registry(t)).
			Deploy(context.Background(), deploy.Request{Contract: "Missing"})
		require.ErrorIs(t, err, artifacts.ErrUnknownContract)
		client.AssertNotCalled(t, "EstimateGas", mock.Anything, mock.Anything)
	})

	t.Run("unlinked library", func(t *testing.T) {
		client := new(chaintest.Client)
		_, err := deploy.NewDeployer(client, &chaintest.Submitter{Sender: sender}, artifactstest.Registry(t)).
			Deploy(context.Background(), deploy.Request{
				Contract: artifacts.ContractNameToken,
				Args:     []any{"Atonomi Token", "ATMI", big.NewInt(1), uint8(18), false},
			})
		require.ErrorIs(t, err, artifacts.ErrUnlinked)
	})

	t.Run("estimate error is returned and nothing is submitted", func(t *testing.T) {
		client := new(chaintest.Client)
		submitter := &chaintest.Submitter{Sender: sender}
		client.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(0), errors.New("execution reverted"))

		_, err := deploy.NewDeployer(client, submitter, artifactstest.Registry(t)).
			DeployAtonomiProxy(context.Background(), "1", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "execution reverted")
		submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("reverted receipt", func(t *testing.T) {
		client := new(chaintest.Client)
		submitter := &chaintest.Submitter{Sender: sender}
		hash := common.HexToHash("0x01")
		client.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(50_000), nil)
		client.On("PendingNonceAt", mock.Anything, sender).Return(uint64(0), nil)
		client.On("TransactionReceipt", mock.Anything, hash).Return(&types.Receipt{
			Status:      types.ReceiptStatusFailed,
			BlockNumber: big.NewInt(1),
		}, nil)
		submitter.On("Submit", mock.Anything, mock.Anything).Return(hash, nil)

		result, err := deploy.NewDeployer(client, submitter, artifactstest.Registry(t)).Deploy(context.Background(), deploy.Request{
			Contract:     artifacts.ContractNameStorage,
			GasPriceGwei: "1",
			Wait:         true,
			PollInterval: time.Millisecond,
		})
		require.ErrorIs(t, err, chain.ErrReverted)
		assert.True(t, result.Submitted)
	})
}

func TestDeploy_SimulatedChain(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)

	backend := simulated.NewBackend(types.GenesisAlloc{
		from: {Balance: new(big.Int).Mul(big.NewInt(10), big.NewInt(params.Ether))},
	})
	t.Cleanup(func() { _ = backend.Close() })
	client := backend.Client()

	submitter, err := chain.NewKeySubmitter(client, common.Bytes2Hex(crypto.FromECDSA(key)))
	require.NoError(t, err)

	registry := artifactstest.Registry(t)
	deployer := deploy.NewDeployer(client, submitter, registry)
	ctx := context.Background()

	library, err := deployer.Deploy(ctx, deploy.Request{Contract: artifacts.ContractNameSafeMathLib, GasPriceGwei: "2"})
	require.NoError(t, err)
	backend.Commit()

	receipt, err := chain.WaitForReceipt(ctx, client, library.TxHash, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, library.Address, receipt.ContractAddress)

	require.NoError(t, registry.Link(artifacts.ContractNameSafeMathLib, receipt.ContractAddress, artifacts.ContractNameToken))

	token, err := deployer.Deploy(ctx, deploy.Request{
		Contract:     artifacts.ContractNameToken,
		GasPriceGwei: "2",
		Args:         []any{"Atonomi Token", "ATMI", big.NewInt(1), uint8(18), false},
	})
	require.NoError(t, err)
	backend.Commit()

	receipt, err = chain.WaitForReceipt(ctx, client, token.TxHash, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(from, 1), receipt.ContractAddress)
}
