package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Connection bundles a dialed node with the sender that signs for this run.
type Connection struct {
	Client    *ethclient.Client
	Submitter Submitter
	ChainID   *big.Int
}

// Connect dials rpcURL and picks a local-key or node-account submitter from
// sender. A non-zero expectedChainID must match the node.
func Connect(ctx context.Context, rpcURL string, sender configs.Sender, expectedChainID int64) (*Connection, error) {
	log := logger.Named("chain")

	log.With("url", rpcURL).Info("dialing the RPC")
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	log.With("chain_id", chainID).Info("chain ID was fetched")

	if expectedChainID != 0 && chainID.Cmp(big.NewInt(expectedChainID)) != 0 {
		client.Close()
		return nil, fmt.Errorf("node at %s reports chain ID %s, expected %d", rpcURL, chainID, expectedChainID)
	}

	submitter, err := newSubmitter(client, sender)
	if err != nil {
		client.Close()
		return nil, err
	}
	log.With("sender", submitter.From().Hex()).Info("sender configured")

	return &Connection{
		Client:    client,
		Submitter: submitter,
		ChainID:   chainID,
	}, nil
}

func (c *Connection) Close() {
	c.Client.Close()
}

func newSubmitter(client *ethclient.Client, sender configs.Sender) (Submitter, error) {
	if sender.PrivateKey == "" {
		if !common.IsHexAddress(sender.Address) {
			return nil, fmt.Errorf("sender address %q is not a hex address", sender.Address)
		}
		return NewNodeSubmitter(client.Client(), common.HexToAddress(sender.Address)), nil
	}

	submitter, err := NewKeySubmitter(client, sender.PrivateKey)
	if err != nil {
		return nil, err
	}

	if sender.Address != "" && common.HexToAddress(sender.Address) != submitter.From() {
		return nil, fmt.Errorf("sender address %s does not match private key address %s", sender.Address, submitter.From().Hex())
	}

	return submitter, nil
}
