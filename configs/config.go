package configs

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var Values Config

type (
	NetworkName string
	ProfileName string

	Config struct {
		LogLevel   string                           `mapstructure:"log-level"`
		Network    NetworkName                      `mapstructure:"network"`
		Chain      Chain                            `mapstructure:"chain"`
		Sender     Sender                           `mapstructure:"sender"`
		Artifacts  Artifacts                        `mapstructure:"artifacts"`
		Parameters map[ProfileName]Parameters       `mapstructure:"parameters"`
		Networks   map[NetworkName]NetworkAddresses `mapstructure:"networks"`
		Output     Output                           `mapstructure:"output"`
		Journal    Journal                          `mapstructure:"journal"`
		Devnet     Devnet                           `mapstructure:"devnet"`
	}

	Chain struct {
		RPCURL              string        `mapstructure:"rpc-url"`
		ChainID             int64         `mapstructure:"chain-id"`
		ReceiptPollInterval time.Duration `mapstructure:"receipt-poll-interval"`
		ReceiptTimeout      time.Duration `mapstructure:"receipt-timeout"`
	}

	// Sender is the fixed account every transaction is sent from. When a private
	// key is set transactions are signed locally, otherwise the node is asked to
	// sign for Address through eth_sendTransaction.
	Sender struct {
		Address    string `mapstructure:"address"`
		PrivateKey string `mapstructure:"private-key"`
	}

	Artifacts struct {
		Dir    string `mapstructure:"dir"`
		Bundle string `mapstructure:"bundle"`
	}

	// Parameters holds deployment constants in base (whole-token) units.
	Parameters struct {
		TokenName       string `mapstructure:"token-name"`
		TokenSymbol     string `mapstructure:"token-symbol"`
		TokenDecimals   uint8  `mapstructure:"token-decimals"`
		InitialSupply   string `mapstructure:"initial-supply"`
		RegFee          string `mapstructure:"reg-fee"`
		ActFee          string `mapstructure:"act-fee"`
		RepReward       string `mapstructure:"rep-reward"`
		ReputationShare uint64 `mapstructure:"reputation-share"`
		BlockThreshold  uint64 `mapstructure:"block-threshold"`
	}

	NetworkAddresses struct {
		RPCURL   string `mapstructure:"rpc-url"`
		Token    string `mapstructure:"token"`
		Atonomi  string `mapstructure:"atonomi"`
		Proxy    string `mapstructure:"proxy"`
		Settings string `mapstructure:"settings"`
	}

	Output struct {
		Dir string `mapstructure:"dir"`
	}

	Journal struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	}

	Devnet struct {
		Image         string `mapstructure:"image"`
		ContainerName string `mapstructure:"container-name"`
		Port          int    `mapstructure:"port"`
		ChainID       int64  `mapstructure:"chain-id"`
		Accounts      int    `mapstructure:"accounts"`
	}
)

const (
	NetworkDevelopment NetworkName = "development"
	NetworkMainnet     NetworkName = "mainnet"
	NetworkKovan       NetworkName = "kovan"

	ProfileRelease     ProfileName = "release"
	ProfileDevelopment ProfileName = "development"
)

// RPCURL returns the endpoint for the selected network. An explicit
// chain.rpc-url always wins over the per-network entry.
func (c *Config) RPCURL() string {
	if c.Chain.RPCURL != "" {
		return c.Chain.RPCURL
	}
	return c.Networks[c.Network].RPCURL
}

// ValidateChain checks what every command talking to a node needs.
func (c *Config) ValidateChain() error {
	var errs []error

	if c.Network == "" {
		errs = append(errs, errors.New("network is required"))
	}
	if c.RPCURL() == "" {
		errs = append(errs, fmt.Errorf("chain.rpc-url or networks.%s.rpc-url is required", c.Network))
	}
	if c.Sender.Address == "" && c.Sender.PrivateKey == "" {
		errs = append(errs, errors.New("sender.address or sender.private-key is required"))
	}
	if c.Sender.Address != "" && !common.IsHexAddress(c.Sender.Address) {
		errs = append(errs, fmt.Errorf("sender.address %q is not a hex address", c.Sender.Address))
	}
	if c.Artifacts.Dir == "" && c.Artifacts.Bundle == "" {
		errs = append(errs, errors.New("artifacts.dir or artifacts.bundle is required"))
	}
	if c.Chain.ReceiptPollInterval <= 0 {
		errs = append(errs, errors.New("chain.receipt-poll-interval must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("chain configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (p *Parameters) Validate() error {
	var errs []error

	if p.TokenName == "" {
		errs = append(errs, errors.New("token-name is required"))
	}
	if p.TokenSymbol == "" {
		errs = append(errs, errors.New("token-symbol is required"))
	}
	if p.InitialSupply == "" {
		errs = append(errs, errors.New("initial-supply is required"))
	}
	if p.RegFee == "" {
		errs = append(errs, errors.New("reg-fee is required"))
	}
	if p.ActFee == "" {
		errs = append(errs, errors.New("act-fee is required"))
	}
	if p.RepReward == "" {
		errs = append(errs, errors.New("rep-reward is required"))
	}
	if p.ReputationShare > 100 {
		errs = append(errs, fmt.Errorf("reputation-share must be a percentage, got %d", p.ReputationShare))
	}
	if p.BlockThreshold == 0 {
		errs = append(errs, errors.New("block-threshold is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("parameters validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (d *Devnet) Validate() error {
	var errs []error

	if d.Image == "" {
		errs = append(errs, errors.New("devnet.image is required"))
	}
	if d.ContainerName == "" {
		errs = append(errs, errors.New("devnet.container-name is required"))
	}
	if d.Port <= 0 || d.Port > 65535 {
		errs = append(errs, fmt.Errorf("devnet.port %d is out of range", d.Port))
	}
	if d.ChainID == 0 {
		errs = append(errs, errors.New("devnet.chain-id is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("devnet configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}
