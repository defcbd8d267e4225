package output

import (
	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

type (
	// Model is the YAML fragment written after a migration. Its networks
	// section has the shape of the networks section in config.yaml.
	Model struct {
		Networks  map[configs.NetworkName]NetworkEntry `yaml:"networks"`
		Contracts map[string]ContractConfig            `yaml:"contracts"`
	}

	NetworkEntry struct {
		RPCURL   string `yaml:"rpc-url,omitempty"`
		Token    string `yaml:"token,omitempty"`
		Atonomi  string `yaml:"atonomi,omitempty"`
		Proxy    string `yaml:"proxy,omitempty"`
		Settings string `yaml:"settings,omitempty"`
	}

	ContractConfig struct {
		Address common.Address     `yaml:"address"`
		ABI     SingleQuotedString `yaml:"abi"`
	}

	ContractsFile struct {
		ChainInfo ChainInfo         `json:"chainInfo"`
		Addresses map[string]string `json:"addresses"`
	}

	ChainInfo struct {
		ChainID uint64 `json:"chainId"`
	}

	SingleQuotedString string
)

func (s SingleQuotedString) MarshalYAML() (any, error) {
	node := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.SingleQuotedStyle,
		Value: string(s),
	}
	return node, nil
}
