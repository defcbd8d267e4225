// Package output writes the addresses of a finished migration to disk.
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"github.com/atonomi/atonomi-deploy/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

const (
	contractsFileName = "contracts.json"
	fragmentFileName  = "output.yaml"
)

type (
	Deployment struct {
		Network   configs.NetworkName
		ChainID   uint64
		RPCURL    string
		Contracts map[artifacts.ContractName]common.Address
	}

	// Paths are the files written by Generate.
	Paths struct {
		Contracts string
		Fragment  string
	}

	Generator struct {
		dir      string
		registry *artifacts.Registry
		logger   *slog.Logger
	}
)

// NewGenerator writes under dir/<network>. The registry supplies ABIs for the
// YAML fragment and may be nil.
func NewGenerator(dir string, registry *artifacts.Registry) *Generator {
	return &Generator{
		dir:      dir,
		registry: registry,
		logger:   logger.Named("output"),
	}
}

func (g *Generator) Generate(_ context.Context, d Deployment) (Paths, error) {
	networkDir := filepath.Join(g.dir, string(d.Network))
	paths := Paths{
		Contracts: filepath.Join(networkDir, contractsFileName),
		Fragment:  filepath.Join(networkDir, fragmentFileName),
	}

	addresses := make(map[string]string, len(d.Contracts))
	for name, addr := range d.Contracts {
		addresses[string(name)] = addr.Hex()
	}
	if err := writeJSON(paths.Contracts, ContractsFile{
		ChainInfo: ChainInfo{ChainID: d.ChainID},
		Addresses: addresses,
	}); err != nil {
		return Paths{}, err
	}

	data, err := yaml.Marshal(g.model(d))
	if err != nil {
		return Paths{}, fmt.Errorf("could not marshal output model. Err: '%w'", err)
	}
	if err := os.WriteFile(paths.Fragment, data, 0644); err != nil {
		return Paths{}, fmt.Errorf("could not write output file. Err: '%w'", err)
	}

	g.logger.
		With("contracts", paths.Contracts).
		With("fragment", paths.Fragment).
		Info("deployment output written")

	return paths, nil
}

func (g *Generator) model(d Deployment) *Model {
	entry := NetworkEntry{RPCURL: d.RPCURL}
	for name, field := range map[artifacts.ContractName]*string{
		artifacts.ContractNameToken:    &entry.Token,
		artifacts.ContractNameAtonomi:  &entry.Atonomi,
		artifacts.ContractNameProxy:    &entry.Proxy,
		artifacts.ContractNameSettings: &entry.Settings,
	} {
		if addr, ok := d.Contracts[name]; ok {
			*field = strings.ToLower(addr.Hex())
		}
	}

	contracts := make(map[string]ContractConfig, len(d.Contracts))
	names := make([]artifacts.ContractName, 0, len(d.Contracts))
	for name := range d.Contracts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, name := range names {
		cfg := ContractConfig{Address: d.Contracts[name]}
		if g.registry != nil {
			if artifact, err := g.registry.Get(name); err == nil {
				cfg.ABI = SingleQuotedString(compactJSON(artifact.RawABI))
			}
		}
		contracts[strings.ToLower(string(name))] = cfg
	}

	return &Model{
		Networks:  map[configs.NetworkName]NetworkEntry{d.Network: entry},
		Contracts: contracts,
	}
}

func writeJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON for %s: %w", path, err)
	}

	if err := os.WriteFile(path, append(content, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func compactJSON(jsonStr string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(jsonStr)); err != nil {
		return jsonStr
	}
	return buf.String()
}
