package artifacts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atonomi/atonomi-deploy/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Registry holds the artifacts available to a run, keyed by contract name.
type Registry struct {
	artifacts map[ContractName]*Artifact
	logger    *slog.Logger
}

// truffleArtifact is the subset of a build/contracts/<Name>.json file we use.
type truffleArtifact struct {
	ContractName   string          `json:"contractName"`
	ABI            json.RawMessage `json:"abi"`
	Bytecode       string          `json:"bytecode"`
	UnlinkedBinary string          `json:"unlinked_binary"`
	SourcePath     string          `json:"sourcePath"`
}

func newRegistry() *Registry {
	return &Registry{
		artifacts: make(map[ContractName]*Artifact),
		logger:    logger.Named("artifacts"),
	}
}

// LoadDir loads every *.json artifact in dir.
func LoadDir(dir string) (*Registry, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("artifacts directory not found. Directory: '%s'", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts in %s: %w", dir, err)
	}

	registry := newRegistry()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var raw truffleArtifact
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw.ContractName == "" {
			raw.ContractName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		bytecode := raw.Bytecode
		if bytecode == "" {
			bytecode = raw.UnlinkedBinary
		}

		artifact, err := newArtifact(ContractName(raw.ContractName), raw.ABI, bytecode, raw.SourcePath)
		if err != nil {
			return nil, err
		}
		registry.artifacts[artifact.Name] = artifact
	}

	registry.logger.With("dir", dir).With("len", len(registry.artifacts)).Debug("artifacts loaded")

	return registry, nil
}

// LoadBundle loads a single JSON document of the form
// {"<Name>": {"abi": [...], "bytecode": "0x..."}}.
func LoadBundle(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact bundle: %w", err)
	}
	return parseBundle(data)
}

func parseBundle(data []byte) (*Registry, error) {
	var result map[string]struct {
		ABI        json.RawMessage `json:"abi"`
		Bytecode   string          `json:"bytecode"`
		SourcePath string          `json:"sourcePath"`
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse artifact bundle: %w", err)
	}

	registry := newRegistry()
	for name, contract := range result {
		artifact, err := newArtifact(ContractName(name), contract.ABI, contract.Bytecode, contract.SourcePath)
		if err != nil {
			return nil, err
		}
		registry.artifacts[artifact.Name] = artifact
	}

	return registry, nil
}

func newArtifact(name ContractName, rawABI json.RawMessage, bytecode, sourcePath string) (*Artifact, error) {
	parsedABI, err := abi.JSON(strings.NewReader(string(rawABI)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI for %s: %w", name, err)
	}

	return &Artifact{
		Name:       name,
		SourcePath: sourcePath,
		ABI:        parsedABI,
		RawABI:     string(rawABI),
		bytecode:   strings.TrimSpace(bytecode),
	}, nil
}

// Get returns the named artifact.
func (r *Registry) Get(name ContractName) (*Artifact, error) {
	artifact, ok := r.artifacts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, name)
	}
	return artifact, nil
}

// Names lists the loaded contracts in sorted order.
func (r *Registry) Names() []ContractName {
	names := make([]ContractName, 0, len(r.artifacts))
	for name := range r.artifacts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Link writes the deployed address of library into each target's bytecode.
// With no targets every loaded artifact is linked.
func (r *Registry) Link(library ContractName, address common.Address, targets ...ContractName) error {
	var sourcePath string
	if lib, ok := r.artifacts[library]; ok {
		sourcePath = lib.SourcePath
	}

	if len(targets) == 0 {
		targets = r.Names()
	}

	for _, target := range targets {
		artifact, err := r.Get(target)
		if err != nil {
			return fmt.Errorf("failed to link %s: %w", library, err)
		}
		if artifact.Link(library, sourcePath, address) {
			r.logger.
				With("library", library).
				With("target", target).
				With("address", address.Hex()).
				Info("library linked")
		}
	}

	return nil
}
