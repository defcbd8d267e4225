// Package manifest describes an ordered migration as YAML and runs it
// against a deployer.
package manifest

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

var ErrNetworkNotAllowed = errors.New("manifest does not target this network")

type (
	// Step is either a deployment or a library link, never both.
	Step struct {
		Deploy artifacts.ContractName   `yaml:"deploy,omitempty"`
		Link   artifacts.ContractName   `yaml:"link,omitempty"`
		Into   []artifacts.ContractName `yaml:"into,omitempty"`
		Args   Args                     `yaml:"args,omitempty"`
	}

	// Args are constructor arguments as written. Numeric scalars keep their
	// source text so integers wider than 64 bits reach the ABI encoder intact.
	Args []any

	Manifest struct {
		Name     string                `yaml:"name"`
		Networks []configs.NetworkName `yaml:"networks"`
		// Profile selects the parameters section used for ${params.*}.
		Profile configs.ProfileName `yaml:"profile,omitempty"`
		Steps   []Step              `yaml:"steps"`
	}
)

func (a *Args) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: args must be a list", value.Line)
	}

	out := make(Args, len(value.Content))
	for i, node := range value.Content {
		if node.Kind == yaml.ScalarNode {
			switch node.ShortTag() {
			case "!!int", "!!float":
				out[i] = strings.ReplaceAll(node.Value, "_", "")
				continue
			}
		}

		var v any
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		out[i] = v
	}

	*a = out
	return nil
}

// Parse decodes and validates a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load returns the built-in manifest called name, or reads name as a file.
func Load(name string) (*Manifest, error) {
	if slices.Contains(BuiltinNames(), name) {
		return Builtin(name)
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

func Builtin(name string) (*Manifest, error) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown built-in manifest %q", name)
	}
	return Parse(data)
}

// BuiltinNames lists the embedded manifests in sorted order.
func BuiltinNames() []string {
	entries, _ := builtinFS.ReadDir("builtin")
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

func (m *Manifest) Validate() error {
	var errs []error

	if m.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(m.Networks) == 0 {
		errs = append(errs, errors.New("at least one network is required"))
	}
	if len(m.Steps) == 0 {
		errs = append(errs, errors.New("at least one step is required"))
	}
	for i, step := range m.Steps {
		switch {
		case step.Deploy != "" && step.Link != "":
			errs = append(errs, fmt.Errorf("step %d: deploy and link are exclusive", i+1))
		case step.Deploy == "" && step.Link == "":
			errs = append(errs, fmt.Errorf("step %d: deploy or link is required", i+1))
		case step.Link != "" && len(step.Args) > 0:
			errs = append(errs, fmt.Errorf("step %d: link takes no args", i+1))
		case step.Deploy != "" && len(step.Into) > 0:
			errs = append(errs, fmt.Errorf("step %d: into is only valid for link", i+1))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("manifest %q is invalid: %w", m.Name, errors.Join(errs...))
	}
	return nil
}

// Allows reports whether the manifest may run on network.
func (m *Manifest) Allows(network configs.NetworkName) bool {
	return slices.Contains(m.Networks, network)
}

func (s Step) String() string {
	if s.Link != "" {
		if len(s.Into) == 0 {
			return fmt.Sprintf("link %s", s.Link)
		}
		into := make([]string, len(s.Into))
		for i, target := range s.Into {
			into[i] = string(target)
		}
		return fmt.Sprintf("link %s into %s", s.Link, strings.Join(into, ", "))
	}
	return fmt.Sprintf("deploy %s", s.Deploy)
}
