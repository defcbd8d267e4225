package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"github.com/atonomi/atonomi-deploy/internal/parameters"
	"github.com/ethereum/go-ethereum/common"
)

var referencePattern = regexp.MustCompile(`^\$\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}$`)

const (
	refOwner  = "owner"
	refParams = "params."
)

// Scope is what step arguments can reference: ${owner}, ${params.<name>} and
// ${<Contract>} for any contract deployed earlier in the run.
type Scope struct {
	Owner    common.Address
	Params   parameters.Values
	Deployed map[artifacts.ContractName]common.Address
}

// Resolve replaces a reference with its value and returns literals as they are.
func (s Scope) Resolve(value any) (any, error) {
	raw, ok := value.(string)
	if !ok {
		return value, nil
	}
	match := referencePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return value, nil
	}

	ref := match[1]
	switch {
	case ref == refOwner:
		return s.Owner, nil
	case strings.HasPrefix(ref, refParams):
		name := strings.TrimPrefix(ref, refParams)
		v, ok := s.Params.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown parameter %q (known: %s)", name, strings.Join(s.Params.Names(), ", "))
		}
		return v, nil
	}

	addr, ok := s.Deployed[artifacts.ContractName(ref)]
	if !ok {
		return nil, fmt.Errorf("%s has not been deployed by an earlier step", ref)
	}
	return addr, nil
}

// ResolveAll resolves every value in order.
func (s Scope) ResolveAll(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, value := range values {
		resolved, err := s.Resolve(value)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = resolved
	}
	return out, nil
}
