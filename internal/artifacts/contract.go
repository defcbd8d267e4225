package artifacts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type (
	ContractName string

	// Artifact is a compiled contract as produced by the Solidity toolchain.
	// Bytecode stays hex encoded until every library placeholder is linked.
	Artifact struct {
		Name       ContractName
		SourcePath string
		ABI        abi.ABI
		RawABI     string
		bytecode   string
	}
)

const (
	ContractNameProxy       ContractName = "AtonomiOwnedUpgradabilityProxy"
	ContractNameSafeMathLib ContractName = "SafeMathLib"
	ContractNameToken       ContractName = "AMLToken"
	ContractNameStorage     ContractName = "AtonomiEternalStorage"
	ContractNameSettings    ContractName = "Settings"
	ContractNameAtonomi     ContractName = "Atonomi"
)

var (
	ErrUnknownContract = errors.New("unknown contract")
	ErrUnlinked        = errors.New("bytecode has unlinked library references")
)

// Bytecode returns the creation code. It fails while library placeholders
// are still present.
func (a *Artifact) Bytecode() ([]byte, error) {
	hexCode := strings.TrimPrefix(a.bytecode, "0x")
	if hexCode == "" {
		return nil, fmt.Errorf("%s has no bytecode (abstract contract or interface?)", a.Name)
	}
	if refs := a.UnlinkedReferences(); len(refs) > 0 {
		return nil, fmt.Errorf("%w: %s references %s", ErrUnlinked, a.Name, strings.Join(refs, ", "))
	}

	code, err := hexutil.Decode("0x" + hexCode)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bytecode of %s: %w", a.Name, err)
	}
	return code, nil
}

// EncodeConstructor packs args against the constructor inputs.
func (a *Artifact) EncodeConstructor(args ...any) ([]byte, error) {
	if len(a.ABI.Constructor.Inputs) != len(args) {
		return nil, fmt.Errorf("%s constructor takes %d arguments, got %d", a.Name, len(a.ABI.Constructor.Inputs), len(args))
	}
	packed, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s constructor: %w", a.Name, err)
	}
	return packed, nil
}

// CreationData is the linked bytecode followed by the encoded constructor
// arguments.
func (a *Artifact) CreationData(args ...any) ([]byte, error) {
	code, err := a.Bytecode()
	if err != nil {
		return nil, err
	}
	packed, err := a.EncodeConstructor(args...)
	if err != nil {
		return nil, err
	}
	return append(code, packed...), nil
}

// Link substitutes every placeholder for library with address. It reports
// whether anything was replaced.
func (a *Artifact) Link(library ContractName, librarySourcePath string, address common.Address) bool {
	addr := strings.ToLower(strings.TrimPrefix(address.Hex(), "0x"))
	before := a.bytecode

	for _, placeholder := range placeholders(library, librarySourcePath) {
		a.bytecode = strings.ReplaceAll(a.bytecode, placeholder, addr)
	}

	return before != a.bytecode
}

// UnlinkedReferences lists the placeholders still present in the bytecode.
func (a *Artifact) UnlinkedReferences() []string {
	var refs []string
	seen := make(map[string]struct{})

	code := a.bytecode
	for {
		i := strings.Index(code, "__")
		if i < 0 {
			break
		}
		if len(code) < i+placeholderLength {
			refs = appendUnique(refs, seen, code[i:])
			break
		}
		refs = appendUnique(refs, seen, code[i:i+placeholderLength])
		code = code[i+placeholderLength:]
	}

	return refs
}

func appendUnique(refs []string, seen map[string]struct{}, ref string) []string {
	if _, ok := seen[ref]; ok {
		return refs
	}
	seen[ref] = struct{}{}
	return append(refs, ref)
}
