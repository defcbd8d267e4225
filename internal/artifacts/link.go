package artifacts

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// A placeholder occupies the 40 hex characters an address will take.
const placeholderLength = 40

// placeholders returns the spellings a compiler may have used for library in
// unlinked bytecode: the legacy "__Name___..." form and the hashed
// "__$<keccak>$__" form keyed by "<source>:<Name>".
func placeholders(library ContractName, sourcePath string) []string {
	out := []string{legacyPlaceholder(string(library))}
	if sourcePath != "" {
		out = append(out, hashedPlaceholder(sourcePath+":"+string(library)))
	}
	out = append(out, hashedPlaceholder(string(library)))
	return out
}

func legacyPlaceholder(name string) string {
	label := "__" + name
	if len(label) > placeholderLength-2 {
		label = label[:placeholderLength-2]
	}
	return label + strings.Repeat("_", placeholderLength-len(label))
}

func hashedPlaceholder(fullyQualifiedName string) string {
	sum := hex.EncodeToString(crypto.Keccak256([]byte(fullyQualifiedName)))
	return "__$" + sum[:34] + "$__"
}
