package manifest

import (
	"math/big"
	"testing"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"github.com/atonomi/atonomi-deploy/internal/parameters"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_Resolve(t *testing.T) {
	params, err := parameters.ForProfile(configs.MustDefaultConfig().Parameters, configs.ProfileDevelopment)
	require.NoError(t, err)

	owner := common.HexToAddress("0x627306090abab3a6e1400e9345bc60c78a8bef57")
	storage := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	scope := Scope{
		Owner:    owner,
		Params:   params,
		Deployed: map[artifacts.ContractName]common.Address{artifacts.ContractNameStorage: storage},
	}

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"owner", "${owner}", owner},
		{"deployed contract", "${AtonomiEternalStorage}", storage},
		{"parameter", "${params.regFee}", new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)},
		{"spaces inside braces", "${ params.tokenSymbol }", "ATMI"},
		{"plain string", "Atonomi Token", "Atonomi Token"},
		{"embedded reference is a literal", "prefix-${owner}", "prefix-${owner}"},
		{"non-string literal", 5760, 5760},
		{"bool literal", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scope.Resolve(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScope_ResolveErrors(t *testing.T) {
	scope := Scope{Deployed: map[artifacts.ContractName]common.Address{}}

	_, err := scope.Resolve("${params.unknown}")
	require.ErrorContains(t, err, `unknown parameter "unknown"`)

	_, err = scope.ResolveAll([]any{"ok", "${Settings}"})
	require.ErrorContains(t, err, "argument 1: Settings has not been deployed")
}
