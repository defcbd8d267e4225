package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_DeployDev(t *testing.T) {
	assert.Equal(t, []string{"deploy-dev"}, BuiltinNames())

	m, err := Builtin("deploy-dev")
	require.NoError(t, err)

	assert.Equal(t, "deploy-dev", m.Name)
	assert.Equal(t, []configs.NetworkName{configs.NetworkDevelopment}, m.Networks)
	assert.Equal(t, configs.ProfileDevelopment, m.Profile)

	var order []string
	for _, step := range m.Steps {
		order = append(order, step.String())
	}
	assert.Equal(t, []string{
		"deploy SafeMathLib",
		"link SafeMathLib into AMLToken",
		"deploy AMLToken",
		"deploy AtonomiEternalStorage",
		"deploy Settings",
		"deploy Atonomi",
	}, order)

	assert.Equal(t, Args{"${params.tokenName}", "${params.tokenSymbol}", "${params.initialSupply}", "${params.tokenDecimals}", false}, m.Steps[2].Args)
	assert.Equal(t, Args{"${AtonomiEternalStorage}", "${AMLToken}", "${Settings}"}, m.Steps[5].Args)
}

func TestParse_NumericArgsKeepSourceText(t *testing.T) {
	m, err := Parse([]byte(`
name: token
networks: [development]
steps:
  - deploy: AMLToken
    args: ['Atonomi Token', ATMI, 1000000000000000000000000000, 18, false]
  - deploy: Settings
    args: [0x10, 1_000, 1.5e3, '010', true]
`))
	require.NoError(t, err)

	assert.Equal(t, Args{"Atonomi Token", "ATMI", "1000000000000000000000000000", "18", false}, m.Steps[0].Args)
	assert.Equal(t, Args{"0x10", "1000", "1.5e3", "010", true}, m.Steps[1].Args)

	_, err = Parse([]byte("name: x\nnetworks: [development]\nsteps:\n  - deploy: A\n    args: {a: 1}\n"))
	require.ErrorContains(t, err, "args must be a list")
}

func TestBuiltin_Unknown(t *testing.T) {
	_, err := Builtin("deploy-prod")
	require.ErrorContains(t, err, "unknown built-in manifest")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kovan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: kovan-storage
networks: [kovan]
steps:
  - deploy: AtonomiEternalStorage
  - deploy: Settings
    args: ["${AtonomiEternalStorage}", 1, 1, 1, 80, 5760]
`), 0644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.True(t, m.Allows(configs.NetworkKovan))
	assert.False(t, m.Allows(configs.NetworkMainnet))
	assert.Equal(t, artifacts.ContractNameSettings, m.Steps[1].Deploy)
	assert.Equal(t, Args{"${AtonomiEternalStorage}", "1", "1", "1", "80", "5760"}, m.Steps[1].Args)

	m, err = Load("deploy-dev")
	require.NoError(t, err)
	assert.Equal(t, "deploy-dev", m.Name)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "name: x\nnetworks: [development]\nsteps:\n  - deploy: A\n    gas: 1\n", "field gas not found"},
		{"missing name and networks", "steps:\n  - deploy: A\n", "name is required"},
		{"no steps", "name: x\nnetworks: [development]\n", "at least one step is required"},
		{"deploy and link", "name: x\nnetworks: [development]\nsteps:\n  - deploy: A\n    link: B\n", "deploy and link are exclusive"},
		{"empty step", "name: x\nnetworks: [development]\nsteps:\n  - args: [1]\n", "deploy or link is required"},
		{"link with args", "name: x\nnetworks: [development]\nsteps:\n  - link: A\n    args: [1]\n", "link takes no args"},
		{"deploy with into", "name: x\nnetworks: [development]\nsteps:\n  - deploy: A\n    into: [B]\n", "into is only valid for link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorContains(t, err, tt.want)
		})
	}
}
