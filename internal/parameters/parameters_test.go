package parameters

import (
	"math/big"
	"testing"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_DefaultProfiles(t *testing.T) {
	cfg := configs.MustDefaultConfig()
	multiplier, ok := new(big.Int).SetString("1000000000000000000", 10)
	require.True(t, ok)

	t.Run("release", func(t *testing.T) {
		v, err := ForProfile(cfg.Parameters, configs.ProfileRelease)
		require.NoError(t, err)

		assert.Equal(t, 0, v.Multiplier.Cmp(multiplier))
		assert.Equal(t, 0, v.RegFee.Cmp(multiplier), "regFee = 1 * 10^18")
		assert.Equal(t, 0, v.ActFee.Cmp(multiplier), "actFee = 1 * 10^18")
		assert.Equal(t, "125000000000000000", v.RepReward.String())
		assert.Equal(t, "1000000000000000000000000000", v.InitialSupply.String())
		assert.Equal(t, int64(80), v.ReputationShare.Int64())
		assert.Equal(t, int64(5760), v.BlockThreshold.Int64())
	})

	t.Run("development", func(t *testing.T) {
		v, err := ForProfile(cfg.Parameters, configs.ProfileDevelopment)
		require.NoError(t, err)

		assert.Equal(t, 0, v.RepReward.Cmp(multiplier))
		assert.Equal(t, int64(20), v.ReputationShare.Int64())
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := ForProfile(cfg.Parameters, "staging")
		assert.Error(t, err)
	})
}

func TestResolve_FeesScaleExactly(t *testing.T) {
	for _, decimals := range []uint8{0, 1, 6, 8, 18, 24} {
		p := configs.Parameters{
			TokenName:       "T",
			TokenSymbol:     "T",
			TokenDecimals:   decimals,
			InitialSupply:   "7",
			RegFee:          "3",
			ActFee:          "5",
			RepReward:       "2",
			ReputationShare: 50,
			BlockThreshold:  1,
		}
		v, err := Resolve(p)
		require.NoError(t, err)

		m := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
		assert.Equal(t, 0, v.Multiplier.Cmp(m))
		assert.Equal(t, 0, v.RegFee.Cmp(new(big.Int).Mul(big.NewInt(3), m)))
		assert.Equal(t, 0, v.ActFee.Cmp(new(big.Int).Mul(big.NewInt(5), m)))
		assert.Equal(t, 0, v.RepReward.Cmp(new(big.Int).Mul(big.NewInt(2), m)))
		assert.Equal(t, 0, v.InitialSupply.Cmp(new(big.Int).Mul(big.NewInt(7), m)))
	}
}

func TestResolve_RejectsFractionBelowPrecision(t *testing.T) {
	p := configs.MustDefaultConfig().Parameters[configs.ProfileRelease]
	p.TokenDecimals = 2
	_, err := Resolve(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rep-reward")
}

func TestValues_Lookup(t *testing.T) {
	v, err := ForProfile(configs.MustDefaultConfig().Parameters, configs.ProfileDevelopment)
	require.NoError(t, err)

	fee, ok := v.Lookup("regFee")
	require.True(t, ok)
	assert.Equal(t, v.RegFee, fee)

	decimals, ok := v.Lookup("tokenDecimals")
	require.True(t, ok)
	assert.Equal(t, uint8(18), decimals)

	_, ok = v.Lookup("nope")
	assert.False(t, ok)

	assert.Contains(t, v.Names(), "blockThreshold")
}

func TestValues_Report(t *testing.T) {
	values, err := ForProfile(configs.MustDefaultConfig().Parameters, configs.ProfileRelease)
	require.NoError(t, err)

	report := values.Report()
	assert.Equal(t, "125000000000000000", report["repReward"])
	assert.Equal(t, "0.125", report["repRewardTokens"])
	assert.Equal(t, "1000000000", report["initialSupplyTokens"])
	assert.Equal(t, "80", report["reputationShare"])
	assert.Equal(t, "Atonomi Token", report["tokenName"])
	assert.Equal(t, "18", report["tokenDecimals"])
}
