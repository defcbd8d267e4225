// Package parameters resolves the constructor constants shared by the
// deployment procedures and the migration manifests.
package parameters

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/units"
)

// Values are deployment parameters scaled to token base units.
type Values struct {
	TokenName       string
	TokenSymbol     string
	TokenDecimals   uint8
	Multiplier      *big.Int
	InitialSupply   *big.Int
	RegFee          *big.Int
	ActFee          *big.Int
	RepReward       *big.Int
	ReputationShare *big.Int
	BlockThreshold  *big.Int
}

// Resolve validates p and scales every fee by 10^decimals.
func Resolve(p configs.Parameters) (Values, error) {
	if err := p.Validate(); err != nil {
		return Values{}, err
	}

	v := Values{
		TokenName:       p.TokenName,
		TokenSymbol:     p.TokenSymbol,
		TokenDecimals:   p.TokenDecimals,
		Multiplier:      units.Multiplier(p.TokenDecimals),
		ReputationShare: new(big.Int).SetUint64(p.ReputationShare),
		BlockThreshold:  new(big.Int).SetUint64(p.BlockThreshold),
	}

	scaled := []struct {
		name   string
		amount string
		target **big.Int
	}{
		{"initial-supply", p.InitialSupply, &v.InitialSupply},
		{"reg-fee", p.RegFee, &v.RegFee},
		{"act-fee", p.ActFee, &v.ActFee},
		{"rep-reward", p.RepReward, &v.RepReward},
	}
	for _, s := range scaled {
		amount, err := units.Scale(s.amount, p.TokenDecimals)
		if err != nil {
			return Values{}, fmt.Errorf("failed to scale %s: %w", s.name, err)
		}
		*s.target = amount
	}

	return v, nil
}

// ForProfile resolves the named parameter profile from cfg.
func ForProfile(cfg map[configs.ProfileName]configs.Parameters, profile configs.ProfileName) (Values, error) {
	p, ok := cfg[profile]
	if !ok {
		return Values{}, fmt.Errorf("unknown parameter profile %q", profile)
	}
	return Resolve(p)
}

// Lookup returns the value referenced as ${params.<name>} in a manifest.
func (v Values) Lookup(name string) (any, bool) {
	value, ok := v.asMap()[name]
	return value, ok
}

// Names lists every name accepted by Lookup in sorted order.
func (v Values) Names() []string {
	m := v.asMap()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v Values) asMap() map[string]any {
	return map[string]any{
		"tokenName":       v.TokenName,
		"tokenSymbol":     v.TokenSymbol,
		"tokenDecimals":   v.TokenDecimals,
		"multiplier":      v.Multiplier,
		"initialSupply":   v.InitialSupply,
		"regFee":          v.RegFee,
		"actFee":          v.ActFee,
		"repReward":       v.RepReward,
		"reputationShare": v.ReputationShare,
		"blockThreshold":  v.BlockThreshold,
	}
}
