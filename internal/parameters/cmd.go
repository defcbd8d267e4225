package parameters

import (
	"fmt"
	"math/big"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/units"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var CMD = &cobra.Command{
	Use:   "params",
	Short: "Print deployment parameters scaled to token base units",
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := ForProfile(configs.Values.Parameters, configs.ProfileName(flagProfile))
		if err != nil {
			return err
		}

		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(values.Report())
	},
}

var flagProfile string

func init() {
	CMD.Flags().StringVar(&flagProfile, "profile", string(configs.ProfileRelease), "Parameter profile to resolve")
}

// Report renders every value as a string keyed by its manifest name, with the
// token amounts also shown in whole tokens.
func (v Values) Report() map[string]string {
	out := make(map[string]string)
	for _, name := range v.Names() {
		value, _ := v.Lookup(name)
		out[name] = fmt.Sprint(value)
	}

	for name, amount := range map[string]*big.Int{
		"regFee":        v.RegFee,
		"actFee":        v.ActFee,
		"repReward":     v.RepReward,
		"initialSupply": v.InitialSupply,
	} {
		out[name+"Tokens"] = units.Descale(amount, v.TokenDecimals)
	}
	return out
}
