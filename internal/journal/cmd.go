package journal

import (
	"fmt"
	"time"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var CMD = &cobra.Command{
	Use:   "history",
	Short: "List transactions recorded in the deployment journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.Values.Journal
		if cfg.Path == "" {
			return fmt.Errorf("journal.path is not set")
		}

		db, err := Open(cfg.Path)
		if err != nil {
			return err
		}
		repo := NewRepository(db)
		defer repo.Close()

		network := string(configs.Values.Network)
		if flagAll {
			network = ""
		}

		entries, err := repo.List(cmd.Context(), network, flagLimit)
		if err != nil {
			return err
		}

		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(render(entries))
	},
}

var (
	flagAll   bool
	flagLimit int
)

func init() {
	CMD.Flags().BoolVar(&flagAll, "all", false, "List every network instead of --network")
	CMD.Flags().IntVar(&flagLimit, "limit", 20, "Maximum number of entries, 0 for all")
}

type row struct {
	Time     string `yaml:"time"`
	Network  string `yaml:"network"`
	Kind     Kind   `yaml:"kind"`
	Contract string `yaml:"contract"`
	TxHash   string `yaml:"tx-hash"`
	Target   string `yaml:"target,omitempty"`
	Gas      uint64 `yaml:"gas"`
	GasPrice string `yaml:"gas-price"`
	Manifest string `yaml:"manifest,omitempty"`
}

func render(entries []*Entry) []row {
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row{
			Time:     e.CreatedAt.UTC().Format(time.RFC3339),
			Network:  e.Network,
			Kind:     e.Kind,
			Contract: e.Contract,
			TxHash:   e.TxHash,
			Target:   e.Target,
			Gas:      e.Gas,
			GasPrice: e.GasPrice,
			Manifest: e.Manifest,
		})
	}
	return rows
}
