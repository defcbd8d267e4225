package manifest

import (
	"errors"
	"fmt"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/deploy"
	"github.com/atonomi/atonomi-deploy/internal/journal"
	"github.com/atonomi/atonomi-deploy/internal/output"
	"github.com/atonomi/atonomi-deploy/internal/parameters"
	"github.com/atonomi/atonomi-deploy/internal/session"
	"github.com/spf13/cobra"
)

const defaultManifest = "deploy-dev"

var CMD = &cobra.Command{
	Use:   "migrate [manifest]",
	Short: "Run a migration manifest (built-in name or YAML file)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMigrate,
}

var (
	flagProfile      string
	flagGasPriceGwei string
)

func init() {
	CMD.Flags().StringVar(&flagProfile, "profile", "", "Parameter profile (the manifest's profile when empty)")
	CMD.Flags().StringVar(&flagGasPriceGwei, "gas-price-gwei", "", "Gas price in gwei (node suggestion when empty)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := configs.Values

	name := defaultManifest
	if len(args) == 1 {
		name = args[0]
	}
	m, err := Load(name)
	if err != nil {
		return err
	}

	if !m.Allows(cfg.Network) {
		_, err := NewRunner(nil, Options{}).Run(ctx, m, cfg.Network)
		if errors.Is(err, ErrNetworkNotAllowed) {
			return nil
		}
		return err
	}

	profile := configs.ProfileName(flagProfile)
	if profile == "" {
		profile = m.Profile
	}
	if profile == "" {
		profile = configs.ProfileRelease
	}
	params, err := parameters.ForProfile(cfg.Parameters, profile)
	if err != nil {
		return err
	}

	s, err := session.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	deployer := deploy.NewDeployer(s.Conn.Client, s.Conn.Submitter, s.Registry)
	runner := NewRunner(deployer, Options{
		Params:         params,
		GasPriceGwei:   flagGasPriceGwei,
		PollInterval:   cfg.Chain.ReceiptPollInterval,
		ReceiptTimeout: cfg.Chain.ReceiptTimeout,
	})

	report, runErr := runner.Run(ctx, m, cfg.Network)
	for _, step := range report.Submitted() {
		s.Record(ctx, &journal.Entry{
			Kind:     journal.KindDeploy,
			Contract: string(step.Result.Contract),
			TxHash:   step.Result.TxHash.Hex(),
			Sender:   deployer.From().Hex(),
			Target:   step.Result.Address.Hex(),
			Gas:      step.Result.GasEstimate,
			GasPrice: step.Result.GasPrice.String(),
			Manifest: m.Name,
		})
	}
	if runErr != nil {
		return fmt.Errorf("error occurred running %s: %w", m.Name, runErr)
	}

	_, err = output.NewGenerator(cfg.Output.Dir, s.Registry).Generate(ctx, output.Deployment{
		Network:   cfg.Network,
		ChainID:   s.Conn.ChainID.Uint64(),
		RPCURL:    cfg.RPCURL(),
		Contracts: report.Deployed,
	})
	return err
}
