package deploy

import (
	"fmt"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"github.com/atonomi/atonomi-deploy/internal/journal"
	"github.com/atonomi/atonomi-deploy/internal/session"
	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:   "deploy [contract]",
	Short: "Estimate and deploy a contract (the upgradability proxy by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDeploy,
}

var (
	flagGasPriceGwei string
	flagEstimateOnly bool
	flagArgs         []string
	flagWait         bool
)

func init() {
	CMD.Flags().StringVar(&flagGasPriceGwei, "gas-price-gwei", "", "Gas price in gwei (node suggestion when empty)")
	CMD.Flags().BoolVar(&flagEstimateOnly, "estimate-only", false, "Only estimate gas, do not send the transaction")
	CMD.Flags().StringArrayVar(&flagArgs, "arg", nil, "Constructor argument, repeat in constructor order")
	CMD.Flags().BoolVar(&flagWait, "wait", false, "Wait for the deployment receipt")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := configs.Values

	s, err := session.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	deployer := NewDeployer(s.Conn.Client, s.Conn.Submitter, s.Registry)

	var result Result
	if len(args) == 0 && len(flagArgs) == 0 && !flagWait {
		result, err = deployer.DeployAtonomiProxy(ctx, flagGasPriceGwei, flagEstimateOnly)
	} else {
		contract := artifacts.ContractNameProxy
		if len(args) == 1 {
			contract = artifacts.ContractName(args[0])
		}

		typed, argErr := constructorArgs(s.Registry, contract, flagArgs)
		if argErr != nil {
			return argErr
		}

		result, err = deployer.Deploy(ctx, Request{
			Contract:       contract,
			GasPriceGwei:   flagGasPriceGwei,
			EstimateOnly:   flagEstimateOnly,
			Args:           typed,
			Wait:           flagWait,
			PollInterval:   cfg.Chain.ReceiptPollInterval,
			ReceiptTimeout: cfg.Chain.ReceiptTimeout,
		})
	}

	if result.Submitted {
		s.Record(ctx, &journal.Entry{
			Kind:     journal.KindDeploy,
			Contract: string(result.Contract),
			TxHash:   result.TxHash.Hex(),
			Sender:   deployer.From().Hex(),
			Target:   result.Address.Hex(),
			Gas:      result.GasEstimate,
			GasPrice: result.GasPrice.String(),
		})
	}
	if err != nil {
		return fmt.Errorf("error occurred deploying: %w", err)
	}

	return nil
}

func constructorArgs(registry *artifacts.Registry, contract artifacts.ContractName, values []string) ([]any, error) {
	artifact, err := registry.Get(contract)
	if err != nil {
		return nil, err
	}

	raw := make([]any, len(values))
	for i, value := range values {
		raw[i] = value
	}
	return artifact.ConstructorArgs(raw...)
}
