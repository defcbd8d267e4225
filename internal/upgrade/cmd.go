package upgrade

import (
	"fmt"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/addressbook"
	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"github.com/atonomi/atonomi-deploy/internal/journal"
	"github.com/atonomi/atonomi-deploy/internal/session"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	CMD = &cobra.Command{
		Use:   "upgrade",
		Short: "Point the upgradability proxy at a new implementation",
		RunE:  runUpgrade,
	}

	ProxyCMD = &cobra.Command{
		Use:   "proxy",
		Short: "Show the implementation and owner of the upgradability proxy",
		RunE:  runInspect,
	}
)

var (
	flagProxy          string
	flagImplementation string
	flagCallData       string
	flagGasPriceGwei   string
	flagEstimateOnly   bool
)

func init() {
	CMD.Flags().StringVar(&flagProxy, "proxy", "", "Proxy address (networks.<network>.proxy when empty)")
	CMD.Flags().StringVar(&flagImplementation, "implementation", "", "New implementation address")
	CMD.Flags().StringVar(&flagCallData, "call-data", "", "Hex call data run on the new implementation via upgradeToAndCall")
	CMD.Flags().StringVar(&flagGasPriceGwei, "gas-price-gwei", "", "Gas price in gwei (node suggestion when empty)")
	CMD.Flags().BoolVar(&flagEstimateOnly, "estimate-only", false, "Only estimate gas, do not send the transaction")
	_ = CMD.MarkFlagRequired("implementation")

	ProxyCMD.Flags().StringVar(&flagProxy, "proxy", "", "Proxy address (networks.<network>.proxy when empty)")
}

func runUpgrade(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := session.Open(ctx, configs.Values)
	if err != nil {
		return err
	}
	defer s.Close()

	proxy, err := resolveProxy(s.Book, s.Network(), flagProxy)
	if err != nil {
		return err
	}
	if !common.IsHexAddress(flagImplementation) {
		return fmt.Errorf("implementation %q is not a hex address", flagImplementation)
	}
	var callData []byte
	if flagCallData != "" {
		if callData, err = hexutil.Decode(flagCallData); err != nil {
			return fmt.Errorf("invalid call data: %w", err)
		}
	}

	upgrader := NewUpgrader(s.Conn.Client, s.Conn.Submitter)
	if _, err := upgrader.Inspect(ctx, proxy); err != nil {
		upgrader.logger.With("err", err.Error()).Warn("could not read proxy state")
	}

	result, err := upgrader.Upgrade(ctx, Request{
		Proxy:          proxy,
		Implementation: common.HexToAddress(flagImplementation),
		GasPriceGwei:   flagGasPriceGwei,
		EstimateOnly:   flagEstimateOnly,
		CallData:       callData,
	})
	if err != nil {
		return fmt.Errorf("error occurred upgrading proxy: %w", err)
	}

	if result.Submitted {
		s.Record(ctx, &journal.Entry{
			Kind:     journal.KindUpgrade,
			Contract: string(artifacts.ContractNameProxy),
			TxHash:   result.TxHash.Hex(),
			Sender:   s.Conn.Submitter.From().Hex(),
			Target:   result.Proxy.Hex(),
			Gas:      result.GasEstimate,
			GasPrice: result.GasPrice.String(),
		})
	}

	return nil
}

func runInspect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := session.Open(ctx, configs.Values)
	if err != nil {
		return err
	}
	defer s.Close()

	proxy, err := resolveProxy(s.Book, s.Network(), flagProxy)
	if err != nil {
		return err
	}

	state, err := NewUpgrader(s.Conn.Client, s.Conn.Submitter).Inspect(ctx, proxy)
	if err != nil {
		return fmt.Errorf("error occurred inspecting proxy: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "proxy: %s\nimplementation: %s\nowner: %s\n",
		proxy.Hex(), state.Implementation.Hex(), state.Owner.Hex())
	return nil
}

// resolveProxy returns the explicit address or the proxy recorded for network.
func resolveProxy(book addressbook.Book, network configs.NetworkName, explicit string) (common.Address, error) {
	if explicit != "" {
		if !common.IsHexAddress(explicit) {
			return common.Address{}, fmt.Errorf("proxy %q is not a hex address", explicit)
		}
		return common.HexToAddress(explicit), nil
	}
	return book.Address(network, addressbook.RoleProxy)
}
