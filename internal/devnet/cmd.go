package devnet

import (
	"fmt"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/spf13/cobra"
)

var (
	CMD = &cobra.Command{
		Use:   "devnet",
		Short: "Run a local anvil chain as the development network",
	}

	upCmd = &cobra.Command{
		Use:   "up",
		Short: "Start the devnet container and wait for its RPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(s *Service) error {
				if err := s.Up(cmd.Context(), configs.Values.Devnet); err != nil {
					return fmt.Errorf("error occurred starting devnet: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), RPCURL(configs.Values.Devnet))
				return nil
			})
		},
	}

	downCmd = &cobra.Command{
		Use:   "down",
		Short: "Remove the devnet container",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(s *Service) error {
				if err := s.Down(cmd.Context(), configs.Values.Devnet); err != nil {
					return fmt.Errorf("error occurred stopping devnet: %w", err)
				}
				return nil
			})
		},
	}
)

func init() {
	CMD.AddCommand(upCmd)
	CMD.AddCommand(downCmd)
}

func withService(fn func(s *Service) error) error {
	client, err := NewDockerClient()
	if err != nil {
		return fmt.Errorf("failed to connect to docker: %w", err)
	}
	defer client.Close()

	return fn(NewService(client))
}
