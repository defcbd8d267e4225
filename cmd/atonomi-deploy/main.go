package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/addressbook"
	"github.com/atonomi/atonomi-deploy/internal/deploy"
	"github.com/atonomi/atonomi-deploy/internal/devnet"
	"github.com/atonomi/atonomi-deploy/internal/flags"
	"github.com/atonomi/atonomi-deploy/internal/journal"
	"github.com/atonomi/atonomi-deploy/internal/logger"
	"github.com/atonomi/atonomi-deploy/internal/manifest"
	"github.com/atonomi/atonomi-deploy/internal/parameters"
	"github.com/atonomi/atonomi-deploy/internal/upgrade"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName   = "atonomi-deploy"
	envPrefix = "ATONOMI"
)

var (
	stringFlags = []flags.Def[string]{
		{Name: "config", Description: "Config file (config.yaml in the executable dir, . or ./configs when empty)"},
		{Name: "log-level", ViperKey: "log-level", DefaultValue: "info", Description: "Log level (debug, info, warn, error)"},
		{Name: "network", ViperKey: "network", DefaultValue: string(configs.NetworkDevelopment), Description: "Target network from the networks section"},
		{Name: "rpc-url", ViperKey: "chain.rpc-url", Description: "Node RPC URL (overrides networks.<network>.rpc-url)"},
		{Name: "from", ViperKey: "sender.address", Description: "Sender address, signed by the node when no private key is set"},
		{Name: "private-key", ViperKey: "sender.private-key", Description: "Sender private key for local signing"},
		{Name: "artifacts-dir", ViperKey: "artifacts.dir", DefaultValue: "build/contracts", Description: "Truffle build directory"},
		{Name: "artifacts-bundle", ViperKey: "artifacts.bundle", Description: "Single JSON file of {name: {abi, bytecode}}"},
	}

	int64Flags = []flags.Def[int64]{
		{Name: "chain-id", ViperKey: "chain.chain-id", Description: "Expected chain ID, checked against the node when set"},
	}

	durationFlags = []flags.Def[time.Duration]{
		{Name: "receipt-timeout", ViperKey: "chain.receipt-timeout", DefaultValue: 5 * time.Minute, Description: "How long to wait for a receipt"},
	}
)

var rootCmd = &cobra.Command{
	Use:          appName,
	Short:        "Deploy, upgrade and migrate Atonomi contracts",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Initialize(slog.LevelInfo)

		if err := configs.MergeDefaults(viper.GetViper()); err != nil {
			return err
		}

		viper.SetEnvPrefix(envPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
		viper.AutomaticEnv()

		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			viper.SetConfigName("config")
			if execPath, err := os.Executable(); err == nil {
				viper.AddConfigPath(filepath.Dir(execPath))
			}
			viper.AddConfigPath(".")
			viper.AddConfigPath("./configs")
		}

		// Flags and the embedded defaults are enough to run against a devnet.
		if err := viper.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				slog.Debug("no config file found, will rely on flags and defaults")
			} else {
				const errMsg = "error reading config file"
				slog.With("err", err.Error()).Error(errMsg)
				return errors.Join(err, errors.New(errMsg))
			}
		} else {
			slog.With("config_file", viper.ConfigFileUsed()).Debug("config file loaded")
		}

		if err := viper.Unmarshal(&configs.Values); err != nil {
			const errMsg = "unable to decode application config"
			slog.With("err", err.Error()).Error(errMsg)
			return errors.Join(err, errors.New(errMsg))
		}

		level, err := logger.ParseLevel(configs.Values.LogLevel)
		if err != nil {
			return err
		}
		logger.Initialize(level)

		slog.With("network", configs.Values.Network).Debug("configuration loaded")

		return nil
	},
}

func init() {
	v := viper.GetViper()
	fs := rootCmd.PersistentFlags()
	if err := errors.Join(
		flags.Declare(v, fs, stringFlags),
		flags.Declare(v, fs, int64Flags),
		flags.Declare(v, fs, durationFlags),
	); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(deploy.CMD)
	rootCmd.AddCommand(upgrade.CMD)
	rootCmd.AddCommand(upgrade.ProxyCMD)
	rootCmd.AddCommand(manifest.CMD)
	rootCmd.AddCommand(addressbook.CMD)
	rootCmd.AddCommand(parameters.CMD)
	rootCmd.AddCommand(journal.CMD)
	rootCmd.AddCommand(devnet.CMD)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.With("err", err.Error()).Error("failed to execute root command")
		stop()
		os.Exit(1)
	}
}
