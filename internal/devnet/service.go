// Package devnet runs a disposable anvil container as the development chain.
package devnet

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/chain"
	"github.com/atonomi/atonomi-deploy/internal/logger"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
)

const (
	anvilPort   = "8545"
	labelDevnet = "io.atonomi.devnet"

	rpcAttempts = 60
	rpcInterval = time.Second
)

type (
	engine interface {
		ImageExists(ctx context.Context, imageName string) (bool, error)
		PullImage(ctx context.Context, imageName string) error
		ContainerState(ctx context.Context, name string) (exists, running bool, err error)
		CreateAndStart(ctx context.Context, name string, config *container.Config, hostConfig *container.HostConfig) (string, error)
		RemoveContainer(ctx context.Context, name string) error
	}

	Service struct {
		engine  engine
		waitRPC func(ctx context.Context, url string) error
		logger  *slog.Logger
	}
)

func NewService(e engine) *Service {
	return &Service{
		engine: e,
		waitRPC: func(ctx context.Context, url string) error {
			return chain.WaitForRPC(ctx, url, rpcAttempts, rpcInterval)
		},
		logger: logger.Named("devnet"),
	}
}

// RPCURL is where the devnet answers on the host.
func RPCURL(cfg configs.Devnet) string {
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
}

// Up starts the devnet container unless it already runs and waits for its RPC.
func (s *Service) Up(ctx context.Context, cfg configs.Devnet) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := s.logger.With("container", cfg.ContainerName)

	exists, running, err := s.engine.ContainerState(ctx, cfg.ContainerName)
	if err != nil {
		return err
	}
	switch {
	case running:
		log.Info("devnet already running")
		return s.waitRPC(ctx, RPCURL(cfg))
	case exists:
		log.Info("removing stopped devnet container")
		if err := s.engine.RemoveContainer(ctx, cfg.ContainerName); err != nil {
			return err
		}
	}

	found, err := s.engine.ImageExists(ctx, cfg.Image)
	if err != nil {
		return fmt.Errorf("failed to check image %s: %w", cfg.Image, err)
	}
	if !found {
		if err := s.engine.PullImage(ctx, cfg.Image); err != nil {
			return err
		}
	}

	config, hostConfig, err := containerSpec(cfg)
	if err != nil {
		return err
	}

	id, err := s.engine.CreateAndStart(ctx, cfg.ContainerName, config, hostConfig)
	if err != nil {
		return err
	}
	log.With("id", id).With("rpc_url", RPCURL(cfg)).Info("devnet container started")

	if err := s.waitRPC(ctx, RPCURL(cfg)); err != nil {
		return fmt.Errorf("devnet RPC did not come up: %w", err)
	}
	log.Info("devnet is ready")

	return nil
}

// Down removes the devnet container and its state.
func (s *Service) Down(ctx context.Context, cfg configs.Devnet) error {
	if err := s.engine.RemoveContainer(ctx, cfg.ContainerName); err != nil {
		return err
	}
	s.logger.With("container", cfg.ContainerName).Info("devnet removed")
	return nil
}

func containerSpec(cfg configs.Devnet) (*container.Config, *container.HostConfig, error) {
	port, err := nat.NewPort("tcp", anvilPort)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid container port: %w", err)
	}

	cmd := []string{
		"--host", "0.0.0.0",
		"--port", anvilPort,
		"--chain-id", strconv.FormatInt(cfg.ChainID, 10),
	}
	if cfg.Accounts > 0 {
		cmd = append(cmd, "--accounts", strconv.Itoa(cfg.Accounts))
	}

	config := &container.Config{
		Image:        cfg.Image,
		Entrypoint:   []string{"anvil"},
		Cmd:          cmd,
		ExposedPorts: nat.PortSet{port: struct{}{}},
		Labels:       map[string]string{labelDevnet: "true"},
	}
	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: strconv.Itoa(cfg.Port)}},
		},
	}

	return config, hostConfig, nil
}
