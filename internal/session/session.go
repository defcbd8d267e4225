// Package session assembles what a chain command needs from the loaded
// configuration: the node connection, artifacts, address book and journal.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/addressbook"
	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"github.com/atonomi/atonomi-deploy/internal/chain"
	"github.com/atonomi/atonomi-deploy/internal/journal"
	"github.com/atonomi/atonomi-deploy/internal/logger"
)

type Session struct {
	Config   configs.Config
	Conn     *chain.Connection
	Registry *artifacts.Registry
	Book     addressbook.Book

	journal *journal.Repository
	logger  *slog.Logger
}

// Open validates cfg, loads artifacts and the address book, then dials the
// node. The journal is opened when enabled.
func Open(ctx context.Context, cfg configs.Config) (*Session, error) {
	if err := cfg.ValidateChain(); err != nil {
		return nil, err
	}

	s, err := prepare(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := chain.Connect(ctx, cfg.RPCURL(), cfg.Sender, cfg.Chain.ChainID)
	if err != nil {
		return nil, err
	}
	s.Conn = conn

	if cfg.Journal.Enabled {
		db, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			conn.Close()
			return nil, err
		}
		s.journal = journal.NewRepository(db)
	}

	return s, nil
}

func prepare(cfg configs.Config) (*Session, error) {
	book, err := addressbook.FromConfig(cfg.Networks)
	if err != nil {
		return nil, err
	}
	if err := book.Validate(); err != nil {
		return nil, fmt.Errorf("address book is invalid: %w", err)
	}

	registry, err := LoadRegistry(cfg.Artifacts)
	if err != nil {
		return nil, err
	}

	return &Session{
		Config:   cfg,
		Registry: registry,
		Book:     book,
		logger:   logger.Named("session"),
	}, nil
}

// LoadRegistry prefers a bundle file over the Truffle build directory.
func LoadRegistry(cfg configs.Artifacts) (*artifacts.Registry, error) {
	if cfg.Bundle != "" {
		return artifacts.LoadBundle(cfg.Bundle)
	}
	return artifacts.LoadDir(cfg.Dir)
}

// Network is the name of the network this session targets.
func (s *Session) Network() configs.NetworkName {
	return s.Config.Network
}

// Record writes a submitted transaction to the journal. Failures are logged
// and never undo the submission.
func (s *Session) Record(ctx context.Context, entry *journal.Entry) {
	if s.journal == nil {
		return
	}
	if entry.Network == "" {
		entry.Network = string(s.Config.Network)
	}
	if err := s.journal.Insert(ctx, entry); err != nil {
		s.logger.With("err", err.Error()).With("tx_hash", entry.TxHash).Warn("failed to record transaction in journal")
	}
}

func (s *Session) Close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.With("err", err.Error()).Warn("failed to close journal")
		}
	}
	if s.Conn != nil {
		s.Conn.Close()
	}
}
