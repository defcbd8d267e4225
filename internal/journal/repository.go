package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Kind string

const (
	KindDeploy  Kind = "deploy"
	KindUpgrade Kind = "upgrade"
)

type (
	// Entry is one submitted transaction. Target is the predicted contract
	// address for deployments and the proxy for upgrades.
	Entry struct {
		ID        uuid.UUID
		CreatedAt time.Time
		Network   string
		Kind      Kind
		Contract  string
		TxHash    string
		Sender    string
		Target    string
		Gas       uint64
		GasPrice  string
		Manifest  string
	}

	dbEntry struct {
		ID        uuid.UUID      `db:"id"`
		CreatedAt time.Time      `db:"created_at"`
		Network   string         `db:"network"`
		Kind      string         `db:"kind"`
		Contract  string         `db:"contract"`
		TxHash    string         `db:"tx_hash"`
		Sender    string         `db:"sender"`
		Target    string         `db:"target"`
		Gas       int64          `db:"gas"`
		GasPrice  string         `db:"gas_price"`
		Manifest  sql.NullString `db:"manifest"`
	}

	Repository struct {
		dbConn *sqlx.DB
	}
)

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{dbConn: db}
}

func (repo *Repository) Close() error {
	if err := repo.dbConn.Close(); err != nil {
		return fmt.Errorf("closing journal: %w", err)
	}
	return nil
}

// Insert stores e, assigning an ID and timestamp when they are zero.
func (repo *Repository) Insert(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("creating entry id: %w", err)
		}
		e.ID = id
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO transactions (id, created_at, network, kind, contract, tx_hash, sender, target, gas, gas_price, manifest)
	          VALUES (:id, :created_at, :network, :kind, :contract, :tx_hash, :sender, :target, :gas, :gas_price, :manifest)`

	if _, err := repo.dbConn.NamedExecContext(ctx, query, fromEntry(e)); err != nil {
		return fmt.Errorf("inserting journal entry %s: %w", e.ID, err)
	}
	return nil
}

// List returns entries newest first. An empty network lists every network and
// a non-positive limit returns everything.
func (repo *Repository) List(ctx context.Context, network string, limit int) ([]*Entry, error) {
	query := `SELECT id, created_at, network, kind, contract, tx_hash, sender, target, gas, gas_price, manifest
	          FROM transactions
	          WHERE (? = '' OR network = ?)
	          ORDER BY created_at DESC, id DESC`
	args := []any{network, network}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []dbEntry
	if err := repo.dbConn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing journal entries: %w", err)
	}

	entries := make([]*Entry, 0, len(rows))
	for i := range rows {
		entries = append(entries, toEntry(&rows[i]))
	}
	return entries, nil
}

func fromEntry(e *Entry) *dbEntry {
	row := &dbEntry{
		ID:        e.ID,
		CreatedAt: e.CreatedAt,
		Network:   e.Network,
		Kind:      string(e.Kind),
		Contract:  e.Contract,
		TxHash:    e.TxHash,
		Sender:    e.Sender,
		Target:    e.Target,
		Gas:       int64(e.Gas),
		GasPrice:  e.GasPrice,
	}
	if e.Manifest != "" {
		row.Manifest = sql.NullString{String: e.Manifest, Valid: true}
	}
	return row
}

func toEntry(row *dbEntry) *Entry {
	return &Entry{
		ID:        row.ID,
		CreatedAt: row.CreatedAt,
		Network:   row.Network,
		Kind:      Kind(row.Kind),
		Contract:  row.Contract,
		TxHash:    row.TxHash,
		Sender:    row.Sender,
		Target:    row.Target,
		Gas:       uint64(row.Gas),
		GasPrice:  row.GasPrice,
		Manifest:  row.Manifest.String,
	}
}
