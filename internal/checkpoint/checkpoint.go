// Package checkpoint persists the last fully handled block for each
// monitored contract in a local sqlite file. A restart reads the
// checkpoint back and backfills from the next block instead of
// re-scanning from the head it happened to start at.
package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/russross/meddler"

	"github.com/cthucoin/indexer/internal/logger"
)

func init() {
	meddler.Default = meddler.SQLite
	meddler.Register("address", addressMeddler{})
}

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "0001_checkpoints",
			Up: []string{`CREATE TABLE checkpoints (
				contract TEXT PRIMARY KEY,
				last_block INTEGER NOT NULL,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
			Down: []string{`DROP TABLE checkpoints;`},
		},
	},
}

type checkpointRow struct {
	Contract  common.Address `meddler:"contract,address"`
	LastBlock int64          `meddler:"last_block"`
}

// Store is a sqlite-backed checkpoint store.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// Open opens (creating if necessary) the checkpoint database at path and
// applies pending migrations.
func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf(
		"file:%s?_txlock=immediate&_journal_mode=WAL&_busy_timeout=5000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint db: %w", err)
	}

	if _, err := migrate.Exec(db, "sqlite3", migrations, migrate.Up); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating checkpoint db: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the checkpointed block for a contract. The second return
// is false when the contract has no checkpoint yet.
func (s *Store) Load(_ context.Context, contract common.Address) (uint64, bool, error) {
	var row checkpointRow
	err := meddler.QueryRow(s.db, &row,
		"SELECT contract, last_block FROM checkpoints WHERE contract = ?", addrKey(contract))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("loading checkpoint for %s: %w", addrKey(contract), err)
	}
	return uint64(row.LastBlock), true, nil
}

// Save records the last handled block for a contract. Checkpoints only
// move forward: a save below the stored block is a no-op, so concurrent
// out-of-order saves cannot regress the resume point.
func (s *Store) Save(ctx context.Context, contract common.Address, block uint64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (contract, last_block, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(contract) DO UPDATE SET
			last_block = excluded.last_block,
			updated_at = excluded.updated_at
		WHERE excluded.last_block > checkpoints.last_block`,
		addrKey(contract), int64(block))
	if err != nil {
		return fmt.Errorf("saving checkpoint for %s: %w", addrKey(contract), err)
	}
	return nil
}

func addrKey(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// addressMeddler converts between common.Address and the lowercase hex
// strings the checkpoints table stores.
type addressMeddler struct{}

func (addressMeddler) PreRead(interface{}) (interface{}, error) {
	return new(sql.NullString), nil
}

func (addressMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}
	ptr, ok := fieldAddr.(*common.Address)
	if !ok {
		return fmt.Errorf("expected *common.Address, got %T", fieldAddr)
	}
	if !ns.Valid {
		*ptr = common.Address{}
		return nil
	}
	*ptr = common.HexToAddress(ns.String)
	return nil
}

func (addressMeddler) PreWrite(field interface{}) (interface{}, error) {
	addr, ok := field.(common.Address)
	if !ok {
		return nil, fmt.Errorf("expected common.Address, got %T", field)
	}
	return addrKey(addr), nil
}
