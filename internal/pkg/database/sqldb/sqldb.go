/*
sqldb.go SQL document store for MySQL and PostgreSQL. Documents are kept as JSON text in a
single table keyed by document name.
*/

package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ohowland/gridflow/internal/pkg/codec"
	"github.com/ohowland/gridflow/internal/pkg/database"
	"github.com/ohowland/gridflow/internal/pkg/grid"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Driver names a supported SQL server
type Driver string

// Drivers
const (
	MySQL    Driver = "mysql"
	Postgres Driver = "postgres"
)

// Config of the SQL store
type Config struct {
	Enabled  bool   `json:"Enabled" yaml:"enabled"`
	Driver   Driver `json:"Driver" yaml:"driver"`
	Host     string `json:"Host" yaml:"host"`
	Port     int    `json:"Port" yaml:"port"`
	Username string `json:"Username" yaml:"username"`
	Password string `json:"Password" yaml:"password"`
	Database string `json:"Database" yaml:"database"`
	Document string `json:"Document" yaml:"document"`
}

// dialect holds the statements that differ between servers
type dialect struct {
	create string
	upsert string
	load   string
}

var dialects = map[Driver]dialect{
	MySQL: {
		create: `CREATE TABLE IF NOT EXISTS documents (name VARCHAR(64) PRIMARY KEY, body LONGTEXT NOT NULL, saved_at DATETIME NOT NULL)`,
		upsert: `INSERT INTO documents (name, body, saved_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE body = VALUES(body), saved_at = VALUES(saved_at)`,
		load:   `SELECT body FROM documents WHERE name = ?`,
	},
	Postgres: {
		create: `CREATE TABLE IF NOT EXISTS documents (name VARCHAR(64) PRIMARY KEY, body TEXT NOT NULL, saved_at TIMESTAMP NOT NULL)`,
		upsert: `INSERT INTO documents (name, body, saved_at) VALUES ($1, $2, $3) ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, saved_at = EXCLUDED.saved_at`,
		load:   `SELECT body FROM documents WHERE name = $1`,
	},
}

// DSN returns the driver connection string for cfg
func DSN(cfg Config) (string, error) {
	switch cfg.Driver {
	case MySQL:
		return fmt.Sprintf("%v:%v@tcp(%v:%v)/%v?parseTime=true", cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database), nil
	case Postgres:
		return fmt.Sprintf("host=%v port=%v user=%v password=%v dbname=%v sslmode=disable", cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database), nil
	}
	return "", fmt.Errorf("unsupported sql driver %q", cfg.Driver)
}

// Store keeps grid documents in a SQL table
type Store struct {
	db      *sql.DB
	dialect dialect
	config  Config
}

// New opens a connection pool for cfg. No connection is made until first use.
func New(cfg Config) (*Store, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(string(cfg.Driver), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: dialects[cfg.Driver], config: cfg}, nil
}

// Init creates the documents table
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.create)
	return err
}

// Save upserts the document
func (s *Store) Save(ctx context.Context, m grid.GridMemento) error {
	body, err := codec.Encode(codec.JSON, m)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.dialect.upsert, s.config.Document, string(body), time.Now().UTC())
	return err
}

// Load returns the stored document
func (s *Store) Load(ctx context.Context) (grid.GridMemento, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.dialect.load, s.config.Document).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return grid.GridMemento{}, fmt.Errorf("%w: %v", database.ErrNoDocument, s.config.Document)
	}
	if err != nil {
		return grid.GridMemento{}, err
	}
	return codec.Decode(codec.JSON, []byte(body))
}

// Close releases the pool
func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}
