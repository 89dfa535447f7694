package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/users-service/internal/config"
	"gitlab.com/dirk.krummacker/users-service/internal/logger"
)

// driverName is the database/sql driver used for all connections.
const driverName = "mysql"

// mysqlDuplicateEntry is the MySQL server error number for a violated unique key.
const mysqlDuplicateEntry = 1062

var (
	// ErrNotFound reports that the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMissingContact reports a user row without its contact row.
	ErrMissingContact = errors.New("user found but related contact is missing")
	// ErrContactInUse reports an attempt to delete a contact whose user still exists.
	ErrContactInUse = errors.New("contact still belongs to an existing user")
	// ErrDuplicateID reports an insert with an id that is already taken.
	ErrDuplicateID = errors.New("duplicate id")
)

// Executor is the set of database operations needed by the repositories. Both *sqlx.DB and
// *sqlx.Tx implement it, so every repository call can run on the pool or inside a transaction.
type Executor interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// CreateDatabase opens a database handle for the given configuration. It does not contact the
// server; use Connect for that.
func CreateDatabase(cfg config.Config) (*sql.DB, error) {
	sqlDB, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return sqlDB, nil
}

// Connect opens the connection pool and verifies that the server is reachable.
func Connect(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	sqlDB, err := CreateDatabase(cfg)
	if err != nil {
		return nil, err
	}
	db := Wrap(sqlDB)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBHost, err)
	}
	return db, nil
}

// Wrap turns a plain sql database into the sqlx handle used by the repositories. The database
// can be a real one for production use or a mock database within unit tests.
func Wrap(sqlDB *sql.DB) *sqlx.DB {
	return sqlx.NewDb(sqlDB, driverName)
}

// Gateway hands out transactions on the shared connection pool. It is safe for concurrent use.
type Gateway struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewGateway returns a gateway handing out transactions on the given pool.
func NewGateway(db *sqlx.DB, baseLog *logger.Logger) *Gateway {
	return &Gateway{db: db, log: baseLog.With("component", "Gateway")}
}

// Begin starts a new transaction.
func (g *Gateway) Begin(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}

// InTx runs fn inside a transaction. The transaction is committed if fn succeeds and rolled back
// otherwise; the error of fn is returned after the rollback.
func (g *Gateway) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := g.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			g.log.Error("rollback failed", "error", rbErr, "cause", err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Translate maps low level driver errors onto the errors of this package.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%w: %s", ErrDuplicateID, myErr.Message)
	}
	return err
}
