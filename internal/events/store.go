package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresEventStore implements EventStore using PostgreSQL
type PostgresEventStore struct {
	db *bun.DB
}

// NewPostgresEventStore wraps an existing bun database
func NewPostgresEventStore(db *bun.DB) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

// OpenPostgres connects to PostgreSQL, verifies the connection and creates the schema
func OpenPostgres(ctx context.Context, dsn string, maxConnections int) (*PostgresEventStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	if maxConnections <= 0 {
		maxConnections = 10
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	sqldb.SetMaxOpenConns(maxConnections)
	sqldb.SetMaxIdleConns(maxConnections / 2)
	sqldb.SetConnMaxLifetime(time.Hour)

	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := CreateTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return NewPostgresEventStore(db), nil
}

// CreateTables creates the event table and its index
func CreateTables(ctx context.Context, db *bun.DB) error {
	_, err := createTableQuery(db).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create conversation_events table: %w", err)
	}

	_, err = createIndexQuery(db).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create conversation_events index: %w", err)
	}

	return nil
}

func createTableQuery(db bun.IDB) *bun.CreateTableQuery {
	return db.NewCreateTable().
		Model((*ConversationEvent)(nil)).
		IfNotExists()
}

func createIndexQuery(db bun.IDB) *bun.CreateIndexQuery {
	return db.NewCreateIndex().
		Model((*ConversationEvent)(nil)).
		Index("idx_conversation_events_user_ts").
		IfNotExists().
		Column("user_id").
		ColumnExpr("? DESC", bun.Ident("timestamp"))
}

func insertQuery(db bun.IDB, event *ConversationEvent) *bun.InsertQuery {
	return db.NewInsert().Model(event)
}

func listByUserQuery(db bun.IDB, out *[]*ConversationEvent, userID string, limit int) *bun.SelectQuery {
	return db.NewSelect().
		Model(out).
		Where("? = ?", bun.Ident("user_id"), userID).
		Order("timestamp DESC").
		Limit(limit)
}

// CreateEvent persists a new event
func (s *PostgresEventStore) CreateEvent(ctx context.Context, event *ConversationEvent) error {
	_, err := insertQuery(s.db, event).Exec(ctx)
	return err
}

// ListByUser returns the most recent events for a user
func (s *PostgresEventStore) ListByUser(ctx context.Context, userID string, limit int) ([]*ConversationEvent, error) {
	var out []*ConversationEvent
	err := listByUserQuery(s.db, &out, userID, limit).Scan(ctx)
	return out, err
}

// Close closes the database
func (s *PostgresEventStore) Close() error {
	return s.db.Close()
}
