package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"userstore.backend/internal/domain/entities"
	"userstore.backend/internal/infrastructure/changes"
	"userstore.backend/internal/infrastructure/datasources"
	"userstore.backend/internal/infrastructure/sqlgen"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// keep the shared in-memory database alive for the whole test
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(0)
	return db
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		age INTEGER NOT NULL CHECK (age >= 0)
	);`)
}

func createNoteTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		body TEXT NOT NULL
	);`)
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

// note is a second entity kind sharing the tracker with users.
type note struct {
	entities.Base
	Body string
}

func newNoteGateway(db *gorm.DB, tracker *changes.Tracker, dialect datasources.Dialect) *Gateway[*note] {
	return NewGateway(db, tracker, dialect, Mapping[*note]{
		Insert: func(n *note) sqlgen.Statement {
			return sqlgen.New("INSERT INTO notes (body) VALUES (?)", n.Body)
		},
		Update: func(n *note) sqlgen.Statement {
			return sqlgen.New("UPDATE notes SET body = ? WHERE id = ?", n.Body, n.ID)
		},
		Delete: func(n *note) sqlgen.Statement {
			return sqlgen.New("DELETE FROM notes WHERE id = ?", n.ID)
		},
		Scan: func(_ *gorm.DB, rows *sql.Rows) (*note, error) {
			n := &note{}
			return n, rows.Scan(&n.ID, &n.Body)
		},
	})
}

type fixture struct {
	db      *gorm.DB
	tracker *changes.Tracker
	uow     *UnitOfWorkImpl
	users   *UserRepository
	notes   *Gateway[*note]
}

func newFixture(t *testing.T, db *gorm.DB, dialect datasources.Dialect, opts ...Option) *fixture {
	t.Helper()
	tracker := changes.NewTracker()
	t.Cleanup(tracker.Close)
	return &fixture{
		db:      db,
		tracker: tracker,
		uow:     NewUnitOfWork(db, tracker, dialect, opts...),
		users:   NewUserRepository(db, tracker, dialect),
		notes:   newNoteGateway(db, tracker, dialect),
	}
}
