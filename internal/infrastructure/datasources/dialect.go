package datasources

import (
	"fmt"

	"github.com/lib/pq"

	"userstore.backend/internal/config"
	"userstore.backend/internal/infrastructure/sqlgen"
)

// Dialect holds the store-specific SQL the unit of work needs.
type Dialect struct {
	Name string
	// LastInsertIDQuery reads the identity generated by the previous insert
	// on the same connection.
	LastInsertIDQuery string
}

var (
	SQLite   = Dialect{Name: config.DriverSQLite, LastInsertIDQuery: "SELECT last_insert_rowid()"}
	Postgres = Dialect{Name: config.DriverPostgres, LastInsertIDQuery: "SELECT lastval()"}
)

// DialectFor returns the dialect for a configured driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverSQLite, "sqlite3":
		return SQLite, nil
	case config.DriverPostgres, "postgresql":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// QuoteIdent validates name against the identifier allow-list and quotes it.
func (d Dialect) QuoteIdent(name string) (string, error) {
	if err := sqlgen.ValidateIdentifier(name); err != nil {
		return "", err
	}
	return pq.QuoteIdentifier(name), nil
}

// SelectAllFrom builds a full-table select for a validated table name.
func (d Dialect) SelectAllFrom(table string) (sqlgen.Statement, error) {
	quoted, err := d.QuoteIdent(table)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	return sqlgen.New("SELECT * FROM " + quoted), nil
}
