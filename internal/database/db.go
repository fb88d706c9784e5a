package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Options describes how to reach MySQL and size the pool.
type Options struct {
	User         string
	Pass         string
	Host         string
	Port         string
	Name         string
	MaxOpenConns int
}

// DSN builds the driver DSN.  parseTime=true maps DATE/DATETIME to
// time.Time and loc=UTC keeps calendar dates stable across hosts.
func (o Options) DSN() string {
	c := mysql.NewConfig()
	c.User = o.User
	c.Passwd = o.Pass
	c.Net = "tcp"
	c.Addr = o.Host + ":" + o.Port
	c.DBName = o.Name
	c.ParseTime = true
	c.Loc = time.UTC
	c.MultiStatements = true // goose migrations ship several statements per file
	c.ClientFoundRows = true // RowsAffected counts matched rows, not changed ones
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", o.DSN())
	if err != nil {
		return nil, err
	}

	maxOpen := o.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// MySQL error numbers the repositories care about.
const (
	ErrNumDuplicateEntry  uint16 = 1062
	ErrNumNoReferencedRow uint16 = 1452
	ErrNumCheckViolation  uint16 = 3819
)

// IsErrNum reports whether err is a MySQL error with the given number.
func IsErrNum(err error, num uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == num
}

// IsDuplicate reports a unique-key violation.
func IsDuplicate(err error) bool { return IsErrNum(err, ErrNumDuplicateEntry) }
