package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options carries the connection settings for the inventory store. Only the
// inventory API touches the database; the extraction pipeline never does.
type Options struct {
	User             string
	Password         string
	Host             string
	Port             string
	Name             string
	CloudSQLInstance string
}

// DSN renders the go-sql-driver DSN for these options.
func (o Options) DSN() string {
	return fmt.Sprintf("%s:%s@%s/%s?charset=utf8mb4&parseTime=True&loc=Local",
		o.User, o.Password, o.address(), o.Name)
}

// address resolves the network part. A Cloud SQL instance name takes
// precedence; otherwise the host is wrapped in tcp() or unix() unless the
// caller already spelled the network out.
func (o Options) address() string {
	switch {
	case o.CloudSQLInstance != "":
		return fmt.Sprintf("unix(/cloudsql/%s)", o.CloudSQLInstance)
	case strings.HasPrefix(o.Host, "tcp(") || strings.HasPrefix(o.Host, "unix("):
		return o.Host
	case strings.HasPrefix(o.Host, "/"):
		return fmt.Sprintf("unix(%s)", o.Host)
	default:
		return fmt.Sprintf("tcp(%s:%s)", o.Host, o.Port)
	}
}

// Connect opens the inventory database. The pool stays small: item CRUD is
// the only consumer, and each instance of the service holds its own pool.
func Connect(o Options) (*gorm.DB, error) {
	conn, err := gorm.Open(mysql.Open(o.DSN()), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(8)

	return conn, nil
}
