package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/store/drivers/sqlstore"
	"github.com/go-sql-driver/mysql"
)

// errDupEntry is ER_DUP_ENTRY.
const errDupEntry = 1062

type Store struct {
	*sqlstore.Store
}

// NewStore opens a MySQL pool from a go-sql-driver DSN
// (user:pass@tcp(host:3306)/greenadmin). Options the repositories depend on
// are forced regardless of what the DSN carries.
func NewStore(dsn string) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true // migrations run whole files
	cfg.ClientFoundRows = true // UPDATE reports matched rows

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		Store: sqlstore.New(db, sqlstore.Dialect{
			Name:              "mysql",
			IsUniqueViolation: isUniqueViolation,
		}),
	}, nil
}

func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}
