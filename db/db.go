package db

import (
	"errors"
	"io"
	"log"
	"os"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Instance *gorm.DB

	logWriter io.Writer = os.Stdout
)

// newLogger reports slow queries and errors. A missing record is an answer, not an error
func newLogger() logger.Interface {
	return logger.New(log.New(logWriter, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Init connects to MySQL when a DSN is given, otherwise to the SQLite file
func Init(mysqlDSN, sqliteFile string) {
	log.Printf("Connecting to %s", Describe(mysqlDSN, sqliteFile))
	db, err := Open(mysqlDSN, sqliteFile)
	if err != nil || db == nil {
		panic(err)
	}
	Instance = db
}

func Open(mysqlDSN, sqliteFile string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 newLogger(),
	}
	if mysqlDSN != "" {
		return gorm.Open(mysql.Open(mysqlDSN), cfg)
	}
	if sqliteFile == "" {
		return nil, errors.New("no database configured, set MYSQL_DSN or SQLITE_FILE")
	}
	return gorm.Open(sqlite.Open(sqliteFile), cfg)
}

// Describe returns the connection target without credentials
func Describe(mysqlDSN, sqliteFile string) string {
	if mysqlDSN == "" {
		return "SQLite " + sqliteFile
	}
	cfg, err := mysqldriver.ParseDSN(mysqlDSN)
	if err != nil {
		return "MySQL (unparsable DSN)"
	}
	return "MySQL " + cfg.Net + "(" + cfg.Addr + ")/" + cfg.DBName
}
