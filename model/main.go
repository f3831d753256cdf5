package model

import (
	"os"
	"strings"
	"time"

	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/common/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func chooseDB(envName string) (*gorm.DB, error) {
	dsn := os.Getenv(envName)
	if dsn != "" {
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			logger.SysLog("using PostgreSQL as database")
			common.UsingPostgreSQL = true
			return gorm.Open(postgres.New(postgres.Config{
				DSN:                  dsn,
				PreferSimpleProtocol: true, // disables implicit prepared statement usage
			}), gormConfig())
		}
		logger.SysLog("using MySQL as database")
		common.UsingMySQL = true
		return gorm.Open(mysql.Open(dsn), gormConfig())
	}
	logger.SysLog("SQL_DSN not set, using SQLite as database")
	common.UsingSQLite = true
	dsn = common.SQLitePath + "?_busy_timeout=3000"
	return gorm.Open(sqlite.Open(dsn), gormConfig())
}

func gormConfig() *gorm.Config {
	cfg := &gorm.Config{
		PrepareStmt: true,
	}
	if !config.DebugSQLEnabled {
		cfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	return cfg
}

func InitDB(envName string) (db *gorm.DB, err error) {
	db, err = chooseDB(envName)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(100)
	sqlDB.SetMaxOpenConns(1000)
	sqlDB.SetConnMaxLifetime(time.Second * 60)

	logger.SysLog("database migration started")
	err = migrate(db)
	if err != nil {
		return nil, err
	}
	logger.SysLog("database migrated")
	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Job{},
		&TopupOrder{},
		&Subscription{},
	)
}

func CloseDB() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
