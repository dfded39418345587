package model

import (
	"os"
	"strings"
	"time"

	"github.com/reelforge/reelforge/common"
	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/common/env"
	"github.com/reelforge/reelforge/common/helper"
	"github.com/reelforge/reelforge/common/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func CreateRootAccountIfNeed() error {
	var user User
	if err := DB.First(&user).Error; err != nil {
		logger.SysLog("no user exists, creating a root user for you: username is root, password is 123456")
		hashedPassword, err := common.Password2Hash("123456")
		if err != nil {
			return err
		}
		accessToken := helper.GetUUID()
		if config.InitialRootToken != "" {
			accessToken = config.InitialRootToken
		}
		rootUser := User{
			Username:    "root",
			Password:    hashedPassword,
			Role:        common.RoleRootUser,
			Status:      common.UserStatusEnabled,
			DisplayName: "Root User",
			AccessToken: accessToken,
		}
		DB.Create(&rootUser)
	}
	return nil
}

func chooseDB(envName string) (*gorm.DB, error) {
	dsn := os.Getenv(envName)

	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		// Use PostgreSQL (Supabase is just a hosted postgres DSN)
		logger.SysLog("using PostgreSQL as database")
		common.UsingPostgreSQL = true
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}), &gorm.Config{
			PrepareStmt: true, // precompile SQL
		})
	case dsn != "":
		// Use MySQL
		logger.SysLog("using MySQL as database")
		common.UsingMySQL = true
		return gorm.Open(mysql.Open(dsn), &gorm.Config{
			PrepareStmt: true, // precompile SQL
		})
	default:
		// Use SQLite
		logger.SysLog("SQL_DSN not set, using SQLite as database")
		common.UsingSQLite = true
		dsn := common.SQLitePath + "?_busy_timeout=3000"
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{
			PrepareStmt: true, // precompile SQL
		})
	}
}

func InitDB(envName string) (db *gorm.DB, err error) {
	db, err = chooseDB(envName)
	if err == nil {
		if config.DebugSQLEnabled {
			db = db.Debug()
		} else {
			db.Logger = gormLogger.Default.LogMode(gormLogger.Silent)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxIdleConns(env.Int("SQL_MAX_IDLE_CONNS", 100))
		sqlDB.SetMaxOpenConns(env.Int("SQL_MAX_OPEN_CONNS", 1000))
		sqlDB.SetConnMaxLifetime(time.Second * time.Duration(env.Int("SQL_MAX_LIFETIME", 60)))

		if !config.IsMasterNode {
			return db, err
		}
		logger.SysLog("database migration started")
		err = migrateDB(db)
		return db, err
	} else {
		logger.FatalLog(err)
	}
	return db, err
}

func migrateDB(db *gorm.DB) error {
	for _, m := range []any{
		&User{},
		&Option{},
		&GenerationRequest{},
		&Script{},
		&Clip{},
		&ChatDraft{},
		&UsageLog{},
		&TrainingSample{},
	} {
		if err := db.AutoMigrate(m); err != nil {
			return err
		}
	}
	logger.SysLog("database migrated")
	return nil
}

func CloseDB() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	return err
}
