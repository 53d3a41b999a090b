package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/flowgen-backend/internal/platform/logger"
	"github.com/yungbote/flowgen-backend/internal/types"
)

const sqlitePrefix = "sqlite:"

// Open connects to dsn. A "sqlite:<path>" dsn opens sqlite (":memory:" for
// tests); anything else is handed to the postgres driver.
func Open(baseLog *logger.Logger, dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database dsn required")
	}
	serviceLog := baseLog.With("service", "Database")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var dialector gorm.Dialector
	driver := "postgres"
	if strings.HasPrefix(dsn, sqlitePrefix) {
		driver = "sqlite"
		dialector = sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	serviceLog.Info("Connected to database", "driver", driver)
	return db, nil
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(&types.AICallLog{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
