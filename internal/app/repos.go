package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/flowgen-backend/internal/db"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
	"github.com/yungbote/flowgen-backend/internal/repos"
)

type Repos struct {
	AICallLog repos.AICallLogRepo
}

// wireRepos opens the audit database when a DSN is configured. A nil *gorm.DB
// means call logging is off.
func wireRepos(log *logger.Logger, dsn string) (*gorm.DB, Repos, error) {
	if dsn == "" {
		log.Info("DATABASE_URL not set; model call audit log disabled")
		return nil, Repos{}, nil
	}
	log.Info("Wiring repos...")
	theDB, err := db.Open(log, dsn)
	if err != nil {
		return nil, Repos{}, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		return nil, Repos{}, fmt.Errorf("automigrate: %w", err)
	}
	return theDB, Repos{AICallLog: repos.NewAICallLogRepo(theDB, log)}, nil
}
