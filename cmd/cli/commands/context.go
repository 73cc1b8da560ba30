package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/relief-allocator/internal/config"
	"github.com/jakechorley/relief-allocator/pkg/cache"
	"github.com/jakechorley/relief-allocator/pkg/core/optimizer"
	"github.com/jakechorley/relief-allocator/pkg/db"
	"github.com/jakechorley/relief-allocator/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Engine   *optimizer.Optimizer
	Store    cache.Store
	Runs     db.RunStore
	Database *postgres.DB // nil unless databaseURL is configured
	Logger   *zap.Logger
	Ctx      context.Context
}
