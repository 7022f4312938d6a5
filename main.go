package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"github.com/yafa-kitchen/recipes/config"
	"github.com/yafa-kitchen/recipes/models"
	"github.com/yafa-kitchen/recipes/ratelimit"
	"github.com/yafa-kitchen/recipes/repository"
	"github.com/yafa-kitchen/recipes/routes"
	"github.com/yafa-kitchen/recipes/services"
	"github.com/yafa-kitchen/recipes/utils"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	if err := utils.RegisterValidators(); err != nil {
		utils.Sugar.Fatalf("register validators: %v", err)
	}

	db := config.InitDatabase(
		&models.Category{},
		&models.Tag{},
		&models.Recipe{},
		&models.Ingredient{},
		&models.Step{},
		&models.ViewEvent{},
	)
	rdb := utils.GetRedis()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	window := time.Duration(cfg.ViewLimitWindowSec) * time.Second
	var limiter ratelimit.Limiter
	stopLimiter := func() {}
	if cfg.ViewSharedLimiter {
		limiter = ratelimit.NewRedisWindow(rdb, "ratelimit:view:", cfg.ViewLimitPerWindow, window)
	} else {
		fw := ratelimit.NewFixedWindow(cfg.ViewLimitPerWindow, window)
		fw.Start(ctx)
		limiter = fw
		stopLimiter = fw.Stop
	}

	recipes := repository.NewRecipeRepository(db)
	categories := repository.NewCategoryRepository(db)
	events := repository.NewViewEventRepository(db)

	catalog := services.NewCatalogService(recipes)
	recorder := services.NewViewRecorder(events,
		services.WithDedupWindow(time.Duration(cfg.ViewDedupHours)*time.Hour),
		services.WithRecorderLogger(utils.Logger),
	)

	r := routes.SetupRouter(routes.Deps{
		Catalog:    catalog,
		Tracker:    recorder,
		Dashboard:  services.NewAnalyticsService(events, catalog),
		Recipes:    services.NewRecipeAdminService(recipes, categories),
		Categories: services.NewCategoryService(categories),
		Cache:      utils.NewCache(rdb, 0),
		Revoker:    utils.NewTokenRevoker(rdb),
		States:     utils.NewStateStore(rdb),
		Limiter:    limiter,
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err := utils.GraceServer(":"+cfg.AppPort, r,
		recorder.Wait,
		stopLimiter,
		config.CloseDatabase,
		utils.CloseRedis,
		func() { _ = utils.Logger.Sync() },
	)
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
