package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yafa-kitchen/recipes/config"
	"github.com/yafa-kitchen/recipes/controllers"
	"github.com/yafa-kitchen/recipes/metrics"
	"github.com/yafa-kitchen/recipes/middleware"
	"github.com/yafa-kitchen/recipes/ratelimit"
	"github.com/yafa-kitchen/recipes/utils"
)

// Deps carries everything the HTTP layer talks to.
type Deps struct {
	Catalog    controllers.Catalog
	Tracker    controllers.ViewTracker
	Dashboard  controllers.DashboardSource
	Recipes    controllers.RecipeEditor
	Categories controllers.CategoryStore
	Cache      *utils.Cache
	Revoker    *utils.TokenRevoker
	States     *utils.StateStore
	Limiter    ratelimit.Limiter
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(metrics.Middleware())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	// keep the interfaces nil when no revoker is wired
	var revocations middleware.Revocations
	var revoker controllers.TokenRevoker
	if deps.Revoker != nil {
		revocations = deps.Revoker
		revoker = deps.Revoker
	}

	recipeController := controllers.NewRecipeController(deps.Catalog)
	trackController := controllers.NewTrackController(deps.Tracker)
	categoryController := controllers.NewCategoryController(deps.Categories, deps.Cache)
	sitemapController := controllers.NewSitemapController(deps.Catalog)
	dashboardController := controllers.NewDashboardController(deps.Dashboard)
	adminRecipeController := controllers.NewAdminRecipeController(deps.Recipes)
	authController := controllers.NewAuthController(revoker)
	provider, err := controllers.NewOAuthProvider(cfg)
	if err != nil {
		utils.Sugar.Warnf("oauth login disabled: %v", err)
	}
	if provider != nil {
		states := deps.States
		if states == nil {
			states = utils.NewStateStore(nil)
		}
		authController.WithOAuth(provider, states)
	}

	r.GET("/sitemap.xml", sitemapController.Sitemap)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestTimeout(10 * time.Second))

	api.GET("/home", recipeController.Home)
	api.GET("/recipes", recipeController.List)
	api.GET("/recipes/:slug", recipeController.Detail)
	api.GET("/categories", categoryController.List)

	track := api.Group("/track")
	track.Use(middleware.OptionalAuth(revocations))
	track.POST("/site-view", middleware.ViewRateLimit(deps.Limiter, "site-view"), trackController.SiteView)
	track.POST("/recipe-view", middleware.ViewRateLimit(deps.Limiter, "recipe-view"), trackController.RecipeView)

	throttle := middleware.NewAPIThrottle(cfg.RateLimitPerMinute)

	api.POST("/admin/login", throttle.Handler("admin-login"), authController.Login)
	api.GET("/admin/oauth/login", throttle.Handler("admin-login"), authController.OAuthRedirect)
	api.GET("/admin/oauth/callback", throttle.Handler("admin-login"), authController.OAuthCallback)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(revocations), middleware.AdminRequired(), throttle.Handler("admin"))
	admin.POST("/logout", authController.Logout)
	admin.GET("/me", authController.Me)
	admin.GET("/dashboard", dashboardController.GetDashboard)

	admin.GET("/recipes", adminRecipeController.List)
	admin.POST("/recipes", adminRecipeController.Create)
	admin.GET("/recipes/:id", adminRecipeController.Get)
	admin.PUT("/recipes/:id", adminRecipeController.Update)
	admin.DELETE("/recipes/:id", adminRecipeController.Delete)
	admin.POST("/recipes/:id/duplicate", adminRecipeController.Duplicate)

	admin.GET("/categories", categoryController.List)
	admin.POST("/categories", categoryController.Create)
	admin.PUT("/categories/:id", categoryController.Update)
	admin.DELETE("/categories/:id", categoryController.Delete)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
