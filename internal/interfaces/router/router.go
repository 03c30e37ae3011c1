package router

import (
	archsvc "immoci-backend/internal/application/archival"
	"immoci-backend/internal/application/artifacts"
	authsvc "immoci-backend/internal/application/auth"
	listsvc "immoci-backend/internal/application/listings"
	"immoci-backend/internal/config"
	"immoci-backend/internal/infrastructure/database"
	accounthandler "immoci-backend/internal/interfaces/handlers/account"
	authhandler "immoci-backend/internal/interfaces/handlers/auth"
	healthhandler "immoci-backend/internal/interfaces/handlers/health"
	listhandler "immoci-backend/internal/interfaces/handlers/listings"
	"immoci-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and routes.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	store, err := artifacts.NewFSStore(cfg.ArtifactPublicRoot, cfg.ArtifactArchiveRoot)
	if err != nil {
		return nil, nil, nil, err
	}

	hh := &healthhandler.Handlers{DB: db, Rdb: rdb}
	app.Get("/health/json", hh.JSON)

	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	ah := &authhandler.Handlers{UserFinder: userFinder, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db != nil {
		listingService := &listsvc.Service{DB: db, Storage: store}
		saga := &archsvc.Saga{DB: db, Storage: store}

		lh := &listhandler.Handlers{Service: listingService, Saga: saga}
		biens := app.Group("/api/v1/biens", middleware.RequireAuth())
		biens.Get("/", lh.MyListings)
		biens.Post("/", lh.CreateListing)
		biens.Post("/validate-step", lh.ValidateStep)
		biens.Post("/reprise", lh.ResumeStep)
		biens.Put("/:id_bien", lh.EditListing)
		biens.Post("/:id_bien/publier", lh.Publish)
		biens.Delete("/", lh.DeleteListing)

		ach := &accounthandler.Handlers{Saga: saga, Rdb: rdb, Config: sessionCfg}
		app.Delete("/api/v1/compte", middleware.RequireAuth(), ach.DeleteAccount)
	}

	return app, db, rdb, nil
}
