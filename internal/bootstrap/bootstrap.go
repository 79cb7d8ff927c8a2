package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/athome/driveops/internal/app/activity"
	appAuth "github.com/athome/driveops/internal/app/auth"
	appControllers "github.com/athome/driveops/internal/app/controllers"
	"github.com/athome/driveops/internal/app/messaging"
	appMigrations "github.com/athome/driveops/internal/app/migrations"
	"github.com/athome/driveops/internal/app/models"
	appRepos "github.com/athome/driveops/internal/app/repositories"
	appRoutes "github.com/athome/driveops/internal/app/routes"
	appServices "github.com/athome/driveops/internal/app/services"
	"github.com/athome/driveops/internal/config"
	"github.com/athome/driveops/internal/db"
	appMiddleware "github.com/athome/driveops/internal/middleware"
	pkgAuth "github.com/athome/driveops/internal/pkg/auth"
	"github.com/athome/driveops/internal/pkg/logger"
	"github.com/athome/driveops/internal/pkg/metrics"
	"github.com/athome/driveops/internal/pkg/poller"
	"github.com/athome/driveops/internal/pkg/websocket"
	"github.com/athome/driveops/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	MessageService  appServices.MessageService
	ProfileService  appServices.ProfileService
	ApprovalService appServices.ApprovalService
	ClockService    appServices.ClockService
	LocationService appServices.LocationService
	ScheduleService appServices.ScheduleService
	AssignService   appServices.AssignmentService
	RouteService    appServices.DrivingRouteService
	MaterialService appServices.MaterialService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	AuthzService   *appAuth.AuthorizationService
	Metrics        *metrics.Metrics

	// Realtime pipeline: Feed -> Router -> Hub clients
	Messenger *messaging.Messenger
	Router    *messaging.Router
	Feed      *appRepos.MessageFeed
	Hub       *websocket.Hub

	// Change events: Activity -> Changes -> Hub clients
	Activity *appRepos.ActivityFeed
	Changes  *activity.Stream

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
// CONFIG_PATH overrides the default configs/config.yaml.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join("configs", "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ConfigFrom(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	// Run migrations
	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrator"))

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return database, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database)
	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.New()
	}

	// Bootstrap admins (after migrations)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := seed.PromoteAdmins(ctx, deps.Repos.ProfileRepository, cfg.Bootstrap.AdminEmails, logger.Component("seed")); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to promote bootstrap admins, proceeding anyway...")
	}

	zones := models.NewZoneSet(cfg.Messaging.Zones...)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey: cfg.Auth.JWTSecret,
		Issuer:    cfg.Auth.Issuer,
		Audience:  cfg.Auth.Audience,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.ProfileRepository)

	// Messaging core and realtime pipeline
	deps.Messenger = messaging.NewMessenger(deps.Repos.MessageRepository, zones, logger.Component("messenger"))
	deps.Router = messaging.NewRouter(logger.Component("router"))
	deps.Feed = appRepos.NewMessageFeed(database, deps.Repos.MessageRepository, cfg.Messaging.FeedChannel, logger.Component("feed"))
	deps.Hub = websocket.NewHub(deps.Metrics, logger.Component("hub"))
	deps.Activity = appRepos.NewActivityFeed(database, cfg.Messaging.ActivityChannel, logger.Component("activity_feed"))
	deps.Changes = activity.NewStream(logger.Component("activity"))

	// Services
	deps.MessageService = appServices.NewMessageService(deps.Messenger, deps.Metrics, logger.Component("message_service"))
	deps.ProfileService = appServices.NewProfileService(deps.Repos.ProfileRepository, deps.AuthzService, zones, logger.Component("profile_service"))
	deps.ApprovalService = appServices.NewApprovalService(deps.Repos.ProfileRepository, poller.Config{
		Interval:    cfg.Approval.Interval,
		MaxInterval: cfg.Approval.MaxInterval,
		MaxAttempts: cfg.Approval.MaxAttempts,
	}, deps.Metrics, logger.Component("approval_service"))
	deps.ClockService = appServices.NewClockService(deps.Repos.ClockEventRepository, logger.Component("clock_service"))
	deps.LocationService = appServices.NewLocationService(deps.Repos.LiveLocationRepository, deps.Repos.ProfileRepository, logger.Component("location_service"))
	deps.ScheduleService = appServices.NewScheduleService(deps.Repos.ScheduleRepository, deps.Repos.ProfileRepository, deps.AuthzService, zones, logger.Component("schedule_service"))
	deps.AssignService = appServices.NewAssignmentService(deps.Repos.AssignmentRepository, deps.Repos.ProfileRepository, deps.AuthzService, zones, logger.Component("assignment_service"))
	deps.RouteService = appServices.NewDrivingRouteService(deps.Repos.DrivingRouteRepository, deps.AuthzService, zones, logger.Component("route_service"))
	deps.MaterialService = appServices.NewMaterialService(deps.Repos.MaterialRepository, deps.AuthzService, zones, logger.Component("material_service"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.AuthzService)

	deps.Controllers = appRoutes.Controllers{
		Profile:  appControllers.NewProfileController(deps.ProfileService, deps.ApprovalService),
		Message:  appControllers.NewMessageController(deps.MessageService),
		Clock:    appControllers.NewClockController(deps.ClockService),
		Location: appControllers.NewLocationController(deps.LocationService),
		Schedule: appControllers.NewScheduleController(deps.ScheduleService),
		Assign:   appControllers.NewAssignmentController(deps.AssignService),
		Route:    appControllers.NewDrivingRouteController(deps.RouteService),
		Material: appControllers.NewMaterialController(deps.MaterialService),
		Realtime: websocket.NewHandler(
			deps.Hub,
			deps.Router,
			deps.Changes,
			deps.ProfileService,
			deps.MessageService,
			cfg.Messaging.SubscriberBuffer,
			cfg.Server.AllowedOrigins,
			logger.Component("websocket"),
		).WithViewerRefresh(cfg.Messaging.ViewerRefresh),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(logger.Component("http")))
	router.Use(appMiddleware.CORS(cfg.Server.AllowedOrigins))

	if deps.Metrics != nil {
		router.Use(deps.Metrics.HandlerFunc())
		router.GET(cfg.Metrics.Path, gin.WrapH(deps.Metrics.Handler()))
	}

	// Setup API routes using the dependencies
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router, nil
}

// RunRealtime runs the message and activity feeds with their fan-outs until
// ctx is done or one of them fails.
func RunRealtime(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)
	feed := make(chan *models.Message, 256)
	changes := make(chan activity.Change, 256)

	g.Go(func() error {
		return deps.Feed.Run(ctx, feed)
	})
	g.Go(func() error {
		if err := deps.Router.Run(ctx, feed); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return deps.Activity.Run(ctx, changes)
	})
	g.Go(func() error {
		if err := deps.Changes.Run(ctx, changes); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	deps.Logger.Info().Msg("Realtime pipeline started")
	return g.Wait()
}
