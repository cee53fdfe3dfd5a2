package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/fx"

	"healthcare-interop-dashboard/config"
	"healthcare-interop-dashboard/internal/chart"
	"healthcare-interop-dashboard/internal/controller"
	"healthcare-interop-dashboard/internal/gateway"
	"healthcare-interop-dashboard/internal/lifecycle"
	"healthcare-interop-dashboard/internal/metrics"
	"healthcare-interop-dashboard/internal/model"
	"healthcare-interop-dashboard/internal/scheduler"
	"healthcare-interop-dashboard/internal/service"
	"healthcare-interop-dashboard/internal/widget"
)

// @title           Healthcare Interoperability Dashboard API
// @version         1.0
// @description     Live data synchronization backend for the healthcare interoperability dashboard. Polls the remote metrics service on a fixed interval and serves rendered charts, widget values and refresh status.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @schemes   http

// @tag.name         dashboard
// @tag.description  Rendered charts, widget values and refresh status
// @tag.name         partners
// @tag.description  Manual partner connectivity tests
// @tag.name         health
// @tag.description  Service health check

func main() {
	app := fx.New(
		// Core Dependencies
		fx.Provide(
			NewConfig,
		),
		// Infrastructure Dependencies
		fx.Provide(
			NewGinEngine,
			NewCatalog,
			NewCollectors,
			gateway.NewClient,
			chart.NewManager,
			widget.NewTextUpdater,
			scheduler.NewRefreshScheduler,
			NewLifecycleController,
			service.NewConnectivityService,
			controller.NewDashboardController,
		),
		fx.Invoke(
			RegisterSurfaces,
			RegisterAPIRoutes,
			RegisterLifecycle,
		),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	<-app.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	log.Info().Msg("Shutting down application...")
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown due to error or timeout")
	}
	log.Info().Msg("Shutdown complete. Exiting.")
}

func NewConfig() (*config.Config, error) {
	return config.NewConfig()
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	p := ginprometheus.NewPrometheus("dashboard")
	p.Use(r)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// --- Factory Functions ---

func NewCatalog() []model.BoundQuery {
	return model.DefaultCatalog()
}

func NewCollectors() *metrics.Collectors {
	return metrics.NewCollectors(prometheus.DefaultRegisterer)
}

func NewLifecycleController(
	sched scheduler.RefreshScheduler,
	charts *chart.Manager,
	catalog []model.BoundQuery,
	cfg *config.Config,
) *lifecycle.Controller {
	return lifecycle.NewController(sched, charts, catalog, cfg.Refresh.Interval)
}

// --- Invoker Functions ---

// RegisterSurfaces declares one render target per chart-bound query before
// the lifecycle controller initializes the charts.
func RegisterSurfaces(charts *chart.Manager, catalog []model.BoundQuery) {
	for _, bound := range catalog {
		if bound.Chart != nil {
			charts.RegisterSurface(bound.Chart.Surface)
		}
	}
}

func RegisterAPIRoutes(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	dashboardController *controller.DashboardController,
) {
	controller.RegisterDashboardRoutes(router, dashboardController)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Starting HTTP server on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("HTTP server ListenAndServe error")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Shutting down HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}

// RegisterLifecycle ties the dashboard lifecycle controller to process
// start and stop: first render plus refresh loop on start, teardown on stop.
func RegisterLifecycle(lc fx.Lifecycle, life *lifecycle.Controller) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return life.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			life.Stop()
			return nil
		},
	})
}
