package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/medstock-pro/internal/application/insights"
	appports "github.com/tu-usuario/medstock-pro/internal/application/ports"
	"github.com/tu-usuario/medstock-pro/internal/application/purchasing"
	"github.com/tu-usuario/medstock-pro/internal/application/usecase"
	"github.com/tu-usuario/medstock-pro/internal/infrastructure/postgres"
	"github.com/tu-usuario/medstock-pro/internal/infrastructure/scoring"
	httpRouter "github.com/tu-usuario/medstock-pro/internal/interfaces/http"
	"github.com/tu-usuario/medstock-pro/pkg/config"
	"github.com/tu-usuario/medstock-pro/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios sobre el pool; el TxRunner construye variantes atadas a tx.
	orgRepo := postgres.NewOrganizationRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	predRepo := postgres.NewPredictionRepository(pool)
	changeRepo := postgres.NewInventoryChangeRepository(pool)
	orderRepo := postgres.NewPurchaseOrderRepository(pool)
	usageRepo := postgres.NewFeatureUsageRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Función de scoring: Claude si hay API key, heurística local si no.
	var scorer appports.InventoryScorer
	if cfg.AI.AnthropicAPIKey != "" {
		scorer = scoring.NewAnthropicScorer(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
		log.Info().Str("model", cfg.AI.AnthropicModel).Msg("scorer: Anthropic")
	} else {
		scorer = scoring.NewHeuristicScorer()
		log.Info().Msg("scorer: heurístico local (sin ANTHROPIC_API_KEY)")
	}

	scope := insights.NewLocationScope(orgRepo)
	cache := insights.NewPredictionCache(predRepo)
	ranker := insights.NewSupplierRanker(supplierRepo)
	meter := insights.NewUsageMeter(usageRepo, log)
	scoreTimeout := time.Duration(cfg.Insights.ScoreTimeoutSeconds) * time.Second

	reorderUC := insights.NewReorderInsightsUseCase(
		itemRepo, changeRepo, scope, cache, ranker, scorer, log,
		cfg.Insights.ScoringParallelism, scoreTimeout,
	)
	wasteUC := insights.NewWasteInsightsUseCase(
		itemRepo, changeRepo, scope, cache, scorer, log,
		cfg.Insights.ScoringParallelism, scoreTimeout,
	)
	actionUC := insights.NewRecordActionUseCase(txRunner, itemRepo, predRepo)
	draftUC := purchasing.NewDraftUseCase(txRunner, orderRepo, itemRepo, predRepo, orgRepo, ranker, log)
	planSvc := usecase.NewPlanService(orgRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "MedStock API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ReorderUC: reorderUC,
		WasteUC:   wasteUC,
		ActionUC:  actionUC,
		Meter:     meter,
		DraftUC:   draftUC,
		PlanSvc:   planSvc,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
