package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"tienda/config"
	"tienda/internal/delivery"
	"tienda/internal/delivery/http"
	"tienda/internal/delivery/http/middleware"
	"tienda/internal/delivery/http/router/handler"
	"tienda/internal/domain/service"
	"tienda/internal/infra/auth"
	"tienda/internal/infra/cache"
	"tienda/internal/infra/export"
	"tienda/internal/infra/idgen"
	logs "tienda/internal/infra/log"
	"tienda/internal/infra/mail"
	"tienda/internal/infra/persistence/postgres"
	"tienda/internal/infra/pubsub"
	"tienda/internal/infra/qrcode"
	"tienda/internal/infra/scheduler"
	"tienda/internal/infra/storage"
	"tienda/internal/usecase"
	"tienda/internal/usecase/impl"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()
	decimal.MarshalJSONWithoutQuotes = true

	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		injectScheduler(),
		pubsub.Module,
		fx.Invoke(
			ensureAdmin,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		cache.NewRedisClient,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewProductRepository,
			postgres.NewOrderRepository,
			postgres.NewSaleRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			auth.NewOpaqueTokenIssuer,
			mail.New,
			storage.New,
			idgen.New,
			qrcode.New,
			newReportExporter,
			cache.NewTokenBucket,
		),
	)
}

// newReportExporter renders report dates in the scheduler's time zone.
func newReportExporter(cfg *config.Config) (service.ReportExporter, error) {
	loc := time.UTC
	if cfg.Scheduler.Location != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Scheduler.Location); err != nil {
			return nil, errors.Wrapf(err, "invalid location %s", cfg.Scheduler.Location)
		}
	}

	return export.NewReportExporter(loc), nil
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewProductService,
			impl.NewOrderService,
			impl.NewSaleService,
			impl.NewNotificationService,
			// The in-process bus delivers straight to the notification usecase
			func(n usecase.NotificationUsecase) service.EventHandler { return n },
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
			middleware.NewRateLimitMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewProductHandler,
			handler.NewOrderHandler,
			handler.NewSaleHandler,
		),
	)
}

func injectScheduler() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg *config.Config, authUC usecase.AuthUsecase, logger *slog.Logger) scheduler.Job {
					return scheduler.NewTokenPurgeJob(cfg, authUC, logger)
				},
				fx.ResultTags(`group:"jobs"`),
			),
			scheduler.New,
		),
		fx.Invoke(func(*cron.Cron) {}),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func ensureAdmin(lc fx.Lifecycle, authUC usecase.AuthUsecase) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return authUC.EnsureAdmin(ctx)
		},
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
