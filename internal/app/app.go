package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/prediction-league/external/chain"
	"github.com/riskibarqy/prediction-league/external/gamma"
	"github.com/riskibarqy/prediction-league/external/jobqueue"
	"github.com/riskibarqy/prediction-league/internal/config"
	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/price"
	"github.com/riskibarqy/prediction-league/internal/domain/score"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	cacherepo "github.com/riskibarqy/prediction-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/prediction-league/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/prediction-league/internal/platform/cache"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

type repositories struct {
	leagues    league.Repository
	picks      pick.Repository
	swaps      swap.Repository
	prices     price.Repository
	scores     score.Repository
	dispatches jobscheduler.Repository
}

// App owns the HTTP server, the job scheduler and every resource they need.
type App struct {
	cfg       config.Config
	logger    *logging.Logger
	server    *http.Server
	scheduler *usecase.JobScheduler
	closers   []func()
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{cfg: cfg, logger: logger}

	repos, err := a.buildRepositories(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var chainReader usecase.ChainReader
	if cfg.ChainEnabled {
		reader, err := chain.NewReader(ctx, chain.ReaderConfig{
			RPCURL:         cfg.ChainRPCURL,
			TokenAddress:   cfg.ChainTokenAddress,
			EscrowAddress:  cfg.ChainEscrowAddress,
			LookbackBlocks: cfg.ChainLookbackBlocks,
			Logger:         logger.Named("chain"),
		})
		if err != nil {
			// Transparency reads report degraded without a chain.
			logger.Warn("chain reader unavailable", "error", err)
		} else {
			chainReader = reader
			a.closers = append(a.closers, reader.Close)
		}
	}

	gammaClient := gamma.NewClient(gamma.ClientConfig{
		BaseURL:        cfg.GammaBaseURL,
		Timeout:        cfg.GammaTimeout,
		MaxRetries:     cfg.GammaMaxRetries,
		RatePerSecond:  cfg.GammaRatePerSecond,
		RateBurst:      cfg.GammaRateBurst,
		Logger:         logger.Named("gamma"),
		CircuitBreaker: cfg.GammaCircuit,
	})

	locks := resilience.NewKeyedMutex()
	fees := usecase.NewProportionalFee(cfg.SwapFeeRate)

	leagueService := usecase.NewLeagueService(repos.leagues)
	pickService := usecase.NewPickService(repos.leagues, repos.picks, locks, nil, logger)
	swapService := usecase.NewSwapService(repos.leagues, repos.swaps, repos.prices, fees, locks, nil, logger)
	scoringService := usecase.NewScoringService(repos.leagues, repos.picks, repos.swaps, repos.prices, repos.scores, nil, locks, nil, logger)
	transparencyService := usecase.NewTransparencyService(
		usecase.TransparencyServiceConfig{ChainTimeout: cfg.ChainTimeout},
		repos.leagues, repos.picks, repos.swaps, chainReader, logger,
	)
	priceService := usecase.NewPriceService(
		usecase.PriceServiceConfig{FetchTimeout: cfg.PriceFetchTimeout},
		gammaClient, repos.prices, repos.picks, repos.swaps, logger,
	)

	a.scheduler = usecase.NewJobScheduler(
		usecase.JobSchedulerConfig{
			PriceInterval:   cfg.JobPriceInterval,
			ScoringInterval: cfg.JobScoringInterval,
			RunTimeout:      cfg.JobRunTimeout,
			MaxWorkers:      cfg.JobMaxWorkers,
		},
		leagueService, priceService, scoringService,
		memory.NewJobMetricStore(cfg.JobMetricCapacity),
		locks,
		logger.Named("jobs"),
	)
	if cfg.QStashEnabled {
		publisher, err := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker:   cfg.QStashCircuit,
		}, logger.Named("qstash"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("build qstash publisher: %w", err)
		}
		a.scheduler.WithPublisher(publisher, repos.dispatches)
	}

	handler := httpapi.NewHandler(leagueService, pickService, swapService, scoringService, transparencyService, a.scheduler, repos.dispatches, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		RateLimits:         httpapi.NewLimiterStore(cfg.RateLimitPerSecond, cfg.RateLimitBurst, cfg.RateLimitMaxClients),
	})

	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return a, nil
}

func (a *App) buildRepositories(ctx context.Context) (repositories, error) {
	var repos repositories
	if a.cfg.DBURL == "" {
		a.logger.Info("storage: in-memory", "seed", true)
		now := time.Now()
		picks := memory.NewPickRepository()
		prices := memory.NewPriceRepository()
		repos = repositories{
			leagues:    memory.NewLeagueRepository(memory.SeedLeagues(now), memory.SeedMembers(now)),
			picks:      picks,
			swaps:      memory.NewSwapRepository(prices),
			prices:     prices,
			scores:     memory.NewScoreRepository(picks),
			dispatches: memory.NewJobDispatchRepository(),
		}
	} else {
		db, err := openDatabase(ctx, a.cfg)
		if err != nil {
			return repositories{}, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := a.seedDatabase(ctx, db); err != nil {
			return repositories{}, err
		}
		a.logger.Info("storage: postgres", "db_name", dbNameFromURL(a.cfg.DBURL))
		repos = repositories{
			leagues:    postgres.NewLeagueRepository(db),
			picks:      postgres.NewPickRepository(db),
			swaps:      postgres.NewSwapRepository(db),
			prices:     postgres.NewPriceRepository(db),
			scores:     postgres.NewScoreRepository(db),
			dispatches: postgres.NewJobDispatchRepository(db),
		}
	}

	if a.cfg.CacheEnabled {
		store := basecache.NewStore(a.cfg.CacheTTL)
		repos.leagues = cacherepo.NewLeagueRepository(repos.leagues, store)
		repos.scores = cacherepo.NewScoreRepository(repos.scores, store)
	}
	return repos, nil
}

func (a *App) seedDatabase(ctx context.Context, db *sqlx.DB) error {
	if !a.cfg.DBSeedEnabled {
		return nil
	}
	if err := postgres.BootstrapSeed(ctx, db, time.Now()); err != nil {
		return fmt.Errorf("bootstrap seed: %w", err)
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves HTTP and, when enabled, the in-process scheduler until ctx is done.
// It then drains the server and waits for in-flight job runs.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	var wg conc.WaitGroup
	wg.Go(func() {
		a.logger.Info("http server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			cancel()
		}
	})
	if a.cfg.JobSchedulerEnabled {
		wg.Go(func() {
			if err := a.scheduler.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("job scheduler stopped", "error", err)
			}
		})
	} else {
		a.logger.Info("job scheduler disabled", "reason", "JOB_SCHEDULER_ENABLED=false")
	}

	<-runCtx.Done()

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer stop()
	shutdownErr := a.server.Shutdown(shutdownCtx)
	wg.Wait()
	a.logger.Info("http server stopped")

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server failed: %w", err)
	default:
	}
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}
	return nil
}

// Close releases the database pool and the chain client in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
