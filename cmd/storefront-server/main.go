package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/log"
	"github.com/MikeMC777/storefront/internal/server"
	"github.com/MikeMC777/storefront/internal/store/memstore"
	"github.com/MikeMC777/storefront/internal/store/pgstore"
	"github.com/MikeMC777/storefront/internal/user"
)

func main() {
	cfg := config.LoadServer()
	log.Configure(log.Config{Level: cfg.LogLevel, Service: "storefront-server"})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("store init failed")
	}
	defer closeStore()

	deps.Secret = []byte(cfg.JWTSecret)
	deps.TokenTTL = cfg.TokenTTL
	deps.Logger = log.WithComponent("http")
	deps.AllowedOrigins = cfg.CORSOrigins
	deps.AuthBurst = cfg.AuthBurst
	if cfg.AuthRatePerMinute > 0 {
		deps.AuthRate = rate.Every(time.Minute / time.Duration(cfg.AuthRatePerMinute))
	}

	if cfg.SeedEmail != "" {
		u, created, err := user.NewService(deps.Users).EnsureSuperadmin(ctx, cfg.SeedName, cfg.SeedEmail, cfg.SeedPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("superadmin seed failed")
		}
		logger.Info().Int64("user", u.ID).Bool("created", created).Msg("superadmin ready")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.GRPCHealthAddr != "" {
		health := server.NewHealth(log.WithComponent("health"))
		health.SetServing(true)
		g.Go(func() error { return health.Serve(gctx, cfg.GRPCHealthAddr) })
	}

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("bye")
}

// openStore picks Postgres when a DSN is configured and the in-memory store
// otherwise.
func openStore(ctx context.Context, cfg config.Server) (server.Deps, func(), error) {
	if cfg.PostgresDSN == "" {
		mainLog := log.WithComponent("main")
		mainLog.Warn().Msg("POSTGRES_DSN not set, using in-memory store")
		st := memstore.New()
		return server.Deps{
			Products: st.Products,
			Carts:    st.Carts,
			Orders:   st.Orders,
			Users:    st.Users,
		}, func() {}, nil
	}

	pool, err := pgstore.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return server.Deps{}, nil, err
	}
	if err := pgstore.Migrate(ctx, pool); err != nil {
		pool.Close()
		return server.Deps{}, nil, err
	}
	r := pgstore.NewRepos(pool)
	return server.Deps{
		Products: r.Products,
		Carts:    r.Carts,
		Orders:   r.Orders,
		Users:    r.Users,
	}, pool.Close, nil
}
