// 程序入口：读取配置、装配名单/解析器/缓存并启动 HTTP 服务；路由注册在 internal/api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"

	"volunteer-geo/internal/api"
	"volunteer-geo/internal/district"
	"volunteer-geo/internal/iploc"
	"volunteer-geo/internal/logger"
	"volunteer-geo/internal/metrics"
	"volunteer-geo/internal/middleware"
	"volunteer-geo/internal/migrate"
	"volunteer-geo/internal/rescache"
	"volunteer-geo/internal/store"
	"volunteer-geo/internal/utils"
	"volunteer-geo/internal/volunteer"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")

	apiBase := utils.EnvOr("API_BASE", "/api")
	l.Debug("config_api_base", "base", apiBase)

	// 地名表：内置表 + 可选 YAML 扩展
	gz := district.Builtin()
	if n, err := gz.ExtendFile(os.Getenv("GAZETTEER_EXTRA_PATH")); err != nil {
		l.Error("gazetteer_extend_error", "err", err)
		os.Exit(1)
	} else if n > 0 {
		l.Info("gazetteer_extended", "added", n)
	}
	l.Info("gazetteer_ready", "keys", gz.Len())

	lru := district.NewLRU(utils.EnvInt("RESOLVE_LRU_SIZE", 4096, 1), utils.EnvSeconds("RESOLVE_CACHE_TTL_S", time.Hour))
	resolver := district.NewResolver(gz, district.WithCache(lru))

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		cancel()
		defer rc.Close()
	}
	cache := rescache.New(rc, resolver, utils.EnvSeconds("RESOLVE_CACHE_TTL_S", time.Hour))

	roster := volunteer.Prepare(loadRoster(l))
	metrics.RosterSize.Set(float64(len(roster)))
	l.Info("roster_loaded", "count", len(roster))

	var locator *iploc.Locator
	if p := os.Getenv("GEOIP_CITY_PATH"); p != "" {
		if lc, err := iploc.Open(p, utils.EnvBool("GEOIP_VERIFY", false)); err != nil {
			l.Error("geoip_open_error", "path", p, "err", err)
		} else {
			locator = lc
			defer lc.Close()
			l.Info("geoip_ready", "path", p)
		}
	}

	apiRouter := api.BuildRoutes(api.Deps{
		Roster:       roster,
		Cache:        cache,
		Locator:      locator,
		DefaultLimit: utils.EnvInt("NEARBY_DEFAULT_LIMIT", 5, 1),
	})
	mux := http.NewServeMux()
	mux.Handle(apiBase+"/metrics", middleware.AllowlistFromEnv().Guard(metrics.Handler()))
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiRouter))

	var h http.Handler = mux
	h = middleware.Wrap(h)
	h = logger.AccessMiddleware(l)(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{utils.EnvOr("CORS_ORIGIN", "*")}),
		handlers.AllowedMethods([]string{http.MethodGet}),
	)(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)

	s := &http.Server{
		Addr:              utils.EnvOr("ADDR", ":8080"),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := serve(l, s); err != nil {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
}

// 文档注释：加载志愿者名单
// 背景：VOLUNTEER_SOURCE=postgres 时从数据库读取；读取失败或为空回退 JSON 数据集，再回退内置默认名单。
func loadRoster(l *slog.Logger) []volunteer.Raw {
	path := os.Getenv("VOLUNTEER_JSON_PATH")
	skip := utils.EnvInt("VOLUNTEER_SKIP_ROWS", 2, 0)
	if utils.EnvOr("VOLUNTEER_SOURCE", "file") != "postgres" {
		return volunteer.LoadOrDefault(path, skip)
	}
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		return volunteer.LoadOrDefault(path, skip)
	}
	st := store.AttachDB(db)
	defer st.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		return volunteer.LoadOrDefault(path, skip)
	}
	rows, err := st.List(ctx)
	if err != nil || len(rows) == 0 {
		l.Error("roster_db_fallback", "err", err, "count", len(rows))
		return volunteer.LoadOrDefault(path, skip)
	}
	return rows
}

// serve：启动服务并在收到 SIGINT/SIGTERM 时优雅退出
func serve(l *slog.Logger, s *http.Server) error {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	serverErr := make(chan error, 1)
	go func() {
		var err error
		if utils.EnvBool("TLS_ENABLE", false) {
			cert := utils.EnvOr("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
			key := utils.EnvOr("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
			if e := utils.EnsureSelfSignedCert(cert, key, "volunteer-geo.local"); e != nil {
				serverErr <- e
				return
			}
			l.Info("listening_tls", "addr", s.Addr, "cert", cert)
			err = s.ListenAndServeTLS(cert, key)
		} else {
			l.Info("listening", "addr", s.Addr)
			err = s.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	select {
	case err := <-serverErr:
		return err
	case sig := <-shutdown:
		l.Info("shutdown_signal", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			_ = s.Close()
			return err
		}
		l.Info("server_stopped")
	}
	return nil
}
