package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/nowestinterior/backend/internal/admins"
	"github.com/nowestinterior/backend/internal/auth"
	"github.com/nowestinterior/backend/internal/config"
	"github.com/nowestinterior/backend/internal/db"
	"github.com/nowestinterior/backend/internal/middleware"
	"github.com/nowestinterior/backend/internal/telemetry/metrics"
	"github.com/nowestinterior/backend/internal/telemetry/tracing"
	"github.com/nowestinterior/backend/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

const sessionsCleanupInterval = time.Hour

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string
	startedAt         time.Time

	config         *config.Config
	dbPool         *pgxpool.Pool
	redisClient    *redis.Client
	sessionManager *auth.Manager
	adminsService  *admins.Service

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	DefaultAdminUsername    string
	DefaultAdminPassword    string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	sessionTTL := auth.DefaultTTL
	if params.Config.SessionTTLHours > 0 {
		sessionTTL = time.Duration(params.Config.SessionTTLHours) * time.Hour
	}

	var sessionStore auth.Store
	if params.Config.SessionStoreIsRedis() {
		sessionStore = auth.NewRedisStore(rdb, sessionTTL)
		log.Debugln("using redis session store")
	} else {
		sessionStore = auth.NewMemoryStore()
		log.Debugln("using in-memory session store")
	}
	sessionManager := auth.NewManager(sessionStore, sessionTTL)

	go func() {
		for range time.Tick(sessionsCleanupInterval) {
			removed := sessionManager.ScanAndClean(ctx)
			if removed > 0 {
				metricsManager.CounterSessionsCleaned.Add(float64(removed))
			}
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(
		params.HoneycombTracingEnabled, "nowest-backend", rdb,
	)
	if err != nil {
		return nil, err
	}

	adminsService := admins.NewService(admins.NewRepo(dbPool))
	if err := adminsService.EnsureDefaultAdmin(
		ctx, params.DefaultAdminUsername, params.DefaultAdminPassword,
	); err != nil {
		// not fatal: the server can still serve logins for existing admins
		log.Errorf("ensure default admin: %s", err)
	}

	return &Server{
		config:         params.Config,
		versionInfo:    params.VersionInfo,
		startedAt:      time.Now(),
		dbPool:         dbPool,
		redisClient:    rdb,
		sessionManager: sessionManager,
		adminsService:  adminsService,
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/health", s.handleHealth).Methods("GET").Name("health")
	r.HandleFunc("/version", s.handleGetVersionInfo).Methods("GET").Name("version")

	sessionTTL := auth.DefaultTTL
	if s.config.SessionTTLHours > 0 {
		sessionTTL = time.Duration(s.config.SessionTTLHours) * time.Hour
	}

	loginRateLimitAllowedPerMin := s.config.LoginRateLimitAllowedPerMin
	if loginRateLimitAllowedPerMin <= 0 {
		loginRateLimitAllowedPerMin = 15
	}

	adminsHandler := admins.NewHandler(admins.NewHandlerParams{
		Service:      s.adminsService,
		Sessions:     s.sessionManager,
		Metrics:      s.metricsManager,
		SessionTTL:   sessionTTL,
		CookieSecure: s.config.IsProduction(),
	})
	authMiddleware := middleware.NewAuthMiddlewareHandler(s.sessionManager)
	adminsHandler.SetupRoutes(
		r,
		redis_rate.NewLimiter(s.redisClient),
		loginRateLimitAllowedPerMin,
		authMiddleware.RequireAdmin(),
	)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	uptime := time.Since(s.startedAt).Seconds()
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(
		`{"status":"OK","timestamp":"%s","uptime_seconds":%.0f}`,
		time.Now().UTC().Format(time.RFC3339), uptime,
	))
}

func (s *Server) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, s.versionInfo)
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
