package internal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fitmate/backend/internal/auth"
	"github.com/fitmate/backend/internal/coach"
	"github.com/fitmate/backend/internal/config"
	"github.com/fitmate/backend/internal/db"
	"github.com/fitmate/backend/internal/meals"
	"github.com/fitmate/backend/internal/middleware"
	"github.com/fitmate/backend/internal/misc"
	"github.com/fitmate/backend/internal/onboarding"
	"github.com/fitmate/backend/internal/plans"
	"github.com/fitmate/backend/internal/profiles"
	"github.com/fitmate/backend/internal/progress"
	"github.com/fitmate/backend/internal/telemetry/metrics"
	metricsmiddleware "github.com/fitmate/backend/internal/telemetry/metrics/middleware"
	"github.com/fitmate/backend/internal/telemetry/tracing"
	"github.com/fitmate/backend/internal/workouts"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	coachClient *coach.Client
	tipsManager *misc.TipsManager
	plansCache  *plans.Cache

	redisClient   *redis.Client
	loginChecker  *auth.LoginChecker
	authService   *auth.Service
	tokenVerifier *auth.TokenVerifier

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	CoachAPIKey             string
	UserTokenSecret         string
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
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
		map[string]string{"db_name": "fitmate_db"},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // will be set to 1 when all is set and ran (I think this is probably not needed)

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

	authService := auth.NewAuthService(&auth.Admin{
		Username:     params.AdminUsername,
		PasswordHash: params.AdminPasswordHash,
	}, auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitmate-backend", rdb)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	coachAPIURL := coach.DefaultAPIURL
	if params.Config.CoachAPIURL != "" && params.Config.CoachModel != "" {
		coachAPIURL = fmt.Sprintf(
			"%s/models/%s:generateContent",
			params.Config.CoachAPIURL, params.Config.CoachModel,
		)
	}

	s := &Server{
		config:      params.Config,
		dbPool:      dbPool,
		coachClient: coach.NewClient(coachAPIURL, params.CoachAPIKey, tracedHttpClient),
		plansCache:  plans.NewCache(params.Config.PlansCacheTTLSeconds),
		versionInfo: params.VersionInfo,

		redisClient:   rdb,
		authService:   authService,
		loginChecker:  auth.NewLoginChecker(auth.DefaultTTL, rdb),
		tokenVerifier: auth.NewTokenVerifier(params.UserTokenSecret),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	tipsCsvFile, err := os.Open(params.Config.TipsCsvPath)
	if err != nil {
		return nil, fmt.Errorf("open tips file: %w", err)
	}
	defer func() {
		if err := tipsCsvFile.Close(); err != nil {
			log.Warnf("close tips csv file: %s", err)
		}
	}()

	s.tipsManager, err = misc.NewTipsManager(csv.NewReader(tipsCsvFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create tips manager: %s", err)
	}

	return s, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	miscHandler := misc.NewHandler(s.tipsManager, s.versionInfo, s.authService)
	miscHandler.SetupRoutes(r, reqRateLimiter, s.metricsManager, s.config.LoginRateLimitAllowedPerMin)

	profilesRepo := profiles.NewRepo(s.dbPool)
	profilesHandler := profiles.NewHandler(profilesRepo, s.plansCache, s.metricsManager)
	r.HandleFunc("/profile", profilesHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-profile")
	r.HandleFunc("/profile", profilesHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-profile")
	r.HandleFunc("/profile", profilesHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-profile")
	r.HandleFunc("/profile", profilesHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-profile")

	plansHandler := plans.NewHandler(profilesRepo, s.plansCache, s.metricsManager)
	r.HandleFunc("/plans/workout", plansHandler.HandleWorkoutPlan).Methods("GET", "OPTIONS").Name("workout-plan")
	r.HandleFunc("/plans/diet", plansHandler.HandleDietPlan).Methods("GET", "OPTIONS").Name("diet-plan")

	onboardingHandler := onboarding.NewHandler(onboarding.NewController(
		onboarding.NewSessionManager(),
		profilesRepo,
		s.metricsManager,
	))
	r.HandleFunc("/onboarding/state", onboardingHandler.HandleState).Methods("GET", "OPTIONS").Name("onboarding-state")
	r.HandleFunc("/onboarding/message", onboardingHandler.HandleMessage).Methods("POST", "OPTIONS").Name("onboarding-message")
	r.HandleFunc("/onboarding/answer", onboardingHandler.HandleAnswer).Methods("POST", "OPTIONS").Name("onboarding-answer")
	r.HandleFunc("/onboarding/complete", onboardingHandler.HandleComplete).Methods("POST", "OPTIONS").Name("onboarding-complete")
	r.HandleFunc("/onboarding/reset", onboardingHandler.HandleReset).Methods("POST", "OPTIONS").Name("onboarding-reset")

	workoutsHandler := workouts.NewHandler(workouts.NewRepo(s.dbPool), s.metricsManager)
	r.HandleFunc("/workouts", workoutsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	r.HandleFunc("/workouts/stats/weekly", workoutsHandler.HandleWeeklyStats).Methods("GET", "OPTIONS").Name("workout-weekly-stats")
	r.HandleFunc("/workouts/list/page/{page}/size/{size}", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/workouts", workoutsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")

	mealsHandler := meals.NewHandler(meals.NewRepo(s.dbPool), s.metricsManager)
	r.HandleFunc("/meals", mealsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-meal")
	r.HandleFunc("/meals/totals/daily", mealsHandler.HandleDailyTotals).Methods("GET", "OPTIONS").Name("meal-daily-totals")
	r.HandleFunc("/meals/list/page/{page}/size/{size}", mealsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-meals")
	r.HandleFunc("/meals/{id}", mealsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-meal")
	r.HandleFunc("/meals", mealsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-meal")
	r.HandleFunc("/meals/{id}", mealsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-meal")

	progressHandler := progress.NewHandler(
		progress.NewService(progress.NewRepo(s.dbPool)),
		s.metricsManager,
	)
	r.HandleFunc("/progress", progressHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-progress-entry")
	r.HandleFunc("/progress/history/weight", progressHandler.HandleWeightHistory).Methods("GET", "OPTIONS").Name("weight-history")
	r.HandleFunc("/progress/list/page/{page}/size/{size}", progressHandler.HandleList).Methods("GET", "OPTIONS").Name("list-progress-entries")
	r.HandleFunc("/progress/{id}", progressHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-progress-entry")

	coachHandler := coach.NewHandler(coach.NewService(
		coach.NewRepo(s.dbPool),
		s.coachClient,
		s.metricsManager,
	))
	coachHandler.SetupRoutes(r, reqRateLimiter, s.metricsManager, s.config.ChatRateLimitAllowedPerMin)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(
		s.loginChecker,
		s.tokenVerifier,
	)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", metricsmiddleware.
		New(s.promRegistry, nil).
		WrapHandler("/metrics", promhttp.HandlerFor(
			s.promRegistry,
			promhttp.HandlerOpts{}),
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
