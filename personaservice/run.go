package personaservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/perscribe/persona-backend/internal/api"
	"github.com/perscribe/persona-backend/internal/config"
	"github.com/perscribe/persona-backend/internal/factory"
	"github.com/perscribe/persona-backend/internal/health"
	"github.com/perscribe/persona-backend/internal/logger"
	"github.com/perscribe/persona-backend/internal/services"
	"github.com/perscribe/persona-backend/internal/store"
)

// Run starts the persona service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("persona-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Bool("extractor_configured", cfg.ExtractorURL != "").
		Msg("Persona service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store unavailable")
		return err
	}

	// Build router
	router := buildRouter(st, cfg, log)

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, cfg, log, st)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	// HTTP server and serve
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(st store.Store, cfg *config.Config, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(api.Recover)

	// Users
	userSvc := services.NewUserService(st)
	userHandler := api.NewUserHandler(userSvc)
	root.HandleFunc("/api/users", userHandler.CreateUser).Methods("POST")
	root.HandleFunc("/api/users/{userId}", userHandler.GetUser).Methods("GET")

	// Personas
	personaSvc := services.NewPersonaService(st)
	persona := api.NewPersonaHandler(personaSvc)
	root.HandleFunc("/api/users/{userId}/personas", persona.CreatePersona).Methods("POST")
	root.HandleFunc("/api/users/{userId}/personas", persona.ListPersonas).Methods("GET")
	root.HandleFunc("/api/users/{userId}/personas/{personaId}", persona.UpdatePersona).Methods("PATCH")
	root.HandleFunc("/api/users/{userId}/personas/{personaId}", persona.DeletePersona).Methods("DELETE")
	root.HandleFunc("/api/personas/{personaId}", persona.GetPersona).Methods("GET")
	root.HandleFunc("/api/personas/{personaId}/traits", persona.ListTraits).Methods("GET")
	root.HandleFunc("/api/personas/{personaId}/interactions", persona.RecordInteraction).Methods("POST")

	// Interviews
	ex := factory.NewTraitExtractor(cfg, log)
	interviewSvc := services.NewInterviewService(st, ex, cfg.TraitAcceptThreshold, log)
	interview := api.NewInterviewHandler(interviewSvc)
	root.HandleFunc("/api/personas/{personaId}/interviews", interview.StartInterview).Methods("POST")
	root.HandleFunc("/api/personas/{personaId}/interviews", interview.ListInterviews).Methods("GET")
	root.HandleFunc("/api/interviews/{interviewId}", interview.GetInterview).Methods("GET")
	root.HandleFunc("/api/interviews/{interviewId}/answers", interview.AnswerQuestion).Methods("POST")
	root.HandleFunc("/api/interviews/{interviewId}/abandon", interview.AbandonInterview).Methods("POST")
	root.HandleFunc("/api/questions/{sessionType}", interview.ListQuestions).Methods("GET")

	// Context assembly and connections
	asmSvc := services.NewAssemblerService(st, cfg.ContextMaxEntries, log)
	connSvc := services.NewConnectionService(st)
	contextHandler := api.NewContextHandler(asmSvc, connSvc)
	root.HandleFunc("/api/personas/{personaId}/context", contextHandler.AssembleContext).Methods("POST")
	root.HandleFunc("/api/personas/{personaId}/connections/{requesterUserId}", contextHandler.UpsertConnection).Methods("PUT")
	root.HandleFunc("/api/personas/{personaId}/connections/{requesterUserId}", contextHandler.GetConnection).Methods("GET")

	// Health
	healthHandler := api.NewHealthHandler()
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}

// startHealthCheckers starts component checkers and service-level aggregator; binds health.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Health checkers start as unhealthy and need time to run their first probe
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
