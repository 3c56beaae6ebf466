package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/propmgr/apiserver/config"
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/internal/db"
	"github.com/propmgr/apiserver/internal/handlers"
	"github.com/propmgr/apiserver/internal/logs"
	"github.com/propmgr/apiserver/internal/mq"
	"github.com/propmgr/apiserver/internal/ratelimit"
	"github.com/propmgr/apiserver/internal/services"
	"github.com/propmgr/apiserver/internal/storage"
	"github.com/propmgr/apiserver/internal/store"
	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	log        *logrus.Logger
	closers    []io.Closer
}

// Routes carries everything the router dispatches to.
type Routes struct {
	Gate       *auth.Gate
	Engine     *auth.Engine
	Accounts   *services.AccountService
	Flats      *services.FlatService
	Tenants    *services.TenantService
	Payments   *services.PaymentService
	Complaints *services.ComplaintService
	Documents  *services.DocumentService
	Health     *handlers.HealthHandler
	Log        logrus.FieldLogger
}

// New constructs a Server. The administrator account is reconciled before
// New returns; a failed reconcile aborts startup.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logs.New(logs.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Server{db: dbConn, log: log}

	accountRepo := store.NewAccountRepository(dbConn)
	flatRepo := store.NewFlatRepository(dbConn)
	tenantRepo := store.NewTenantRepository(dbConn)
	paymentRepo := store.NewPaymentRepository(dbConn)
	complaintRepo := store.NewComplaintRepository(dbConn)
	documentRepo := store.NewDocumentRepository(dbConn)
	ownershipRepo := store.NewOwnershipRepository(dbConn)

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens, err := auth.NewTokenProvider([]byte(cfg.JWT.Secret), auth.NewResolver(accountRepo),
		auth.WithTTL(cfg.JWT.TTL),
		auth.WithIssuer(cfg.JWT.Issuer),
		auth.WithLeeway(cfg.JWT.Leeway),
	)
	if err != nil {
		return s.abort(err)
	}

	events, err := s.accountEvents(ctx, cfg.MQ)
	if err != nil {
		return s.abort(err)
	}

	gateOpts := []auth.GateOption{auth.WithLogger(log.WithField("component", "auth"))}
	if events != nil {
		gateOpts = append(gateOpts, auth.WithEventPublisher(events))
	}
	if throttle := s.loginThrottle(ctx, cfg); throttle != nil {
		gateOpts = append(gateOpts, auth.WithAttemptLimiter(throttle))
	}
	gate := auth.NewGate(accountRepo, hasher, tokens, gateOpts...)

	if _, err := ReconcileAdmin(ctx, cfg.Admin, accountRepo, hasher, events, log); err != nil {
		return s.abort(fmt.Errorf("admin bootstrap: %w", err))
	}

	objects, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		return s.abort(fmt.Errorf("init storage: %w", err))
	}
	var documentObjects services.ObjectStore
	if objects != nil {
		documentObjects = objects
		s.closers = append(s.closers, objects)
	} else {
		log.Info("document storage disabled")
	}

	accounts := services.NewAccountService(accountRepo)
	router := NewRouter(Routes{
		Gate:       gate,
		Engine:     auth.NewEngine(ownershipRepo, log.WithField("component", "authz")),
		Accounts:   accounts,
		Flats:      services.NewFlatService(flatRepo),
		Tenants:    services.NewTenantService(tenantRepo, flatRepo),
		Payments:   services.NewPaymentService(paymentRepo, tenantRepo),
		Complaints: services.NewComplaintService(complaintRepo, tenantRepo),
		Documents:  services.NewDocumentService(documentRepo, tenantRepo, documentObjects),
		Health:     handlers.NewHealthHandler(dbConn, accounts, auth.NormalizeEmail(cfg.Admin.Email), log),
		Log:        log,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// NewRouter builds the HTTP routes. Everything under /api except /api/auth
// requires a bearer token; each route then enforces its own rule.
func NewRouter(rt Routes) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logs.RequestLogger(rt.Log),
		middleware.Timeout(60*time.Second),
	)
	if rt.Health != nil {
		router.Get("/healthz", rt.Health.Healthz)
	}
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, rt.Gate, rt.Accounts)
		})
		r.Group(func(r chi.Router) {
			r.Use(rt.Gate.Middleware)
			r.Route("/users", func(r chi.Router) {
				handlers.UserRouter(r, rt.Accounts, rt.Engine)
			})
			r.Route("/flats", func(r chi.Router) {
				handlers.FlatRouter(r, rt.Flats, rt.Engine)
			})
			r.Route("/tenants", func(r chi.Router) {
				handlers.TenantRouter(r, rt.Tenants, rt.Engine)
			})
			r.Route("/payments", func(r chi.Router) {
				handlers.PaymentRouter(r, rt.Payments, rt.Engine)
			})
			r.Route("/complaints", func(r chi.Router) {
				handlers.ComplaintRouter(r, rt.Complaints, rt.Engine)
			})
			r.Route("/documents", func(r chi.Router) {
				handlers.DocumentRouter(r, rt.Documents, rt.Engine)
			})
		})
	})
	return router
}

// ReconcileAdmin ensures the configured administrator account exists with
// the ADMIN role and the configured password.
func ReconcileAdmin(ctx context.Context, creds config.AdminConfig, accounts auth.AccountStore, hasher *auth.PasswordHasher, events auth.EventPublisher, log logrus.FieldLogger) (auth.BootstrapOutcome, error) {
	bootstrap, err := auth.NewAdminBootstrap(accounts, hasher, auth.AdminCredentials{
		Email:    creds.Email,
		Username: creds.Username,
		Password: creds.Password,
	}, events, log.WithField("component", "bootstrap"))
	if err != nil {
		return "", err
	}
	return bootstrap.Reconcile(ctx)
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires, then releases backing connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeAll()
	return err
}

func (s *Server) accountEvents(ctx context.Context, cfg config.MQConfig) (auth.EventPublisher, error) {
	broker, err := mq.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if broker == nil {
		s.log.Info("account events disabled")
		return nil, nil
	}
	s.closers = append(s.closers, broker)
	return mq.NewAccountEventPublisher(broker, cfg.AccountTopic), nil
}

// loginThrottle prefers Redis so limits hold across instances, and falls
// back to process memory when Redis is absent or unreachable.
func (s *Server) loginThrottle(ctx context.Context, cfg config.Config) *ratelimit.AttemptThrottle {
	if cfg.RateLimit.LoginAttempts <= 0 {
		return nil
	}
	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(time.Now)
	if cfg.Redis.Addr != "" {
		redisLimiter, err := ratelimit.NewRedisLimiter(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, time.Now)
		if err == nil {
			err = redisLimiter.Ping(ctx)
		}
		if err != nil {
			s.log.WithError(err).Warn("redis unavailable, using in-memory login throttle")
			if redisLimiter != nil {
				_ = redisLimiter.Close()
			}
		} else {
			limiter = redisLimiter
			s.closers = append(s.closers, redisLimiter)
		}
	}
	return ratelimit.NewAttemptThrottle(limiter, cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
}

func (s *Server) abort(err error) (*Server, error) {
	s.closeAll()
	return nil, err
}

func (s *Server) closeAll() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
	s.closers = nil
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
}
