package app

import (
	"context"
	"time"

	"patient-portal/internal/auth/handler"
	"patient-portal/internal/auth/provider"
	"patient-portal/internal/auth/provider/google"
	"patient-portal/internal/auth/provider/keycloak"
	"patient-portal/internal/auth/resolver"
	"patient-portal/internal/auth/strategy"
	"patient-portal/internal/config"
	"patient-portal/internal/health"
	"patient-portal/internal/logger"
	"patient-portal/internal/mail"
	"patient-portal/internal/middleware"
	"patient-portal/internal/session"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	providers, err := setupProviders(ctx, cfg)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	router := newRouter(routerDeps{
		providers:  providers,
		identities: resolver.NewPatientResolver(infra.Patients),
		sessions:   session.NewRedisStore(infra.Redis.Client),
		notifier:   newNotifier(cfg),
		cookies:    session.CookieOptions{Secure: cfg.CookieSecure},
		ttl:        cfg.SessionTTL,
		origins:    cfg.CORSOrigins,
	})

	return router, infra.Close, nil
}

func setupProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	googleProvider, err := google.New(
		ctx,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
	)
	if err != nil {
		return nil, err
	}

	list := []provider.OAuthProvider{googleProvider}

	if cfg.KeycloakEnabled() {
		keycloakProvider, err := keycloak.New(
			ctx,
			cfg.KeycloakIssuer,
			cfg.KeycloakClientID,
			cfg.KeycloakRedirectURL,
			cfg.KeycloakPublicBaseURL,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, keycloakProvider)
	}

	return provider.NewRegistry(list...), nil
}

func newNotifier(cfg config.Config) *mail.Notifier {
	creds := mail.Credentials{User: cfg.EmailUser, Pass: cfg.EmailPass}

	if cfg.EmailTransport == "log" {
		logger.Warn("EMAIL_TRANSPORT=log, emails are logged and not sent", nil)
		return mail.NewNotifier(creds, mail.LogDialer())
	}

	return mail.NewNotifier(creds, mail.NewSMTPDialer(mail.SMTPConfig{
		Host:        cfg.EmailHost,
		Port:        cfg.EmailPort,
		Timeout:     cfg.EmailTimeout,
		TLSOptional: cfg.EmailTLSOptional,
	}))
}

type routerDeps struct {
	providers  *provider.Registry
	identities resolver.Resolver
	sessions   session.Store
	notifier   health.EmailVerifier
	cookies    session.CookieOptions
	ttl        time.Duration
	origins    []string
}

func newRouter(d routerDeps) *gin.Engine {
	strategies := strategy.NewRegistry(d.providers, d.identities)
	authHandler := handler.NewHandler(strategies, d.sessions, d.cookies, d.ttl)
	authMiddleware := middleware.NewAuthMiddleware(d.sessions, d.cookies, d.ttl)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(d.origins))

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)
	health.NewHandler(d.notifier).RegisterRoutes(router)

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))
	api.GET("/me", authHandler.Me)

	return router
}
