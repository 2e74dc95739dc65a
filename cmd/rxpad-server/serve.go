package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/rxpad/rxpad/internal/config"
	"github.com/rxpad/rxpad/internal/domain/catalog"
	"github.com/rxpad/rxpad/internal/domain/document"
	"github.com/rxpad/rxpad/internal/domain/identity"
	"github.com/rxpad/rxpad/internal/domain/prescription"
	"github.com/rxpad/rxpad/internal/platform/auth"
	"github.com/rxpad/rxpad/internal/platform/db"
	"github.com/rxpad/rxpad/internal/platform/metrics"
	"github.com/rxpad/rxpad/internal/platform/middleware"
)

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()

	// Store
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	st, err := openStore(connectCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer st.close()

	if created, err := seedOperator(ctx, cfg, st, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed operator account")
	} else if created {
		logger.Info().Str("username", cfg.SeedUsername).Msg("operator account created")
	}

	// Document rendering
	variant, err := document.ParseVariant(cfg.DocumentVariant)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid document variant")
	}
	font, err := document.LoadGlyphFont(cfg.DocumentFontPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.DocumentFontPath).
			Msg("glyph font not loaded; documents fall back to the built-in font")
	}
	composer := document.NewComposer(variant, document.Letterhead{
		Left:        document.NameBlock{Name: cfg.LetterheadLeftName, Credentials: cfg.LetterheadLeftCredentials},
		Right:       document.NameBlock{Name: cfg.LetterheadRightName, Credentials: cfg.LetterheadRightCredentials},
		Institution: cfg.LetterheadInstitution,
		Footer:      cfg.LetterheadFooter,
	})
	renderer := document.NewRenderer(composer, font, logger)

	// Services
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	identitySvc := identity.NewService(st.users, issuer, logger)
	catalogSvc := catalog.NewService(st.catalog, logger)
	prescriptionSvc := prescription.NewService(st.prescriptions, catalogSvc, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
		ExposeHeaders: []string{echo.HeaderContentDisposition, middleware.RequestIDHeader},
	}))

	// Operations
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(st.driver, st.pinger))
	e.GET("/metrics", metrics.Handler())

	// API
	api := e.Group("/api")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	api.Use(auth.JWTMiddleware(auth.JWTConfig{
		SigningKey:      []byte(cfg.JWTSecret),
		Skipper:         auth.AuthSkipper,
		QueryTokenPaths: []string{"/api" + prescription.PDFRoute},
	}))

	identity.NewHandler(identitySvc).RegisterRoutes(api)
	catalog.NewHandler(catalogSvc).RegisterRoutes(api)
	prescription.NewHandler(prescriptionSvc, renderer).RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("driver", st.driver).Str("document_variant", string(variant)).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
