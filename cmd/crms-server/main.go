package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/channasilva/crms-server/internal/application"
	"github.com/channasilva/crms-server/internal/booking"
	"github.com/channasilva/crms-server/internal/config"
	httptransport "github.com/channasilva/crms-server/internal/http"
	"github.com/channasilva/crms-server/internal/interval"
	"github.com/channasilva/crms-server/internal/persistence"
	"github.com/channasilva/crms-server/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	userRepo := sqlite.NewUserRepository(pool)
	resourceRepo := sqlite.NewResourceRepository(pool)
	bookingRepo := sqlite.NewBookingRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)
	notificationRepo := sqlite.NewNotificationRepository(pool)
	auditRepo := sqlite.NewAuditRepository(pool)

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	index := booking.NewConflictIndex()
	if err := warmConflictIndex(ctx, index, bookingRepo); err != nil {
		logger.Error("failed to warm the conflict index", "error", err)
		os.Exit(1)
	}

	if cfg.BootstrapAdminEmail != "" {
		if err := bootstrapAdmin(ctx, userRepo, cfg, idGenerator, now, logger); err != nil {
			logger.Error("failed to bootstrap the admin account", "error", err)
			os.Exit(1)
		}
	}

	userService := application.NewUserService(userRepo, nil, idGenerator, now)
	resourceService := application.NewResourceService(resourceRepo, idGenerator, now, logger)
	authService := application.NewAuthService(userRepo, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)
	bookingService := application.NewBookingService(index, bookingRepo, resourceService, notificationRepo, auditRepo, idGenerator, now, logger)
	dashboardService := application.NewDashboardService(resourceRepo, bookingRepo, cfg.StatsTTL, now, logger)
	notificationService := application.NewNotificationService(notificationRepo)

	protect := httptransport.RequireSession(authService, logger)
	skipLogin := func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/sessions" && r.Method == http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Resources:     httptransport.NewResourceHandler(resourceService, logger),
		Bookings:      httptransport.NewBookingHandler(bookingService, logger),
		Dashboard:     httptransport.NewDashboardHandler(dashboardService, logger),
		Notifications: httptransport.NewNotificationHandler(notificationService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			skipLogin,
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// warmConflictIndex seeds the in-memory index with every active occurrence so
// conflict checks reflect state persisted before this process started.
func warmConflictIndex(ctx context.Context, index *booking.ConflictIndex, bookings persistence.BookingRepository) error {
	stored, err := bookings.ListOccurrences(ctx, persistence.OccurrenceFilter{ActiveOnly: true})
	if err != nil {
		return err
	}

	occurrences := make([]booking.Occurrence, 0, len(stored))
	for _, occ := range stored {
		occurrences = append(occurrences, booking.Occurrence{
			ID:          occ.ID,
			GroupID:     occ.GroupID,
			ResourceID:  occ.ResourceID,
			RequesterID: occ.RequesterID,
			Interval:    interval.Interval{Start: occ.Start, End: occ.End},
			Status:      booking.Status(occ.Status),
		})
	}
	return index.Load(occurrences)
}

// bootstrapAdmin ensures the configured administrator account exists. An
// existing user with the same email is left untouched.
func bootstrapAdmin(ctx context.Context, users persistence.UserRepository, cfg config.Config, idGenerator func() string, now func() time.Time, logger *slog.Logger) error {
	if _, err := users.GetUserByEmail(ctx, cfg.BootstrapAdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return err
	}

	hash, err := application.CreatePasswordHash(cfg.BootstrapAdminPassword, application.DefaultArgon2idParams)
	if err != nil {
		return err
	}

	createdAt := now()
	user := persistence.User{
		ID:           idGenerator(),
		Email:        cfg.BootstrapAdminEmail,
		DisplayName:  "Administrator",
		PasswordHash: hash,
		Role:         "admin",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return err
	}

	logger.Info("bootstrap admin created", "user_id", user.ID, "email", user.Email)
	return nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
