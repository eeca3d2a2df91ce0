package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "ridedesk/internal/config"
	intdb "ridedesk/internal/db"
	"ridedesk/internal/domain"
	"ridedesk/internal/events"
	router "ridedesk/internal/http"
	"ridedesk/internal/http/handlers"
	"ridedesk/internal/repositories"
	"ridedesk/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if err := env.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db, err := intconfig.ConnectDB(env.DBDSN)
	if err != nil {
		log.Fatalf("database unavailable: %v", err)
	}
	defer intconfig.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := intdb.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	seedAdmin(ctx, env)
	cancel()

	var publisher events.Publisher = events.Noop{}
	if env.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(env.AMQPURL, env.AMQPExchange)
		if err != nil {
			log.Printf("warning: events disabled, %v", err)
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	var logo []byte
	if env.InvoiceLogoPath != "" {
		if logo, err = os.ReadFile(env.InvoiceLogoPath); err != nil {
			log.Printf("warning: invoice logo not loaded: %v", err)
		}
	}

	r := router.NewRouter(&handlers.API{
		DB:     db,
		Env:    env,
		Events: publisher,
		Logo:   logo,
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("ridedesk listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}

	log.Println("server stopped cleanly.")
}

// seedAdmin creates the first superadmin account when SEED_ADMIN_EMAIL is set
// and no user with that email exists.
func seedAdmin(ctx context.Context, env intconfig.Env) {
	if env.SeedAdminEmail == "" || env.SeedAdminPassword == "" {
		return
	}
	users := repositories.UserRepository{}
	if _, err := users.GetByEmail(ctx, env.SeedAdminEmail); err == nil {
		return
	} else if !domain.IsNotFound(err) {
		log.Printf("warning: seed admin lookup failed: %v", err)
		return
	}
	hash, err := services.HashPassword(env.SeedAdminPassword)
	if err != nil {
		log.Printf("warning: seed admin hash failed: %v", err)
		return
	}
	if _, err := users.Create(ctx, repositories.User{
		Name:         "Administrator",
		Email:        env.SeedAdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
	}); err != nil {
		log.Printf("warning: seed admin create failed: %v", err)
		return
	}
	log.Printf("[AUTH] seeded superadmin %s", env.SeedAdminEmail)
}
