// ============================================================================
// backend/cmd/server/main.go
// Entry point for the tracking backend: REST API plus gRPC health endpoint
// ============================================================================

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"student_tracking/backend/internal/admin"
	"student_tracking/backend/internal/auth"
	"student_tracking/backend/internal/course"
	"student_tracking/backend/internal/gateway"
	"student_tracking/backend/internal/grade"
	"student_tracking/backend/internal/ops"
	"student_tracking/backend/internal/ratelimit"
	"student_tracking/backend/internal/shared"
	"student_tracking/backend/internal/store"
	"student_tracking/backend/internal/store/memstore"
)

// backend is satisfied by both the MongoDB store and the in-memory store
type backend interface {
	auth.UserStore
	admin.Store
	course.Store
	grade.Store
	ops.Pinger
}

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./config.yaml if present)")
	envFile := flag.String("env", ".env", "dotenv file to load")
	inMemory := flag.Bool("in-memory", false, "serve from an in-memory store instead of MongoDB")
	flag.Parse()

	// Load environment variables
	if err := shared.LoadEnv(*envFile); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Load service configuration
	config, err := shared.LoadServiceConfig("tracking-server", *configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := shared.ValidateServiceConfig(config); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := shared.NewLogger(&config.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Storage
	var st backend
	if *inMemory {
		logger.Warn("Using in-memory store, data is lost on exit")
		mem := memstore.New()
		if err := bootstrapAdmin(mem, config); err != nil {
			logger.Fatal("Failed to create bootstrap admin", zap.Error(err))
		}
		logger.Info("Bootstrap admin created", zap.String("email", bootstrapAdminEmail))
		st = mem
	} else {
		mongoClient, db, err := shared.ConnectMongoDB(&config.MongoDB, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := shared.DisconnectMongoDB(mongoClient, logger); err != nil {
				logger.Error("Error disconnecting from MongoDB", zap.Error(err))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := shared.EnsureIndexes(ctx, db); err != nil {
			cancel()
			logger.Fatal("Failed to create indexes", zap.Error(err))
		}
		cancel()

		st = store.New(mongoClient, db)
	}

	// Login rate limiting (optional)
	rdb, err := ratelimit.NewClient(&config.Redis, logger)
	if err != nil {
		logger.Warn("Rate limiting disabled", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Services
	tokens := auth.NewTokenManager(&config.Security)
	svcs := &gateway.Services{
		Auth:     auth.NewAuthService(st, tokens, &config.Security, logger),
		Admin:    admin.NewAdminService(st, config, logger),
		Courses:  course.NewCourseService(st, logger),
		Grades:   grade.NewGradeService(st, logger),
		Health:   st,
		Limiter:  ratelimit.New(rdb, config.RateLimit.LoginLimit, config.RateLimit.LoginWindow),
		Metrics:  gateway.NewMetrics(reg),
		Gatherer: reg,
	}

	// HTTP server
	server := &http.Server{
		Addr:         ":" + config.Server.HTTPPort,
		Handler:      gateway.SetupRoutes(svcs, config, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", config.Server.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// gRPC ops server
	opsServer := ops.NewServer(st, logger)
	listener, err := net.Listen("tcp", ":"+config.Server.GRPCPort)
	if err != nil {
		logger.Fatal("Failed to listen", zap.String("port", config.Server.GRPCPort), zap.Error(err))
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	go opsServer.Watch(watchCtx, 15*time.Second)

	go func() {
		logger.Info("gRPC ops server listening", zap.String("port", config.Server.GRPCPort))
		if err := opsServer.GRPC.Serve(listener); err != nil {
			logger.Fatal("gRPC server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	stopWatch()
	opsServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced to shut down", zap.Error(err))
	}

	logger.Info("Server stopped")
}

const bootstrapAdminEmail = "admin@univ.ma"

// bootstrapAdmin gives an empty in-memory store one admin account using the default password
func bootstrapAdmin(mem *memstore.Store, config *shared.ServiceConfig) error {
	hashed, err := auth.HashPassword(config.Accounts.DefaultPassword, config.Security.BCryptCost)
	if err != nil {
		return err
	}
	return mem.InsertAdmin(context.Background(), &shared.Admin{
		Name:     "Admin Principal",
		Email:    bootstrapAdminEmail,
		Password: hashed,
	})
}
