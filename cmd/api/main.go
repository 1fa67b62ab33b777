package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"menupick/internal/admin"
	"menupick/internal/aiservice"
	"menupick/internal/cleanup"
	"menupick/internal/database"
	"menupick/internal/server"
	"menupick/internal/user"
	"menupick/internal/weather"
)

const cleanupInterval = 24 * time.Hour

func gracefulShutdown(apiServer *http.Server, cancelJobs context.CancelFunc, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// Stop background jobs before the listener closes.
	cancelJobs()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	dbService := database.NewService()
	defer dbService.Close()

	if err := database.Migrate(context.Background(), dbService); err != nil {
		log.Fatalf("Fatal error: could not apply database schema: %v", err)
	}

	queries := dbService.Queries()
	aiSvc := aiservice.New(queries, aiservice.NewGeminiProvider(), weather.New())
	cleanupSvc := cleanup.New(queries, cleanup.NewMemoryRunStore(), cleanup.DaysFromEnv())

	user.InitUserPackage(queries, aiSvc)
	admin.InitAdminPackage(queries, cleanupSvc)

	// Background jobs run until shutdown cancels this context.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go cleanupSvc.Run(jobCtx, cleanupInterval)

	apiServer := server.NewServer(dbService)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, cancelJobs, done)

	err := apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")
}
