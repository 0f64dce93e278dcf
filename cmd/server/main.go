package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"docuchat/internal/bootstrap"
	transport "docuchat/internal/transport/http"
)

func main() {
	ctx := context.Background()

	application, err := bootstrap.New(ctx)
	if err != nil {
		zap.NewExample().Fatal("bootstrap failed", zap.Error(err))
	}
	defer application.Close()

	router := transport.NewRouter(application)
	server := &http.Server{
		Addr:    application.Config.HTTPAddr(),
		Handler: router,
	}

	go func() {
		application.Logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			application.Logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	application.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error("graceful shutdown failed", zap.Error(err))
	}
	application.Logger.Info("server stopped")
}
