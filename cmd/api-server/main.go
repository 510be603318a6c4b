package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thriftstore/internal/config"
	"thriftstore/internal/dbmongo"
	"thriftstore/internal/dbmysql"
	"thriftstore/internal/di"
	"thriftstore/internal/listing"
	"thriftstore/internal/logger"
	"thriftstore/internal/media"
)

func main() {
	cfg := config.LoadConfig()
	logger.InitLogger("api-server", cfg.Logging)

	db, err := dbmysql.NewMySQL(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to initialize database")
	}

	// images stay nil when MongoDB is off; uploads then answer 503
	var images listing.ImageStore
	var mongoClient *dbmongo.MongoClient
	if cfg.MongoDB.Enabled {
		mongoClient, err = dbmongo.NewMongoConnection(cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to connect to MongoDB")
		}
		images = dbmongo.NewImageStorage(mongoClient)
	}

	app, err := di.InitializeApplication(cfg, db, images)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to initialize application")
	}
	if mongoClient != nil {
		media.NewHTTPServer(dbmongo.NewImageStorage(mongoClient)).RegisterRoutes(app.Router)
	}

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      app.Router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.WithField("addr", server.Addr).Info("api server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("failed to serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Warn("graceful shutdown failed")
	}
	app.Shutdown()
	if mongoClient != nil {
		mongoClient.Close(ctx)
	}
	logger.Log.Info("server stopped")
}
