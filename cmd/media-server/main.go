package main

import (
	"context"
	"net/http"

	"thriftstore/internal/config"
	"thriftstore/internal/dbmongo"
	"thriftstore/internal/logger"
	"thriftstore/internal/media"
)

func main() {
	cfg := config.LoadConfig()
	logger.InitLogger("media-server", cfg.Logging)

	mongoClient, err := dbmongo.NewMongoConnection(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer mongoClient.Close(context.Background())

	mediaServer := media.NewHTTPServer(dbmongo.NewImageStorage(mongoClient))

	addr := ":" + cfg.Server.MediaPort
	logger.Log.WithField("addr", addr).Info("media server starting")
	logger.Log.Infof("serving listing images at %s{fileId}", cfg.Server.MediaBaseURL)

	if err := http.ListenAndServe(addr, mediaServer); err != nil {
		logger.Log.WithError(err).Fatal("media server stopped")
	}
}
