package main

import (
	"context"
	"net/http"

	"photomap/api"
	"photomap/config"
	"photomap/geo"
	"photomap/ingest"
	"photomap/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	var index storage.LocationIndex
	if cfg.MongoURI != "" {
		mongoIndex := &storage.MongoLocationIndex{Log: logger}
		if err := mongoIndex.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection); err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer mongoIndex.Close(ctx)
		index = mongoIndex
	} else {
		logger.Warn("MONGO_URI not set, using in-memory location index")
		index = storage.NewMemoryLocationIndex()
	}

	var resolver geo.Resolver = geo.NewOpenCageResolver(cfg.OpenCageKey, logger)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		resolver = geo.NewCache(resolver, rdb, cfg.GeocodeCacheTTL, logger)
	}

	blobs := &storage.LocalBlobStorage{
		Directory: cfg.BlobDir,
		BaseURL:   cfg.BaseURL,
		Log:       logger,
	}

	ingestor := &ingest.Ingestor{
		Extractor:  ingest.ExifExtractor{},
		Transcoder: ingest.ImagingTranscoder{Opts: ingest.DefaultTranscodeOptions()},
		Blobs:      blobs,
		Index:      index,
		Geo:        resolver,
		Log:        logger,
	}

	handlers := &api.Handlers{
		Ingestor:     ingestor,
		Index:        index,
		Log:          logger,
		SecretKey:    cfg.JWTSecret,
		PasswordHash: cfg.PasswordHash,
	}

	mux := http.NewServeMux()
	handlers.ServeHTTP(mux)
	mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.BlobDir))))

	root := api.RequestLoggerMiddleware(logger, api.RecoveryMiddleware(logger, mux.ServeHTTP))

	logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, root); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
