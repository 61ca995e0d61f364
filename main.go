package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/leafcheck/internal/classifier"
	"github.com/example/leafcheck/internal/config"
	"github.com/example/leafcheck/internal/events"
	"github.com/example/leafcheck/internal/grpcserver"
	"github.com/example/leafcheck/internal/handlers"
	"github.com/example/leafcheck/internal/logging"
	"github.com/example/leafcheck/internal/retention"
	"github.com/example/leafcheck/internal/session"
	"github.com/example/leafcheck/internal/storage"
	"github.com/example/leafcheck/internal/upload"
	"github.com/example/leafcheck/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthServer := grpcserver.NewHealthServer(logger)
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			logger.Fatal("failed to listen for grpc health", zap.Error(err))
		}
		go func() {
			if err := healthServer.Serve(lis); err != nil {
				logger.Error("grpc health server stopped", zap.Error(err))
			}
		}()
		defer healthServer.Stop()
	}

	model := initModel(cfg, logger)
	defer model.Close()
	adapter := classifier.NewAdapter(
		model,
		classifier.Preprocessor{Size: cfg.ImageSize, Layout: classifier.Layout(cfg.TensorLayout)},
		cfg.InferenceTimeout,
		logger,
	)
	healthServer.MarkServing()

	uploadURL := handlers.UploadURL(cfg.StaticDir, cfg.UploadDir)
	store, err := storage.NewLocalStore(cfg.UploadDir, uploadURL, logger)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	validator := upload.NewValidator(cfg.AllowedExtensions)
	index := initRetentionIndex(ctx, cfg, validator, logger)
	if cfg.UploadRetention > 0 {
		sweeper := retention.NewSweeper(index, store, cfg.UploadRetention, cfg.RetentionSweepInterval, logger)
		go sweeper.Run(ctx)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.MQTTBroker != "" {
		mqttCtx, mqttCancel := context.WithTimeout(ctx, 10*time.Second)
		mqttPublisher, err := events.ConnectMQTT(mqttCtx, events.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
			Topic:    cfg.MQTTTopicDiagnosis,
		}, logger)
		mqttCancel()
		if err != nil {
			logger.Warn("mqtt unavailable, diagnosis events disabled", zap.Error(err))
		} else {
			defer mqttPublisher.Close()
			publisher = mqttPublisher
		}
	}

	uc := usecase.NewDiagnosisUseCase(
		validator,
		store,
		adapter,
		index,
		publisher,
		logger,
	)

	flash, err := session.NewFlash(cfg.SecretKey)
	if err != nil {
		logger.Fatal("invalid SECRET_KEY", zap.Error(err))
	}
	if cfg.SecretKey == "change-me" {
		logger.Warn("SECRET_KEY is the development default")
	}

	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadSize
	if err := handlers.RegisterRoutes(r, uc, handlers.Options{
		MaxUploadSize:  cfg.MaxUploadSize,
		StaticDir:      cfg.StaticDir,
		UploadDir:      cfg.UploadDir,
		UploadURL:      uploadURL,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Flash:          flash,
		Logger:         logger,
	}); err != nil {
		logger.Fatal("failed to register routes", zap.Error(err))
	}

	server := &http.Server{
		Addr:    cfg.ServerAddress(),
		Handler: r,
	}

	logger.Info("leafcheck listening", zap.String("addr", server.Addr))
	if err := serveHTTPServer(server, cfg.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func initModel(cfg *config.Config, logger *zap.Logger) *classifier.ONNXModel {
	if cfg.ModelMetadataPath != "" {
		meta, err := classifier.LoadMetadata(cfg.ModelMetadataPath)
		if err == nil {
			err = meta.Check(cfg.ImageSize)
		}
		if err != nil {
			logger.Fatal("model metadata rejected", zap.Error(err))
		}
	}

	pre := classifier.Preprocessor{Size: cfg.ImageSize, Layout: classifier.Layout(cfg.TensorLayout)}
	model, err := classifier.NewONNXModel(classifier.ONNXOptions{
		ModelPath:   cfg.ModelPath,
		LibraryPath: cfg.ONNXRuntimeLib,
		InputName:   cfg.ModelInputName,
		OutputName:  cfg.ModelOutputName,
		InputShape:  pre.Shape(),
	})
	if err != nil {
		logger.Fatal("failed to load model", zap.String("path", cfg.ModelPath), zap.Error(err))
	}
	logger.Info("model loaded", zap.String("path", cfg.ModelPath), zap.Int("classes", classifier.NumClasses))
	return model
}

// initRetentionIndex prefers Redis when configured and falls back to file
// modification times.
func initRetentionIndex(ctx context.Context, cfg *config.Config, validator *upload.Validator, logger *zap.Logger) retention.Index {
	if cfg.RedisAddr == "" {
		return retention.NewDirIndex(cfg.UploadDir, validator)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client := initRedis(pingCtx, cfg.RedisAddr, logger)
	return retention.NewRedisIndex(retention.NewRedisSortedSet(client), retention.DefaultKey, logger)
}

func initRedis(ctx context.Context, addr string, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := signalCh
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
