// launching the server, edge cache, kafka miss reporter
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/assetrouter/config"
	"github.com/ds124wfegd/assetrouter/internal/database/redis"
	"github.com/ds124wfegd/assetrouter/internal/pkg/kafka"
	"github.com/ds124wfegd/assetrouter/internal/pkg/origin"
	"github.com/ds124wfegd/assetrouter/internal/service"
	"github.com/ds124wfegd/assetrouter/internal/transport"
	"github.com/ds124wfegd/assetrouter/internal/worker"
	"github.com/gin-gonic/gin"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(logrus.StandardLogger().WriterLevel(logrus.ErrorLevel), "", 0),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// SetupLogger configures the global logrus logger from cfg.
func SetupLogger(cfg config.LogConfig) {
	if cfg.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// NewOrigin builds the origin chain: HTTP or file origin, wrapped by the Redis
// edge cache when enabled. The returned cleanup closes the Redis client.
func NewOrigin(cfg *config.Config) (origin.Origin, func(), error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 64,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
	o := origin.New(cfg.Router.OriginURL, httpClient)

	if !cfg.Redis.Enabled {
		return o, func() {}, nil
	}

	client, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	cache := redis.NewCacheRepository(client, cfg.Redis.MaxObjectBytes)
	logrus.Info("Edge cache enabled")

	return origin.NewCachingOrigin(o, cache, cfg.Redis.MaxObjectBytes), func() { client.Close() }, nil
}

func NewServer(cfg *config.Config) {

	SetupLogger(cfg.Log)

	originClient, closeOrigin, err := NewOrigin(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize origin: %v", err)
	}
	defer closeOrigin()

	var producer kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		producer = kafka.NewMockProducer()
	}
	defer producer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reporter := worker.NewMissReporter(producer, cfg.Kafka.QueueSize)
	reporterDone := make(chan struct{})
	go func() {
		reporter.Start(ctx)
		close(reporterDone)
	}()

	assetService := service.NewAssetService(originClient, reporter, service.Options{
		EdgeTTL:            cfg.Router.EdgeTTL,
		BrowserTTL:         cfg.Router.BrowserTTL,
		DetectFallbackType: cfg.Router.DetectFallbackType,
	})
	assetHandler := transport.NewAssetHandler(assetService, cfg.Router.Prefix)

	passthrough, err := transport.NewPassthrough(cfg.Router.PassthroughURL)
	if err != nil {
		logrus.Fatalf("Invalid passthrough url %q: %v", cfg.Router.PassthroughURL, err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(assetHandler, passthrough, cfg.Server.RequestTimeout, reporter)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":   cfg.Server.Port,
		"prefix": cfg.Router.Prefix,
		"origin": cfg.Router.OriginURL,
	}).Info("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}

	cancel()
	<-reporterDone
}
