package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/op-looper/metrics"
)

// Config selects which servers run. Empty addresses disable a server.
type Config struct {
	HealthzAddr string
	Metrics     opmetrics.CLIConfig
}

// MetricsAddr is the metrics listen address, "" when metrics are disabled
func (c Config) MetricsAddr() string {
	if !c.Metrics.Enabled {
		return ""
	}
	return net.JoinHostPort(c.Metrics.ListenAddr, strconv.Itoa(c.Metrics.ListenPort))
}

type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer

	config Config
	log    log.Logger
}

func New(cfg Config, logger log.Logger) *Service {
	if logger == nil {
		logger = log.New()
	}
	return &Service{
		Healthz: &HealthzServer{log: logger},
		Metrics: &MetricsServer{},
		config:  cfg,
		log:     logger,
	}
}

func (s *Service) Start(ctx context.Context) {
	s.log.Info("service starting")

	if addr := s.config.HealthzAddr; addr != "" {
		go func() {
			s.log.Info("starting healthz server", "addr", addr)
			if err := s.Healthz.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("error starting healthz server", "err", err)
				metrics.RecordErrorDetails("healthz", err)
			}
		}()
	}

	if addr := s.config.MetricsAddr(); addr != "" {
		go func() {
			s.log.Info("starting metrics server", "addr", addr)
			if err := s.Metrics.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("error starting metrics server", "err", err)
				metrics.RecordErrorDetails("metrics", err)
			}
		}()
	}

	s.log.Info("service started")
}

func (s *Service) Shutdown(ctx context.Context) {
	s.log.Info("service shutting down")

	if err := s.Healthz.Shutdown(ctx); err != nil {
		s.log.Warn("failed to stop healthz server", "err", err)
	}
	if err := s.Metrics.Shutdown(ctx); err != nil {
		s.log.Warn("failed to stop metrics server", "err", err)
	}

	s.log.Info("service stopped")
}
