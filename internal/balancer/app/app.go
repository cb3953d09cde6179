package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpHandler "github.com/anthanhphan/go-hashring-balancer/internal/balancer/adapter/inbound/http"
	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/adapter/outbound/probe"
	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/config"
	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/domain"
	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/service"
	"github.com/anthanhphan/go-hashring-balancer/pkg/gossip"
	"github.com/anthanhphan/go-hashring-balancer/pkg/hashring"
	"github.com/anthanhphan/go-hashring-balancer/pkg/health"
	"github.com/anthanhphan/go-hashring-balancer/pkg/idgen"
	"github.com/anthanhphan/go-hashring-balancer/pkg/stats"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg     *config.Config
	server  *httpHandler.Server
	monitor *health.Monitor
	agent   *gossip.Agent
}

func New(configPath string) (*App, error) {
	// 1. Load Config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize Logger
	logger.InitLogger(&cfg.Logger)

	// 3. Request ID generator. Redis keeps snowflake timestamps
	// consistent across balancer instances; without Redis the local
	// clock is used.
	var clock idgen.Clock = &idgen.SystemClock{}
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		clock = idgen.NewRedisClock(redisClient)
	}
	idGen, err := idgen.New(cfg.Balancer.NodeID, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to init snowflake: %w", err)
	}

	// 4. Hash ring
	ring, err := hashring.NewRing(cfg.Balancer.HashFunction, cfg.Balancer.VirtualNodes)
	if err != nil {
		return nil, fmt.Errorf("failed to init hash ring: %w", err)
	}

	// 5. Health monitor
	prober, err := probe.New(cfg.HealthCheck.ProbeType, cfg.HealthCheck.ProbePath)
	if err != nil {
		return nil, fmt.Errorf("failed to init prober: %w", err)
	}
	monitor := health.NewMonitor(health.Config{
		Interval: time.Duration(cfg.HealthCheck.IntervalMS) * time.Millisecond,
		Timeout:  time.Duration(cfg.HealthCheck.TimeoutMS) * time.Millisecond,
		Retries:  cfg.HealthCheck.Retries,
		Workers:  cfg.HealthCheck.Workers,
	}, prober)

	// 6. Core service
	svc := service.NewBalancer(ring, monitor, stats.NewCollector(), cfg.Balancer.MaxCandidates)

	// 7. Static backends from config
	for _, b := range cfg.Backends {
		server := domain.Server{Name: b.Name, Host: b.Host, Port: b.Port, Weight: b.Weight}
		if server.Weight == 0 {
			server.Weight = 1
		}
		if err := svc.AddServer(server); err != nil {
			return nil, fmt.Errorf("failed to register backend %q: %w", b.Name, err)
		}
	}

	// 8. Gossip discovery
	var agent *gossip.Agent
	if cfg.Discovery.Enabled {
		nodeName := cfg.Discovery.NodeName
		if nodeName == "" {
			nodeName, _ = os.Hostname()
		}
		agent, err = gossip.NewAgent(gossip.Config{
			NodeName: nodeName,
			BindAddr: cfg.Discovery.BindAddr,
			BindPort: cfg.Discovery.BindPort,
			Meta:     gossip.Meta{Role: gossip.RoleBalancer},
		}, &backendRegistrar{svc: svc})
		if err != nil {
			return nil, fmt.Errorf("failed to init gossip agent: %w", err)
		}
		if err := agent.Join(cfg.Discovery.Seeds); err != nil {
			return nil, err
		}
	}

	// 9. HTTP server
	httpServer := httpHandler.NewServer(cfg, svc, idGen)

	return &App{
		cfg:     cfg,
		server:  httpServer,
		monitor: monitor,
		agent:   agent,
	}, nil
}

// backendRegistrar adapts the core service to gossip membership events.
type backendRegistrar struct {
	svc *service.Balancer
}

func (r *backendRegistrar) AddBackend(b gossip.Backend) error {
	return r.svc.AddServer(domain.Server{Name: b.Name, Host: b.Host, Port: b.Port, Weight: b.Weight})
}

func (r *backendRegistrar) RemoveBackend(name string) error {
	return r.svc.RemoveServer(name)
}

func (a *App) Run() error {
	logger.Infow("Balancer starting", "addr", a.cfg.Server.Addr,
		"hash_function", a.cfg.Balancer.HashFunction, "virtual_nodes", a.cfg.Balancer.VirtualNodes)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		logger.Infow("Shutdown signal received", "signal", sig.String())
	case err := <-serverErrCh:
		runErr = fmt.Errorf("http server failed: %w", err)
		logger.Errorw("Balancer server exited unexpectedly", "error", err.Error())
	}

	logger.Info("Shutting down balancer")
	if a.agent != nil {
		if err := a.agent.Leave(); err != nil {
			logger.Warnw("Gossip leave failed", "error", err.Error())
		}
	}
	a.monitor.Close()
	if err := a.server.Stop(context.Background()); err != nil {
		logger.Errorw("Balancer shutdown error", "error", err.Error())
		if runErr == nil {
			runErr = err
		}
	}

	return runErr
}
