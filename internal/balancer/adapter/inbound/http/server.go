package http_handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/config"
	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/domain"
	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/port"
	"github.com/anthanhphan/go-hashring-balancer/pkg/hashring"
	"github.com/anthanhphan/go-hashring-balancer/pkg/idgen"
	"github.com/anthanhphan/go-hashring-balancer/pkg/resilience"
	sdklogger "github.com/anthanhphan/gosdk/logger"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app          *fiber.App
	cfg          *config.Config
	service      port.BalancerService
	breakers     *resilience.BreakerGroup
	ids          *idgen.Snowflake
	proxyTimeout time.Duration
}

func NewServer(cfg *config.Config, service port.BalancerService, ids *idgen.Snowflake) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{
		app:     app,
		cfg:     cfg,
		service: service,
		breakers: resilience.NewBreakerGroup(resilience.BreakerConfig{
			FailureThreshold: cfg.Balancer.BreakerFailureThreshold,
			Cooldown:         time.Duration(cfg.Balancer.BreakerCooldownMS) * time.Millisecond,
		}),
		ids:          ids,
		proxyTimeout: time.Duration(cfg.Balancer.ProxyTimeoutMS) * time.Millisecond,
	}

	// Routes
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")
	api.Get("/servers", s.handleListServers)
	api.Post("/servers", s.handleAddServer)
	api.Get("/servers/:name", s.handleGetServer)
	api.Put("/servers/:name", s.handleUpdateWeight)
	api.Delete("/servers/:name", s.handleRemoveServer)
	api.Put("/servers/:name/health", s.handleMarkHealth)
	api.Get("/stats", s.handleStats)
	api.Get("/health", s.handleHealth)
	api.Get("/debug/lookup/:key", s.handleDebugLookup)
	api.Get("/debug/ring", s.handleDebugRing)

	s.app.Post("/manage/reset", s.handleResetStats)

	// Everything else is forwarded to a backend.
	s.app.Use(s.handleProxy)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Addr)
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) sendJSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// statusFromError maps the service error taxonomy to HTTP statuses.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, hashring.ErrDuplicateServer):
		return fiber.StatusConflict
	case errors.Is(err, hashring.ErrServerNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, hashring.ErrInvalidWeight):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNoServersAvailable),
		errors.Is(err, domain.ErrNoHealthyServer),
		errors.Is(err, hashring.ErrEmptyRing):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleListServers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"servers": s.service.GetServerList(),
	})
}

func (s *Server) handleAddServer(c *fiber.Ctx) error {
	var server domain.Server
	if err := c.BodyParser(&server); err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if server.Name == "" || server.Host == "" || server.Port == 0 {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Fields 'name', 'host' and 'port' are required")
	}
	if server.Weight == 0 {
		server.Weight = 1
	}

	if err := s.service.AddServer(server); err != nil {
		sdklogger.Warnw("Add server failed", "name", server.Name, "error", err.Error())
		return s.sendJSONError(c, statusFromError(err), err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Server added",
		"server":  server,
	})
}

func (s *Server) handleGetServer(c *fiber.Ctx) error {
	status, err := s.service.GetServer(c.Params("name"))
	if err != nil {
		return s.sendJSONError(c, statusFromError(err), err.Error())
	}
	return c.JSON(status)
}

func (s *Server) handleUpdateWeight(c *fiber.Ctx) error {
	var body struct {
		Weight int `json:"weight"`
	}
	if err := c.BodyParser(&body); err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}

	name := c.Params("name")
	if err := s.service.UpdateWeight(name, body.Weight); err != nil {
		return s.sendJSONError(c, statusFromError(err), err.Error())
	}

	return c.JSON(fiber.Map{
		"message": "Weight updated",
		"name":    name,
		"weight":  body.Weight,
	})
}

func (s *Server) handleRemoveServer(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.service.RemoveServer(name); err != nil {
		return s.sendJSONError(c, statusFromError(err), err.Error())
	}
	s.breakers.Remove(name)
	return c.JSON(fiber.Map{
		"message": "Server removed",
		"name":    name,
	})
}

func (s *Server) handleMarkHealth(c *fiber.Ctx) error {
	var body struct {
		Healthy *bool `json:"healthy"`
	}
	if err := c.BodyParser(&body); err != nil || body.Healthy == nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Field 'healthy' is required")
	}

	name := c.Params("name")
	if err := s.service.MarkServerHealth(name, *body.Healthy); err != nil {
		return s.sendJSONError(c, statusFromError(err), err.Error())
	}

	return c.JSON(fiber.Map{
		"message": "Health state overridden",
		"name":    name,
		"healthy": *body.Healthy,
	})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"aggregate": s.service.GetAggregateStats(),
		"servers":   s.service.GetServerList(),
	})
}

// handleHealth reports the balancer's own readiness. It answers 503
// when no backend can take traffic so an upstream can route around
// this instance.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	agg := s.service.GetAggregateStats()
	status := fiber.StatusOK
	if agg.HealthyServers == 0 {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"total_servers":   agg.TotalServers,
		"healthy_servers": agg.HealthyServers,
	})
}

func (s *Server) handleDebugLookup(c *fiber.Ctx) error {
	n, _ := strconv.Atoi(c.Query("candidates"))
	lookup, err := s.service.DebugLookup(c.Params("key"), n)
	if err != nil {
		return s.sendJSONError(c, statusFromError(err), err.Error())
	}
	return c.JSON(lookup)
}

func (s *Server) handleDebugRing(c *fiber.Ctx) error {
	sampleLimit := 0
	if c.QueryBool("include_ring") {
		sampleLimit = 64
	}
	return c.JSON(s.service.RingInfo(sampleLimit))
}

func (s *Server) handleResetStats(c *fiber.Ctx) error {
	s.service.ResetStats()
	return c.JSON(fiber.Map{
		"message": "Statistics reset",
	})
}

// handleProxy forwards the request to the backend that owns the key
// clientIP:path. Sticky per client and path, spread across the pool.
func (s *Server) handleProxy(c *fiber.Ctx) error {
	key := c.IP() + ":" + c.Path()

	server, err := s.service.SelectServer(key)
	if err != nil {
		sdklogger.Warnw("No backend for request", "key", key, "error", err.Error())
		return s.sendJSONError(c, statusFromError(err), err.Error())
	}

	breaker := s.breakers.Get(server.Name)
	if err := breaker.Allow(); err != nil {
		s.service.ReportOutcome(server.Name, 0, true)
		return s.sendJSONError(c, fiber.StatusServiceUnavailable, err.Error())
	}

	if s.ids != nil {
		if id, err := s.ids.NextString(); err == nil {
			c.Request().Header.Set("X-Request-Id", id)
		}
	}

	start := time.Now()
	err = proxy.DoTimeout(c, server.URL()+c.OriginalURL(), s.proxyTimeout)
	latency := time.Since(start)

	failed := err != nil || c.Response().StatusCode() >= fiber.StatusInternalServerError
	s.service.ReportOutcome(server.Name, latency, failed)
	if failed {
		breaker.Report(fmt.Errorf("backend request failed"))
	} else {
		breaker.Report(nil)
	}

	if err != nil {
		sdklogger.Errorw("Proxy request failed", "backend", server.Name, "error", err.Error())
		return s.sendJSONError(c, fiber.StatusBadGateway, fmt.Sprintf("Upstream request failed: %v", err))
	}

	c.Response().Header.Set("X-Backend-Server", server.Name)
	return nil
}
