package server

import (
	"context"
	"log"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ishaanzatey/incident-handler/apis/common"
	"github.com/ishaanzatey/incident-handler/internal/config"
	"github.com/ishaanzatey/incident-handler/internal/handlers"
	"github.com/ishaanzatey/incident-handler/internal/version"
	"github.com/ishaanzatey/incident-handler/pkg/broadcaster"
	"github.com/ishaanzatey/incident-handler/pkg/logger"
	"github.com/ishaanzatey/incident-handler/pkg/pipeline"
	"github.com/ishaanzatey/incident-handler/pkg/recorder"
	"github.com/ishaanzatey/incident-handler/pkg/rules"
	"github.com/ishaanzatey/incident-handler/pkg/servicenow"
)

// Server represents the HTTP server instance with all its components:
// the Fiber application, the broadcaster hub, the execution recorder,
// and the scheduled resolution pipeline.
type Server struct {
	app      *fiber.App
	cfg      *config.Config
	hub      *broadcaster.Hub
	recorder recorder.Recorder
	monitor  *pipeline.Monitor
}

// New creates and initializes a new Server instance with the provided
// configuration. It wires the broadcaster, recorder, rule store, ticketing
// client, and pipeline, then sets up the Fiber application with middleware
// and routes. The server is ready to start after this function returns.
func New(cfg *config.Config) *Server {
	if err := logger.InitFromConfig(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	hub := broadcaster.NewHub()

	// Audit storage: Postgres when reachable, in-memory otherwise
	rec := recorder.New(context.Background(), cfg.Database.DSN)
	if cfg.Cache.Enabled {
		rec = recorder.WithStatsCache(context.Background(), rec, recorder.CacheConfig{
			Address:   cfg.Cache.Address,
			Password:  cfg.Cache.Password,
			Database:  cfg.Cache.Database,
			KeyPrefix: cfg.Cache.KeyPrefix,
			TTL:       cfg.Cache.TTL,
		})
	}

	snClient := servicenow.NewClient(
		cfg.ServiceNow.URL, cfg.ServiceNow.Username, cfg.ServiceNow.Password, cfg.ServiceNow.Timeout)

	// The rule store requires the database; without it the pipeline cannot
	// match incidents, so scheduling and manual triggers are disabled while
	// the dashboard keeps serving.
	var runner *pipeline.Runner
	var monitor *pipeline.Monitor
	if cfg.Database.DSN == "" {
		logger.Warnf("No database configured: rule matching unavailable, pipeline disabled")
	} else if ruleStore, err := rules.NewStore(context.Background(), cfg.Database.DSN); err != nil {
		logger.Errorf("Rule store unavailable (%v): pipeline disabled", err)
	} else {
		runner = pipeline.NewRunner(pipeline.Options{
			Store:             snClient,
			Finder:            ruleStore,
			Recorder:          rec,
			Emitter:           hub,
			AssignmentGroupID: cfg.ServiceNow.AssignmentGroup,
			RunTimeout:        cfg.Pipeline.RunTimeout,
			IncidentTimeout:   cfg.Pipeline.IncidentTimeout,
		})

		if cfg.Pipeline.Enabled {
			monitor = pipeline.NewMonitor(runner, cfg.Pipeline.Interval)
			logger.Infof("Pipeline scheduling enabled - group: %s, interval: %v",
				cfg.ServiceNow.AssignmentGroup, cfg.Pipeline.Interval)
		} else {
			logger.Infof("Pipeline scheduling disabled - runs only on manual trigger")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:     "Incident Handler " + version.GetVersion(),
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(common.ErrorResponse{
				Error:   true,
				Message: err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	handlers.SetupRoutes(app, rec, hub, runner)

	return &Server{
		app:      app,
		cfg:      cfg,
		hub:      hub,
		recorder: rec,
		monitor:  monitor,
	}
}

// Start starts the scheduled pipeline (if enabled) and the HTTP server.
// It blocks until the server stops listening.
func (s *Server) Start() error {
	if s.monitor != nil {
		logger.Info("Starting incident resolution pipeline thread...")
		go s.monitor.Start()
	}

	return s.app.Listen(":" + s.cfg.Port)
}

// Shutdown stops the pipeline, the broadcaster, and the HTTP server, and
// closes the recorder.
func (s *Server) Shutdown() error {
	if s.monitor != nil {
		s.monitor.Stop()
	}
	s.hub.Stop()
	err := s.app.Shutdown()
	if cerr := s.recorder.Close(); err == nil {
		err = cerr
	}
	return err
}
