package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-autopilot/internal/api"
	"github.com/nerrad567/gray-logic-autopilot/internal/audit"
	"github.com/nerrad567/gray-logic-autopilot/internal/autopilot"
	"github.com/nerrad567/gray-logic-autopilot/internal/control"
	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-autopilot/internal/modulation"
	"github.com/nerrad567/gray-logic-autopilot/internal/project"
	"github.com/nerrad567/gray-logic-autopilot/internal/session"
	"github.com/nerrad567/gray-logic-autopilot/internal/show"
	"github.com/nerrad567/gray-logic-autopilot/internal/snapshot"
	"github.com/nerrad567/gray-logic-autopilot/migrations"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the autopilot service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *configPath, nil)
		},
	}
}

// run is the service lifecycle, separated from cobra for testability.
// ready, if non-nil, receives the API address once everything is up.
//
// Shutdown happens in reverse order of startup through the defer chain.
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string, ready chan<- string) error {
	log := logging.Default()
	log.Info("starting Gray Logic Autopilot",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path, "migrations_applied", applied)

	graph, err := show.Build(cfg.Show)
	if err != nil {
		return fmt.Errorf("building show graph: %w", err)
	}
	lib, err := autopilot.LoadLibrary(cfg.Autopilot.LibraryFile)
	if err != nil {
		return fmt.Errorf("loading autopilot library: %w", err)
	}
	log.Info("show loaded",
		"channels", len(graph.Channels()),
		"library", cfg.Autopilot.LibraryFile,
		"pattern_types", lib.Len(),
	)

	activity := audit.NewSQLiteRepository(db.DB)
	metrics := api.NewMetrics()
	hooks := []autopilot.Hooks{autopilot.NewTelemetryHooks(metrics)}
	var broadcasters []session.Broadcaster

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		hooks = append(hooks, autopilot.NewTelemetryHooks(influxClient))
		broadcasters = append(broadcasters, influxClient)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	var mqttControl *control.Handler
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT, log.Component("mqtt"))
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttControl, err = control.New(mqttClient, byte(cfg.MQTT.QoS), log.Component("control"))
		if err != nil {
			return fmt.Errorf("creating MQTT control: %w", err)
		}
		mqttControl.SetRecorder(activity)
		hooks = append(hooks, autopilot.NewTelemetryHooks(mqttControl))
		broadcasters = append(broadcasters, mqttControl)
	} else {
		log.Info("MQTT disabled")
	}

	mods := modulation.NewEngine()
	snaps := snapshot.NewEngine(graph)
	proj := project.New(graph, mods, snaps, project.NewSQLiteStore(db))
	proj.SetLogger(log.Component("project"))

	pilot, err := autopilot.New(autopilot.Deps{
		Graph:      graph,
		Modulation: mods,
		Snapshots:  snaps,
		Library:    lib,
		Hooks:      hooks,
		Rand:       autopilot.NewRand(cfg.Autopilot.Seed),
		Logger:     log.Component("autopilot"),
	})
	if err != nil {
		return fmt.Errorf("creating autopilot: %w", err)
	}

	sess, err := session.New(session.Deps{
		Graph:      graph,
		Modulation: mods,
		Autopilot:  pilot,
		Project:    proj,
		Autosave:   cfg.Autopilot.Autosave,
		Logger:     log.Component("session"),
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	for _, b := range broadcasters {
		sess.AddBroadcaster(b)
	}
	if err := sess.LoadOrInit(ctx); err != nil {
		return fmt.Errorf("loading project: %w", err)
	}
	log.Info("project loaded", "enabled", sess.Status().Enabled)

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log.Component("api"),
		Session:  sess,
		Metrics:  metrics,
		Activity: activity,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if runErr := sess.Run(runCtx, cfg.GetTickInterval()); runErr != nil {
			errs <- fmt.Errorf("tick loop: %w", runErr)
		}
	}()
	if mqttControl != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if runErr := mqttControl.Run(runCtx, sess); runErr != nil {
				errs <- fmt.Errorf("mqtt control: %w", runErr)
			}
		}()
	}

	log.Info("initialisation complete", "api", server.Addr())
	if ready != nil {
		ready <- server.Addr()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case runErr = <-errs:
		log.Error("component failed, shutting down", "error", runErr)
	}
	stop()
	wg.Wait()

	if cfg.Autopilot.Autosave {
		if saveErr := sess.Save(context.WithoutCancel(ctx)); saveErr != nil {
			log.Error("final save failed", "error", saveErr)
		}
	}

	log.Info("Gray Logic Autopilot stopped")
	return runErr
}

// healthCheck verifies the components that must be up before serving.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
