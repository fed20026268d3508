// NoLongerEvil Bridge
//
// This is the main entry point for the bridge that exposes NoLongerEvil
// thermostats, which report over MQTT, as HomeKit thermostat accessories.
//
// Startup order: config, logging, database, thermostat loop, MQTT,
// InfluxDB (optional), HomeKit registry, router, bridge, HomeKit server,
// status API. Shutdown runs the deferred closes in reverse. SIGHUP
// reloads the device list.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/nolongerevil-bridge/internal/api"
	"github.com/nerrad567/nolongerevil-bridge/internal/audit"
	"github.com/nerrad567/nolongerevil-bridge/internal/bridge"
	"github.com/nerrad567/nolongerevil-bridge/internal/catalog"
	"github.com/nerrad567/nolongerevil-bridge/internal/homekit"
	"github.com/nerrad567/nolongerevil-bridge/internal/infrastructure/config"
	"github.com/nerrad567/nolongerevil-bridge/internal/infrastructure/database"
	"github.com/nerrad567/nolongerevil-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/nolongerevil-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/nolongerevil-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/nolongerevil-bridge/internal/telemetry"
	"github.com/nerrad567/nolongerevil-bridge/internal/thermostat"
	"github.com/nerrad567/nolongerevil-bridge/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting NoLongerEvil bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"topic_prefix", cfg.Bridge.TopicPrefix,
		"devices", len(cfg.Devices),
		"mqtt_auth", cfg.MQTT.Auth,
		"influxdb", cfg.InfluxDB,
	)

	ids, err := identities(cfg.Devices)
	if err != nil {
		return err
	}

	// Database
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx, database.Migrations{FS: migrations.FS, Dir: "."}); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	auditRepo := audit.NewSQLiteRepository(db.DB)
	accessories := catalog.NewCatalog(catalog.NewSQLiteRepository(db.DB), log)
	accessories.SetJournal(auditRepo)

	// Thermostat loop owns every Machine and the Router.
	loop := thermostat.NewLoop(thermostat.DefaultQueueSize, log)
	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(ctx) }()
	defer loop.Stop()

	// Metrics
	metrics := telemetry.NewMetrics()
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics)
	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "nlebridge_build_info",
		Help:        "Build information",
		ConstLabels: prometheus.Labels{"version": version, "commit": commit},
	}, func() float64 { return 1 }))

	// MQTT
	mqttClient, err := mqtt.Connect(cfg.MQTT, mqtt.Topics{Prefix: cfg.Bridge.TopicPrefix})
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		metrics.SetConnected(true)
	})
	mqttClient.SetOnDisconnect(func(error) {
		metrics.SetConnected(false)
	})
	metrics.SetConnected(mqttClient.IsConnected())
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", mqttClient.ClientID(),
	)

	observers := thermostat.Observers{metrics}

	// InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		observers = append(observers, telemetry.NewHistory(influxClient))
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// MQTT bridge
	br, err := bridge.New(bridge.Options{
		Prefix:          cfg.Bridge.TopicPrefix,
		QoS:             byte(cfg.MQTT.QoS),
		MQTTClient:      mqttClient,
		Loop:            loop,
		PublishObserver: metrics,
		RouteObserver:   metrics,
		Logger:          log,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	// HomeKit accessory registry (optional)
	var (
		hkRegistry  *homekit.Registry
		accRegistry thermostat.AccessoryRegistry
	)
	if cfg.HomeKit.Enabled {
		hkRegistry, err = homekit.NewRegistry(homekit.RegistryOptions{
			Manufacturer: cfg.HomeKit.Manufacturer,
			Model:        cfg.HomeKit.Model,
			Firmware:     version,
			Catalog:      accessories,
			Loop:         loop,
			Logger:       log,
		})
		if err != nil {
			return fmt.Errorf("creating HomeKit registry: %w", err)
		}
		accRegistry = hkRegistry
	} else {
		log.Info("HomeKit disabled")
	}

	// Router
	router, err := thermostat.NewRouter(thermostat.RouterOptions{
		Prefix:    cfg.Bridge.TopicPrefix,
		Registry:  accRegistry,
		Publisher: br,
		Observer:  observers,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}

	if _, err := syncDevices(ctx, loop, router, ids); err != nil {
		return err
	}

	if cfg.HomeKit.Enabled {
		removed, pruneErr := accessories.Prune(ctx, serials(ids))
		if pruneErr != nil {
			return fmt.Errorf("pruning accessory catalog: %w", pruneErr)
		}
		log.Info("accessory catalog reconciled",
			"configured", len(ids),
			"removed", len(removed),
		)
	}

	if err := br.Start(ctx, router); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		br.Stop()
	}()

	// HomeKit server
	hkErr := make(chan error, 1)
	if hkRegistry != nil {
		hkServer, hkServerErr := homekit.NewServer(cfg.HomeKit, cfg.Bridge.Name, version, hkRegistry)
		if hkServerErr != nil {
			return hkServerErr
		}
		go func() { hkErr <- hkServer.ListenAndServe(ctx) }()
		log.Info("HomeKit server started",
			"accessories", len(hkRegistry.Accessories()),
			"storage", cfg.HomeKit.StoragePath,
		)
	}

	// Status API
	if cfg.API.Enabled {
		checks := map[string]api.HealthChecker{
			"database": db,
			"mqtt":     mqttClient,
		}
		if influxClient != nil {
			checks["influxdb"] = influxClient
		}
		apiServer, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Loop:     loop,
			Router:   router,
			Bridge:   br,
			Checks:   checks,
			Gatherer: registry,
			DBStats:  db,
			Audit:    auditRepo,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("status API disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	// SIGHUP re-reads the device list.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	log.Info("initialisation complete, waiting for shutdown signal")

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			log.Info("NoLongerEvil bridge stopped")
			return nil
		case <-hup:
			log.Info("reload signal received", "path", configPath)
			if reloadErr := reloadDevices(ctx, log, configPath, loop, router, br, cfg.HomeKit.Enabled); reloadErr != nil {
				log.Error("device reload failed", "error", reloadErr)
			}
		case err := <-loopErr:
			return fmt.Errorf("thermostat loop exited: %w", err)
		case err := <-hkErr:
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("HomeKit server: %w", err)
			}
			log.Info("NoLongerEvil bridge stopped")
			return nil
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses NLEBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("NLEBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// identities converts the configured device list into thermostat identities.
func identities(devices []config.DeviceConfig) ([]thermostat.Identity, error) {
	ids := make([]thermostat.Identity, 0, len(devices))
	for _, d := range devices {
		units, err := thermostat.ParseDisplayUnits(d.TemperatureDisplayUnits)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", d.Serial, err)
		}
		ids = append(ids, thermostat.Identity{
			Serial:       d.Serial,
			Name:         d.Name,
			DisplayUnits: units,
		})
	}
	return ids, nil
}

func serials(ids []thermostat.Identity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Serial
	}
	return out
}

// syncDevices builds the router's machines on the loop goroutine.
func syncDevices(ctx context.Context, loop *thermostat.Loop, router *thermostat.Router, ids []thermostat.Identity) (thermostat.SyncResult, error) {
	var (
		res     thermostat.SyncResult
		syncErr error
	)
	if err := loop.Call(ctx, func() {
		res, syncErr = router.Sync(ids)
	}); err != nil {
		return res, fmt.Errorf("syncing devices: %w", err)
	}
	if syncErr != nil {
		return res, fmt.Errorf("syncing devices: %w", syncErr)
	}
	return res, nil
}

// resyncer is the part of *bridge.Bridge a reload needs.
type resyncer interface {
	Resync(ctx context.Context) (added, removed int, err error)
}

// reloadDevices re-reads the device list from configPath and brings the
// router and the MQTT subscriptions in line with it. Every other setting
// keeps its startup value.
func reloadDevices(
	ctx context.Context,
	log *logging.Logger,
	configPath string,
	loop *thermostat.Loop,
	router *thermostat.Router,
	br resyncer,
	homeKit bool,
) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ids, err := identities(cfg.Devices)
	if err != nil {
		return err
	}

	res, err := syncDevices(ctx, loop, router, ids)
	if err != nil {
		return err
	}
	subscribed, unsubscribed, err := br.Resync(ctx)
	if err != nil {
		return fmt.Errorf("resyncing subscriptions: %w", err)
	}

	log.Info("devices reloaded",
		"added", res.Added,
		"removed", res.Removed,
		"kept", res.Kept,
		"subscribed", subscribed,
		"unsubscribed", unsubscribed,
	)
	// hap publishes its accessory list once, at server start.
	if homeKit && (res.Added > 0 || res.Removed > 0) {
		log.Warn("HomeKit accessory list changes take effect after a restart")
	}
	return nil
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when history is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
