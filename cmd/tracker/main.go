package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vulnwatch/vulnwatch/pkg/api"
	"github.com/vulnwatch/vulnwatch/pkg/config"
	"github.com/vulnwatch/vulnwatch/pkg/ingest"
	"github.com/vulnwatch/vulnwatch/pkg/models"
	"github.com/vulnwatch/vulnwatch/pkg/scan"
	"github.com/vulnwatch/vulnwatch/pkg/store"
	"github.com/vulnwatch/vulnwatch/pkg/vuln"
)

const (
	appName    = "VulnWatch Network Vulnerability Tracker"
	appVersion = "0.3.0"
)

var log = logrus.New()

func main() {
	app := &cli.App{
		Name:    "vulnwatch",
		Usage:   "Track network scan sessions and the vulnerabilities they discover",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"VULNWATCH_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logrus.ParseLevel(c.String("log-level"))
			if err != nil {
				level = logrus.InfoLevel
			}
			log.SetLevel(level)
			log.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			})
			return nil
		},
		Commands: []*cli.Command{
			commandServe(),
			commandImport(),
			commandSeed(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the tracker API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port for the HTTP API"},
			&cli.StringFlag{Name: "db", Usage: "SQLite database `PATH` (omit for in-memory)"},
			&cli.StringFlag{Name: "devices", Usage: "Device inventory JSON `FILE`"},
			&cli.BoolFlag{Name: "sample", Usage: "Seed sample devices and findings (demo mode)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.String("port") != "" {
				cfg.Port = c.String("port")
			}
			if c.String("db") != "" {
				cfg.DatabasePath = c.String("db")
			}
			if c.String("devices") != "" {
				cfg.DeviceFile = c.String("devices")
			}

			displayBanner()
			color.Cyan("=== %s v%s ===\n", appName, appVersion)

			recordStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer recordStore.Close()

			devices := store.NewDeviceIndex(nil)
			if cfg.DeviceFile != "" {
				inventory, err := config.LoadDevicesFromFile(cfg.DeviceFile)
				if err != nil {
					return fmt.Errorf("loading device inventory: %w", err)
				}
				devices.AddAll(inventory)
				log.Infof("Loaded %d devices from %s", devices.Count(), cfg.DeviceFile)
			}

			if c.Bool("sample") {
				color.Yellow("Loading sample devices and findings...")
				devices.AddAll(sampleDevices())
				for _, v := range sampleVulnerabilities() {
					if err := recordStore.Insert(v); err != nil {
						return fmt.Errorf("seeding sample findings: %w", err)
					}
				}
			}

			scans := scan.NewManager(devices, cfg.ProgressIncrement, log)
			engine := vuln.NewEngine(recordStore, devices, log)
			stats := vuln.NewAggregator(recordStore)
			grouper := vuln.NewGrouper(recordStore, devices)

			server := api.NewServer(cfg, log, engine, stats, grouper, scans, devices)

			color.Green("API server running at http://localhost:%s", cfg.Port)
			color.Green("Press Ctrl+C to stop the server")
			return server.Start()
		},
	}
}

func commandImport() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import scanner findings from a JSON file into the record store",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Value: "data/vulnwatch.db", Usage: "SQLite database `PATH`"},
			&cli.StringFlag{Name: "session", Usage: "Scan session id to tag imported findings with"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one findings file argument")
			}

			recordStore, err := store.OpenSQLite(c.String("db"))
			if err != nil {
				return err
			}
			defer recordStore.Close()

			importer := ingest.NewImporter(recordStore, log)
			count, err := importer.ImportFile(c.Args().First(), c.String("session"))
			if err != nil {
				return err
			}

			color.Green("Imported %d findings into %s", count, c.String("db"))
			return nil
		},
	}
}

func commandSeed() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Populate a database and device inventory with demo data",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Value: "data/vulnwatch.db", Usage: "SQLite database `PATH`"},
			&cli.StringFlag{Name: "devices", Value: "data/devices.json", Usage: "Device inventory output `FILE`"},
		},
		Action: func(c *cli.Context) error {
			recordStore, err := store.OpenSQLite(c.String("db"))
			if err != nil {
				return err
			}
			defer recordStore.Close()

			for _, v := range sampleVulnerabilities() {
				if err := recordStore.Insert(v); err != nil {
					return fmt.Errorf("seeding findings: %w", err)
				}
			}

			if err := writeDeviceInventory(c.String("devices"), sampleDevices()); err != nil {
				return err
			}

			color.Green("Seeded %s and %s with demo data", c.String("db"), c.String("devices"))
			return nil
		},
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.LoadConfigFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("loading config %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.DatabasePath == "" {
		log.Info("No database path configured, using in-memory record store")
		return store.NewMemoryStore(), nil
	}
	log.Infof("Opening record store at %s", cfg.DatabasePath)
	return store.OpenSQLite(cfg.DatabasePath)
}

func writeDeviceInventory(path string, devices []models.Device) error {
	data, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func displayBanner() {
	banner := `
╔══════════════════════════════════════════════════╗
║                                                  ║
║        VulnWatch Vulnerability Tracker           ║
║                                                  ║
║           Scan - Track - Prioritize              ║
║                                                  ║
╚══════════════════════════════════════════════════╝
`
	fmt.Println(banner)
}
