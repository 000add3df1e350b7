// pumpsizer sizes a solar water-pumping installation from a catalog file,
// without a database or a workflow engine.
//
// Usage:
//
//	pumpsizer size --catalog catalog.yaml --lat 14.69 --lon -17.44 --volume 50 --hmt 20
//	pumpsizer hourly --lat 14.69 --lon -17.44 --kwc 2.1
//	pumpsizer import --catalog catalog.yaml --config configs/config.yaml
//	pumpsizer registry export --out configs/activity-registry.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"solar-pumping-workers/internal/catalog"
	"solar-pumping-workers/internal/common/config"
	"solar-pumping-workers/internal/common/database"
	"solar-pumping-workers/internal/common/logger"
	"solar-pumping-workers/internal/irradiation"
	"solar-pumping-workers/internal/service"
	"solar-pumping-workers/internal/sizing"
	"solar-pumping-workers/pkg/registry"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "pumpsizer",
		Usage:   "Size solar water-pumping installations and estimate their LCOE",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"PUMPSIZER_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			sizeCommand(),
			hourlyCommand(),
			importCommand(),
			registryCommand(),
		},
	}
}

func cliLogger(c *cli.Context) logger.Logger {
	return logger.NewFromOptions(logger.Options{Level: c.String("log-level"), Format: "console", Output: "stderr"})
}

func irradiationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "offline",
			Usage: "Skip PVGIS and use the fallback irradiation",
		},
		&cli.StringFlag{
			Name:    "irradiation-url",
			Value:   irradiation.DefaultBaseURL,
			Usage:   "PVGIS API base URL",
			EnvVars: []string{"PVGIS_BASE_URL"},
		},
		&cli.DurationFlag{
			Name:  "irradiation-timeout",
			Value: 5 * time.Second,
			Usage: "PVGIS request timeout",
		},
	}
}

// newService builds a sizing service without history. Offline runs get no
// irradiation client, so the engine uses the fallback irradiation.
func newService(c *cli.Context, source catalog.Source) *service.SizingService {
	log := cliLogger(c)
	deps := service.Dependencies{Catalog: source}
	if !c.Bool("offline") {
		deps.Irradiation = irradiation.NewClient(irradiation.Config{
			BaseURL: c.String("irradiation-url"),
			Timeout: c.Duration("irradiation-timeout"),
		}, nil, nil, log)
	}
	return service.NewSizingService(service.Config{Params: sizing.DefaultParams()}, deps, log)
}

// =============================================================================
// SIZE COMMAND
// =============================================================================

func sizeCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "catalog", Aliases: []string{"c"}, Usage: "Catalog YAML file", Required: true},
		&cli.Float64Flag{Name: "lat", Usage: "Site latitude", Required: true},
		&cli.Float64Flag{Name: "lon", Usage: "Site longitude", Required: true},
		&cli.Float64Flag{Name: "volume", Usage: "Daily water volume (m3)", Required: true},
		&cli.Float64Flag{Name: "hmt", Usage: "Total manometric head (m)", Required: true},
		&cli.Float64Flag{Name: "autonomy-days", Usage: "Days of battery autonomy"},
		&cli.StringFlag{Name: "target", Value: "performance", Usage: "Optimization target (cost, performance)"},
		&cli.IntFlag{Name: "lifespan", Usage: "Override the system lifespan (years)"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format (json, table)"},
	}
	return &cli.Command{
		Name:   "size",
		Usage:  "Size panels, pump and battery bank for a site",
		Flags:  append(flags, irradiationFlags()...),
		Action: runSize,
	}
}

func runSize(c *cli.Context) error {
	file, err := catalog.LoadFile(c.String("catalog"))
	if err != nil {
		return err
	}

	target, ok := sizing.ParseTarget(c.String("target"))
	if !ok {
		return fmt.Errorf("unknown target %q", c.String("target"))
	}
	req := sizing.SizingRequest{
		Latitude:           c.Float64("lat"),
		Longitude:          c.Float64("lon"),
		WaterVolumeM3:      c.Float64("volume"),
		HeadMeters:         c.Float64("hmt"),
		AutonomyDays:       c.Float64("autonomy-days"),
		OptimizationTarget: target,
	}
	if c.IsSet("lifespan") {
		lifespan := c.Int("lifespan")
		req.LifespanYearsOverride = &lifespan
	}

	if file.Assumptions == nil {
		defaults := sizing.DefaultAssumptions()
		file.Assumptions = &defaults
	}

	sim, err := newService(c, file.Source()).Calculate(c.Context, req)
	if err != nil {
		return err
	}
	result := &sim.Result

	if c.String("format") == "table" {
		return printSizing(c.App.Writer, result)
	}
	return printJSON(c.App.Writer, result)
}

func printSizing(w io.Writer, r *sizing.SizingResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Daily energy\t%.2f kWh\n", r.Technical.DailyEnergyKwh)
	fmt.Fprintf(tw, "Irradiation\t%.2f kWh/m2/day (live: %t)\n", r.Technical.LocalIrradiationKwhM2, r.Technical.IrradiationIsLive)
	fmt.Fprintf(tw, "Peak power\t%.2f kWc\n", r.Technical.RequiredPeakPowerKwc)
	fmt.Fprintf(tw, "Panels\t%d x %s (%d W)\n", r.Components.PanelQuantity, r.Components.PanelModel, r.Components.PanelPowerWatt)
	fmt.Fprintf(tw, "Pump\t%s (%.2f kW)\n", r.Components.PumpModel, r.Components.PumpPowerKw)
	if r.Battery != nil {
		fmt.Fprintf(tw, "Batteries\t%d x %s (%.2f kWh usable)\n", r.Battery.Quantity, r.Battery.Model, r.Battery.UsableCapacityKwh)
	}
	fmt.Fprintf(tw, "Investment\t%.2f\n", r.Financial.TotalInvestment)
	fmt.Fprintf(tw, "LCOE\t%.3f /kWh\n", r.Financial.Lcoe)
	fmt.Fprintf(tw, "Savings vs diesel\t%.2f /year\n", r.Financial.CostVsDieselPerYear)
	for _, warning := range r.Warnings {
		fmt.Fprintf(tw, "Warning\t%s\n", warning)
	}
	return tw.Flush()
}

// =============================================================================
// HOURLY COMMAND
// =============================================================================

func hourlyCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.Float64Flag{Name: "lat", Usage: "Site latitude", Required: true},
		&cli.Float64Flag{Name: "lon", Usage: "Site longitude", Required: true},
		&cli.Float64Flag{Name: "kwc", Usage: "Installed peak power (kWc)", Required: true},
	}
	return &cli.Command{
		Name:   "hourly",
		Usage:  "Average production per hour of day",
		Flags:  append(flags, irradiationFlags()...),
		Action: runHourly,
	}
}

func runHourly(c *cli.Context) error {
	profile, err := newService(c, nil).HourlyProduction(c.Context, c.Float64("lat"), c.Float64("lon"), c.Float64("kwc"))
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, profile)
}

// =============================================================================
// IMPORT COMMAND
// =============================================================================

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Replace the catalog stored in Postgres with a catalog file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "catalog", Aliases: []string{"c"}, Usage: "Catalog YAML file", Required: true},
			&cli.StringFlag{Name: "config", Value: "configs/config.yaml", Usage: "Service configuration file"},
		},
		Action: runImport,
	}
}

func runImport(c *cli.Context) error {
	file, err := catalog.LoadFile(c.String("catalog"))
	if err != nil {
		return err
	}
	cfg, err := config.LoadFromFile(c.String("config"))
	if err != nil {
		return err
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(c.Context, time.Minute)
	defer cancel()

	if err := database.EnsureSchema(ctx, pg.GetDB()); err != nil {
		return err
	}
	if err := catalog.NewRepository(pg.GetDB()).Import(ctx, file); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Imported %d panels, %d pumps, %d batteries\n",
		len(file.Panels), len(file.Pumps), len(file.Batteries))
	return nil
}

// =============================================================================
// REGISTRY COMMAND
// =============================================================================

func registryCommand() *cli.Command {
	return &cli.Command{
		Name:  "registry",
		Usage: "Export or validate the activity registry",
		Subcommands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write the built-in registry to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "configs/activity-registry.json", Usage: "Destination file"},
				},
				Action: func(c *cli.Context) error {
					path := c.String("out")
					if err := registry.Default().Save(path); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Wrote registry to %s\n", path)
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "Check a registry file declares every sizing activity",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Value: "configs/activity-registry.json", Usage: "Registry file"},
				},
				Action: func(c *cli.Context) error {
					reg, err := registry.LoadRegistry(c.String("path"))
					if err != nil {
						return fmt.Errorf("failed to load registry: %w", err)
					}
					if err := reg.Validate(registry.TaskComputeSizing, registry.TaskHourlyProduction, registry.TaskListHistory); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
					return nil
				},
			},
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
