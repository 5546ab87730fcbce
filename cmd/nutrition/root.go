package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nutrition"
	"nutrition/internal/config"
	"nutrition/internal/log"
)

// app is the state shared by every subcommand for one invocation.
type app struct {
	cfgFile     string
	showMetrics bool

	v        *viper.Viper
	cfg      config.Config
	closeLog func()
	store    *nutrition.Store
	reg      *nutrition.Registry
	sys      *nutrition.UnitSystem
	promReg  *prometheus.Registry
}

// cli ties a root command to the state its subcommands share.
type cli struct {
	root *cobra.Command
	app  *app
}

// Execute runs the command line and releases the store and log file whether
// or not the command succeeded.
func (c *cli) Execute() error {
	err := c.root.Execute()
	if cerr := c.app.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newCLI(version string) *cli {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:               "nutrition",
		Short:             "Convert ingredient quantities between units",
		Long:              `Convert quantities between mass, volume and count units using a global catalog plus per ingredient conversions.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if !a.showMetrics || a.promReg == nil {
			return nil
		}
		return writeMetrics(cmd.OutOrStdout(), a.promReg)
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ./nutrition.yaml)")
	root.PersistentFlags().String("database", "", "path to the SQLite database")
	root.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false,
		"print engine counters after the command")
	_ = a.v.BindPFlag("database", root.PersistentFlags().Lookup("database"))

	root.AddCommand(
		newConvertCmd(a),
		newUnitsCmd(a),
		newCatalogCmd(a),
		newIngredientCmd(a),
	)
	return &cli{root: root, app: a}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.Log.Enabled {
		closeLog, err := log.Init(cfg.Log.Path)
		if err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
		a.closeLog = closeLog
		level, _ := log.ParseLevel(cfg.Log.Level)
		log.SetMinLevel(level)
	}

	store, err := nutrition.OpenStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.store = store

	ctx := cmd.Context()
	if err := a.seedCatalog(ctx); err != nil {
		return err
	}

	a.reg = nutrition.NewRegistry()
	store.Install(a.reg)
	a.promReg = prometheus.NewRegistry()
	a.sys, err = nutrition.NewUnitSystemFromRegistry(ctx, a.reg, nutrition.WithMetrics(nutrition.NewMetrics(a.promReg)))
	if err != nil {
		return err
	}
	log.Debug(log.CatCLI, "command ready", "cmd", cmd.CommandPath(), "database", cfg.Database)
	return nil
}

// seedCatalog imports the configured catalog into an empty database.
func (a *app) seedCatalog(ctx context.Context) error {
	pairs, err := a.store.ConversionPairs(ctx)
	if err != nil {
		return err
	}
	if len(pairs) > 0 {
		return nil
	}
	cat, err := a.loadConfiguredCatalog()
	if err != nil {
		return err
	}
	return a.store.ImportCatalog(ctx, cat)
}

func (a *app) loadConfiguredCatalog() (*nutrition.CatalogFile, error) {
	if a.cfg.Catalog == "" {
		return nutrition.DefaultCatalog()
	}
	return nutrition.LoadCatalogFile(a.cfg.Catalog)
}

// reload drops every cached value after the catalog changed underneath.
func (a *app) reload(ctx context.Context) error {
	a.reg.Reset()
	global, err := a.reg.GlobalConversions(ctx)
	if err != nil {
		return err
	}
	a.sys.ReloadGlobal(global)
	return nil
}

func (a *app) close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
	return err
}

func writeMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			fmt.Fprintf(out, "%s %g\n", name, m.GetCounter().GetValue())
		}
	}
	return nil
}

// unit resolves a unit by name through the registry.
func (a *app) unit(ctx context.Context, name string) (*nutrition.Unit, error) {
	return a.reg.Unit(ctx, name)
}

// ingredientConversions returns the conversions of the named ingredient, or
// nothing when name is empty.
func (a *app) ingredientConversions(ctx context.Context, name string) ([]*nutrition.UnitConversion, error) {
	if name == "" {
		return nil, nil
	}
	ing, err := a.reg.Ingredient(ctx, name)
	if err != nil {
		return nil, err
	}
	return ing.Conversions(), nil
}
