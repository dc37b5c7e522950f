package main

import (
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/miscreaders/internal/config"
	"github.com/Zuo-Peng/miscreaders/internal/logging"
	"github.com/Zuo-Peng/miscreaders/pkg/readers"
)

var version = "dev"

// globals holds the persistent flags and what PersistentPreRunE derives from them.
type globals struct {
	configPath string
	logLevel   string
	logJSON    bool

	cfg    *config.Config
	logger *charmlog.Logger
}

func (g *globals) setup(cmd *cobra.Command) error {
	var err error
	if g.configPath != "" {
		g.cfg, err = config.LoadFile(g.configPath)
	} else {
		g.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := g.cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = g.logLevel
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.JSON = g.logJSON || g.cfg.LogJSON
	g.logger = logging.Setup(logCfg)
	return nil
}

// readerOptions turns the loaded config into reader options.
func (g *globals) readerOptions() []readers.Option {
	return []readers.Option{readers.FromConfig(g.cfg), readers.WithLogger(g.logger)}
}

func main() {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "miscr",
		Short:   "Read app usage and habit exports into daily tables",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default ~/.config/miscr/config.toml)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "Log as JSON")

	rootCmd.AddCommand(
		showCmd(g),
		totalsCmd(g),
		browseCmd(g),
		doctorCmd(g),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
