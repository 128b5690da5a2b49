package main

import (
	"github.com/benoitkugler/oklabel/config"
	"github.com/benoitkugler/oklabel/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFiles []string
	overlay  map[string]string
	debug    bool
)

// RootCmd is the oklabel command.
var RootCmd = &cobra.Command{
	Use:   "oklabel",
	Short: "Render label markups and print them at their physical size",
	Long: `oklabel renders label markup documents (a physical stage plus
text, image, barcode, line and rect elements) to rasters sized to the
exact label dimensions, and prints them on pages of the same size.`,
	SilenceUsage: true,
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringSliceVar(&envFiles, "env", nil, "environment files to load (default .env)")
	flags.StringToStringVar(&overlay, "set", nil, "configuration overlay, as key=value (apiBaseUrl, username, printOutput, ...)")
	flags.BoolVarP(&debug, "debug", "d", false, "enable debug logs")
}

// setup loads the configuration and builds the logger.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.Merge(overlay); err != nil {
		return cfg, nil, err
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, logger.New(cfg.LogFile, cfg.Debug), nil
}
