package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/LdDl/osm2act"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var settings = viper.New()

var rootCmd = &cobra.Command{
	Use:   "osm2act",
	Short: "Extract activity locations (facilities) from OpenStreetMap data",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := settings.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
		if _, err := osm2act.InitLogger(settings.GetString("log-level"), settings.GetString("log-format")); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate CONFIG",
	Short: "Validate activity configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := osm2act.LoadConfig(args[0])
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		cfg.LogSummary(zap.L())
		zap.L().Info("Config is valid", zap.String("file", args[0]))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run CONFIG INPUT OUTPUT",
	Short: "Build facilities from OSM file and write them to OUTPUT_<crs>.<format extension>",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := osm2act.LoadConfig(args[0])
		if err != nil {
			return err
		}
		opts := osm2act.RunOptions{
			InputFile:  args[1],
			OutputName: args[2],
			Format:     settings.GetString("format"),
			CRS:        settings.GetString("crs"),
			SingleUse:  settings.GetBool("single-use"),
			Lazy:       settings.GetBool("lazy"),
			Workers:    settings.GetInt("workers"),
		}
		files, err := osm2act.Run(cfg, opts, zap.L())
		if err != nil {
			return err
		}
		for _, fname := range files {
			fmt.Println(fname)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level: debug / info / warn / error")
	rootCmd.PersistentFlags().String("log-format", "console", "Logging format: console / json")

	runCmd.Flags().StringP("format", "f", osm2act.FORMAT_GEOJSON, "Output format. Expected values: geojson / csv / geopackage")
	runCmd.Flags().StringP("crs", "c", osm2act.CRS_WEB_MERCATOR, "Working CRS. Expected values: epsg:3857 / epsg:4326. Areas, infill sizes and distances are in units of this CRS")
	runCmd.Flags().BoolP("single-use", "s", false, "Split multi-activity facilities into single-activity records")
	runCmd.Flags().BoolP("lazy", "l", false, "Do not search donors for already labeled facilities (suppresses multi-use)")
	runCmd.Flags().Int("workers", 0, "Number of goroutines for features calculation (0 means number of CPUs)")

	rootCmd.AddCommand(validateCmd, runCmd)
}

func main() {
	// Settings could be provided via .env file as well
	_ = godotenv.Load()
	settings.SetEnvPrefix("OSM2ACT")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
