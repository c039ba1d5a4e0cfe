package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tendorai/avp/internal/config"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "avp",
		Short:         "AI visibility reports and mention scans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "avp.yaml", "config file")

	load := func() (*config.Config, error) {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("No .env file found, using environment variables")
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		setupLogging(cfg.Logging)
		return cfg, nil
	}

	root.AddCommand(
		serveCMD(load),
		scanCMD(load),
		reportsCMD(load),
		generateCMD(load),
		configCMD(&cfgPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type loader func() (*config.Config, error)

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Format == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
