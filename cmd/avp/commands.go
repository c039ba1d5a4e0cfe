package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/metrics"
	"github.com/tendorai/avp/internal/models"
	"github.com/tendorai/avp/internal/pipeline"
)

func scanCMD(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run the weekly mention scan once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sum, err := a.scanner.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "groups=%d failed=%d records=%d mentioned=%d inserted=%d\n",
				sum.Groups, sum.FailedGroups, sum.Records, sum.Mentioned, sum.Inserted)
			return nil
		},
	}
}

func reportsCMD(load loader) *cobra.Command {
	var tier string

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Run the scheduled report job for one tier once",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := models.Tier(tier)
			if t != models.TierStarter && t != models.TierPro {
				return fmt.Errorf("unsupported tier %q (starter or pro)", tier)
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sum, err := a.runner.Run(ctx, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "success=%d skipped=%d errors=%d\n", sum.Success, sum.Skipped, sum.Errors)
			return nil
		},
	}
	cmd.Flags().StringVar(&tier, "tier", string(models.TierPro), "vendor tier: starter or pro")

	return cmd
}

func generateCMD(load loader) *cobra.Command {
	var (
		req models.ReportRequest
		out string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and store one report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.pipeline.Generate(context.Background(), pipeline.Request{
				Triple:     req.Triple(),
				ReportType: req.ReportType,
				Source:     metrics.SourceCLI,
			})
			if err != nil {
				return err
			}

			if out != "" {
				if err := os.WriteFile(out, res.PDF, 0o644); err != nil {
					return fmt.Errorf("failed to write PDF: %w", err)
				}
				log.Info().Str("path", out).Int("bytes", len(res.PDF)).Msg("PDF written")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id=%s score=%d url=%s\n", res.ID, res.Report.Score, res.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.CompanyName, "company", "", "company name")
	cmd.Flags().StringVar(&req.Category, "category", "", "category slug")
	cmd.Flags().StringVar(&req.City, "city", "", "city")
	cmd.Flags().StringVar(&req.Email, "email", "", "contact email stored with the report")
	cmd.Flags().StringVar((*string)(&req.ReportType), "type", string(models.ReportTypeFull), "report type: basic or full")
	cmd.Flags().StringVar(&out, "out", "", "also write the PDF to this file")
	cmd.MarkFlagRequired("company")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("city")

	return cmd
}

func configCMD(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(*cfgPath); err == nil {
				return fmt.Errorf("%s already exists", *cfgPath)
			}
			if err := config.GenerateSample(*cfgPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", *cfgPath)
			return nil
		},
	})
	return cmd
}
