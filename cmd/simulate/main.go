// Command simulate drives seeded synthetic respondents through the quiz
// service, filling the results collection and tallies with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ideogrid/internal/app"
	"ideogrid/internal/config"
	"ideogrid/internal/logging"
	"ideogrid/internal/model"
)

var (
	configPath string
	count      int
	seed       uint64
	variant    string
	skipRate   float64
	workers    int
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run synthetic respondents through the questionnaire",
	Long: `Start, answer and submit questionnaire sessions with seeded synthetic
respondents. Results are stored like real submissions, so the tallies
served by /v1/stats reflect them.`,
	SilenceUsage: true,
	RunE:         runSimulate,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "config.yaml", "Config file (missing file uses defaults)")
	rootCmd.Flags().IntVarP(&count, "count", "n", 100, "Number of respondents")
	rootCmd.Flags().Uint64Var(&seed, "seed", 1, "Base seed; respondent i uses seed+i")
	rootCmd.Flags().StringVar(&variant, "variant", "", "Questionnaire variant (default from config)")
	rootCmd.Flags().Float64Var(&skipRate, "skip-rate", 0.05, "Probability of trying to skip a question")
	rootCmd.Flags().IntVar(&workers, "workers", 8, "Concurrent respondents")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if count < 1 || workers < 1 {
		return fmt.Errorf("count and workers must be positive")
	}
	if skipRate < 0 || skipRate >= 1 {
		return fmt.Errorf("skip-rate must be in [0, 1)")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		// tokens never leave the process
		cfg.Auth.JWTSecret = "simulate"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	cat, err := a.Catalog.Load(ctx)
	if err != nil {
		return err
	}
	svc := a.Quiz

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < count; i++ {
		r := NewRespondent(seed+uint64(i), skipRate)
		g.Go(func() error {
			res, err := r.Run(gctx, svc, cat, variant)
			if err != nil {
				return fmt.Errorf("respondent %d: %w", i, err)
			}
			done.Add(1)
			logger.Debug("respondent submitted",
				zap.Int("respondent", i),
				zap.String("result", res.ID),
				zap.String("category", res.Category))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("simulation aborted", zap.Int64("submitted", done.Load()), zap.Error(err))
		return err
	}
	logger.Info("simulation complete", zap.Int64("submitted", done.Load()))

	for _, kind := range []model.TallyKind{model.TallyMacro, model.TallyCategory} {
		top, err := svc.Stats(ctx, kind, 10)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "top %s:\n", kind)
		for _, e := range top {
			fmt.Fprintf(cmd.OutOrStdout(), "  %2d. %-28s %d\n", e.Rank, e.Key, e.Count)
		}
	}
	return nil
}
