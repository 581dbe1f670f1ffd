package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-assessor/internal/logger"
	"github.com/spigell/cv-assessor/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded assessment runs",
	Run: func(cmd *cobra.Command, _ []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		withHistory(func(ctx context.Context, history *store.Store, logger *zap.Logger) error {
			runs, err := history.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %s  %-24s %-10s %d/%d\n",
					r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Role, r.Strategy, r.Assessed, r.Total)
			}
			logger.Debug("history listed", zap.Int("count", len(runs)))
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Print a recorded run as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withHistory(func(ctx context.Context, history *store.Store, _ *zap.Logger) error {
			run, err := history.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			pretty, err := json.MarshalIndent(run, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "number of runs to list, 0 for all")
}

func withHistory(fn func(ctx context.Context, history *store.Store, logger *zap.Logger) error) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	history, err := store.Open(ctx, config.History.Path)
	if err != nil {
		logger.Fatal("opening history", zap.Error(err), zap.String("path", config.History.Path))
	}
	defer history.Close()

	if err := fn(ctx, history, logger); err != nil {
		logger.Fatal("reading history", zap.Error(err))
	}
}
