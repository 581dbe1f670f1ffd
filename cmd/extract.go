package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-assessor/internal/ai"
	"github.com/spigell/cv-assessor/internal/extraction"
	"github.com/spigell/cv-assessor/internal/logger"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Print the requirements extracted for a role without scoring anybody",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, map[string]string{
			"tender": "tender",
			"role":   "role",
		})
	},
	Run: func(cmd *cobra.Command, _ []string) {
		extract(cmd)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("tender", "t", "", "tender or job description document")
	extractCmd.Flags().StringP("role", "r", "", "role to extract")
	extractCmd.Flags().Bool("no-oracle", false, "never ask the oracle, use local strategies only")
}

func extract(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	var oracle ai.Oracle
	if cmd.Flag("no-oracle").Value.String() == "false" {
		o, closeOracle, err := newOracle(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("oracle strategy unavailable", zap.Error(err))
		} else {
			oracle = o
			defer closeOracle() //nolint:errcheck
		}
	}

	_, res, chain, err := extractRole(ctx, config, oracle, logger)
	if err != nil {
		logger.Fatal("extracting role requirements", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	for _, st := range chain.Describe() {
		state := "enabled"
		if !st.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(out, "# strategy %s: %s%s\n", st.Name, state, details(st))
	}
	printAttempts(out, res.Attempts)
	fmt.Fprintf(out, "# role: %s\n# strategy: %s\n# low confidence: %t\n\n", res.Role, res.Strategy, res.LowConfidence)
	fmt.Fprintln(out, res.Text)
}

func details(st extraction.Status) string {
	var parts []string
	if st.Reason != "" {
		parts = append(parts, "reason="+st.Reason)
	}
	for k, v := range st.Details {
		parts = append(parts, k+"="+v)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
