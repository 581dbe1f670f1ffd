package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-assessor/internal/assessment"
	"github.com/spigell/cv-assessor/internal/candidate"
	"github.com/spigell/cv-assessor/internal/logger"
)

const (
	PromptProceed      = "Proceed"
	PromptShowText     = "Show extracted text"
	PromptShowAttempts = "Show extraction attempts"
	PromptFullDocument = "Use full document"
	PromptAbort        = "Abort"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Score candidates against these requirements?",
	Items: []string{PromptProceed, PromptShowText, PromptShowAttempts, PromptFullDocument, PromptAbort},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract the role requirements and score every candidate CV",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, map[string]string{
			"tender":       "tender",
			"role":         "role",
			"candidates":   "candidates",
			"mode":         "mode",
			"criteria":     "criteria-file",
			"requirements": "requirements-file",
			"workers":      "workers",
			"timeout":      "timeout",
			"xlsx":         "output.xlsx",
			"output-json":  "output.json",
			"no-history":   "history.disabled",
		})
	},
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("tender", "t", "", "tender or job description document (.docx, .pdf, .doc, .txt, .md)")
	runCmd.Flags().StringP("role", "r", "", "role to assess, e.g. \"Key Expert 1\" or \"Team Leader\"")
	runCmd.Flags().StringP("candidates", "c", "", "folder with candidate CVs")
	runCmd.Flags().String("mode", "role", "criteria mode: role or general")
	runCmd.Flags().String("criteria", "", "YAML file with evaluation criteria")
	runCmd.Flags().String("requirements", "", "file whose text replaces the extracted requirements")
	runCmd.Flags().Int("workers", assessment.DefaultWorkers, "concurrent oracle calls")
	runCmd.Flags().Duration("timeout", assessment.DefaultTimeout, "timeout of a single oracle call")
	runCmd.Flags().String("xlsx", "", "write the ranking to this xlsx file")
	runCmd.Flags().String("output-json", "", "write the full run to this JSON file")
	runCmd.Flags().Bool("no-history", false, "do not record the run in the history database")
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before scoring")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
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

	logger.Info("starting the cv-assessor", zap.String("version", resolveVersion()))

	if strings.TrimSpace(config.Candidates) == "" {
		logger.Fatal("candidates folder is required (--candidates or 'candidates' in config)")
	}

	oracle, closeOracle, err := newOracle(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building the scoring oracle", zap.Error(err))
	}
	defer closeOracle() //nolint:errcheck

	in, res, _, err := extractRole(ctx, config, oracle, logger)
	if err != nil {
		logger.Fatal("extracting role requirements", zap.Error(err))
	}

	if cmd.Flag("yes").Value.String() == "false" {
		res, err = review(cmd.OutOrStdout(), in, res, logger)
		if err != nil {
			if errors.Is(err, errExit) {
				logger.Info("exiting", zap.String("reason", "aborted from prompt"))
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	table, err := buildCriteria(ctx, config, oracle, res.Text, logger)
	if err != nil {
		logger.Fatal("building criteria", zap.Error(err))
	}
	for _, c := range table.Criteria {
		logger.Debug("criterion", zap.String("name", c.Name), zap.Float64("weight", c.Weight))
	}

	candidates, err := candidate.List(config.Candidates)
	if err != nil {
		logger.Fatal("listing candidates", zap.Error(err))
	}

	runner := assessment.NewRunner(oracle, logger, assessment.Options{
		Workers: config.Workers,
		Timeout: config.Timeout,
	})
	result, err := runner.Run(ctx, assessment.Job{
		Role:          res.Role.String(),
		Strategy:      res.Strategy,
		LowConfidence: res.LowConfidence,
		Requirements:  assessment.BuildRequirements(res.Text, generalContext(in, res, table), table),
		Table:         table,
		Candidates:    candidates,
	})
	switch {
	case errors.Is(err, assessment.ErrNothingScored):
		logger.Warn("no candidate was scored", zap.Error(err))
	case err != nil:
		logger.Fatal("assessing candidates", zap.Error(err))
	}

	report(logger, result)
	save(ctx, logger, config, result)

	if result.Incomplete() {
		logger.Warn("assessment incomplete",
			zap.Int("assessed", result.Assessed),
			zap.Int("total", result.Total),
		)
	}
}
