package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-assessor/internal/assessment"
	"github.com/spigell/cv-assessor/internal/export"
	"github.com/spigell/cv-assessor/internal/extraction"
	"github.com/spigell/cv-assessor/internal/logger"
	"github.com/spigell/cv-assessor/internal/store"
)

// review shows the extraction outcome and lets the operator accept it,
// inspect it or fall back to the full document.
func review(out io.Writer, in extraction.Input, res extraction.Result, log *zap.Logger) (extraction.Result, error) {
	for {
		log.Info("role requirements extracted",
			logger.Strategy(res.Strategy),
			zap.Bool("low_confidence", res.LowConfidence),
			zap.Int("segments", len(res.Segments)),
			zap.Int("length", len([]rune(res.Text))),
		)

		_, action, err := prompt.Run()
		if err != nil {
			return res, err
		}

		switch action {
		case PromptProceed:
			return res, nil
		case PromptShowText:
			fmt.Fprintln(out, res.Text)
		case PromptShowAttempts:
			printAttempts(out, res.Attempts)
		case PromptFullDocument:
			res = extraction.Override(res, in.Text)
		case PromptAbort:
			return res, errExit
		default:
			return res, fmt.Errorf("invalid action: %s", action)
		}
	}
}

func printAttempts(out io.Writer, attempts []extraction.Attempt) {
	for _, a := range attempts {
		line := fmt.Sprintf("%-10s %-8s segments=%d length=%d", a.Strategy, a.Outcome, a.Segments, a.Length)
		if a.Reason != "" {
			line += " reason=" + a.Reason
		}
		fmt.Fprintln(out, line)
	}
}

func report(log *zap.Logger, result assessment.Run) {
	for _, rec := range result.Records {
		fields := []zap.Field{
			logger.Candidate(rec.CandidateID),
			zap.Int("rank", rec.Rank),
			zap.String("status", string(rec.Status)),
		}
		if rec.Score != nil {
			fields = append(fields,
				zap.Float64("score", *rec.Score),
				zap.String("fit_level", rec.FitLevel),
				zap.String("score_source", string(rec.ScoreSource)),
			)
		}
		if rec.Error != "" {
			fields = append(fields, zap.String("error", rec.Error))
		}
		log.Info("candidate result", fields...)
	}
}

// save writes the configured outputs. Failures are logged; the ranking was
// already reported.
func save(ctx context.Context, log *zap.Logger, config *Config, result assessment.Run) {
	if path := strings.TrimSpace(config.Output.JSON); path != "" {
		if err := export.WriteJSON(result, path); err != nil {
			log.Error("writing json output", zap.Error(err))
		} else {
			log.Info("json output written", zap.String("filename", path))
		}
	}

	if path := strings.TrimSpace(config.Output.XLSX); path != "" {
		written, err := export.WriteXLSX(result, path)
		if err != nil {
			log.Error("writing xlsx output", zap.Error(err))
		} else {
			log.Info("xlsx output written", zap.String("filename", written))
		}
	}

	if !config.History.Enabled || viper.GetBool("history.disabled") {
		return
	}
	history, err := store.Open(ctx, config.History.Path)
	if err != nil {
		log.Error("opening history", zap.Error(err))
		return
	}
	defer history.Close()

	if err := history.SaveRun(ctx, result); err != nil {
		log.Error("saving run to history", zap.Error(err))
		return
	}
	log.Info("run recorded", zap.String(logger.FieldRunID, result.ID), zap.String("history", config.History.Path))
}
