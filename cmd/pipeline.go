package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-assessor/internal/ai"
	"github.com/spigell/cv-assessor/internal/criteria"
	"github.com/spigell/cv-assessor/internal/document"
	"github.com/spigell/cv-assessor/internal/extraction"
)

// extractRole loads the tender and runs the extraction chain. A missing role
// is not an error: the result then carries the full document.
func extractRole(ctx context.Context, config *Config, oracle ai.Oracle, logger *zap.Logger) (extraction.Input, extraction.Result, *extraction.Chain, error) {
	if strings.TrimSpace(config.Tender) == "" {
		return extraction.Input{}, extraction.Result{}, nil, errors.New("tender document is required (--tender or 'tender' in config)")
	}
	if strings.TrimSpace(config.Role) == "" {
		return extraction.Input{}, extraction.Result{}, nil, errors.New("role is required (--role or 'role' in config)")
	}

	src, err := document.Load(ctx, config.Tender)
	if err != nil {
		return extraction.Input{}, extraction.Result{}, nil, err
	}

	chain := extraction.New(extraction.Config{
		Disabled:  config.Extraction.Disabled,
		MinLength: config.Extraction.MinSegmentLength,
	}, extraction.Deps{Logger: logger, Oracle: oracle})

	in := extraction.NewInput(src, config.Role)
	logger.Info("tender loaded",
		zap.String("tender", config.Tender),
		zap.Int("units", len(in.Units)),
		zap.Bool("styled", src.HasStyles()),
	)

	res, err := chain.Extract(ctx, in)
	if err != nil {
		return in, res, chain, err
	}
	if err := res.Err(); err != nil {
		logger.Warn("role requirements not isolated", zap.Error(err), zap.Bool("low_confidence", res.LowConfidence))
	}

	if path := strings.TrimSpace(config.RequirementsFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return in, res, chain, fmt.Errorf("read requirements file: %w", err)
		}
		res = extraction.Override(res, string(data))
		logger.Info("requirements replaced from file", zap.String("file", path))
	}

	return in, res, chain, nil
}

// buildCriteria returns the finalized table from the criteria file, the
// oracle or the built-in defaults, in that order.
func buildCriteria(ctx context.Context, config *Config, oracle ai.Oracle, requirements string, logger *zap.Logger) (criteria.Table, error) {
	mode := config.Mode

	if path := strings.TrimSpace(config.CriteriaFile); path != "" {
		file, err := criteria.LoadFile(path)
		if err != nil {
			return criteria.Table{}, err
		}
		// The file may pin its own mode.
		if file.Mode != "" {
			mode = file.Mode
		}
		logger.Info("criteria loaded from file", zap.String("file", path), zap.Int("count", len(file.Criteria)))
		return criteria.Finalize(mode, file.Criteria)
	}

	if oracle != nil {
		table, err := proposeCriteria(ctx, oracle, mode, requirements)
		if err == nil {
			logger.Info("criteria proposed by oracle", zap.Int("count", len(table.Criteria)))
			return table, nil
		}
		if ctx.Err() != nil {
			return criteria.Table{}, ctx.Err()
		}
		logger.Warn("falling back to default criteria", zap.Error(err))
	}

	return criteria.Finalize(mode, criteria.Defaults())
}

// generalContext returns the tender text that accompanies the role
// requirements. It follows the table's mode, which a criteria file may have
// pinned, so a general-mode table gets none.
func generalContext(in extraction.Input, res extraction.Result, table criteria.Table) string {
	if table.Mode == criteria.ModeGeneral {
		return ""
	}
	return extraction.GeneralContext(in, res, extraction.DefaultContextLength)
}

func proposeCriteria(ctx context.Context, oracle ai.Oracle, mode, requirements string) (criteria.Table, error) {
	total, err := criteria.TargetTotal(mode)
	if err != nil {
		return criteria.Table{}, err
	}
	raw, err := oracle.ProposeCriteria(ctx, requirements, total)
	if err != nil {
		return criteria.Table{}, err
	}
	list, err := criteria.ParseProposal(raw)
	if err != nil {
		return criteria.Table{}, err
	}
	return criteria.Finalize(mode, list)
}
