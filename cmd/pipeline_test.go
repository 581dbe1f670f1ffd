package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-assessor/internal/criteria"
	"github.com/spigell/cv-assessor/internal/extraction"
)

type stubOracle struct {
	proposal string
	err      error
	total    float64
}

func (s *stubOracle) Assess(context.Context, string, string) (string, error) { return "", nil }

func (s *stubOracle) ExtractRole(context.Context, string, string) (string, error) {
	return "", errors.New("not used")
}

func (s *stubOracle) ProposeCriteria(_ context.Context, _ string, total float64) (string, error) {
	s.total = total
	return s.proposal, s.err
}

func testConfig() *Config {
	return &Config{
		Mode:       criteria.ModeRole,
		Extraction: &ExtractionConfig{},
		Output:     &OutputConfig{},
		History:    &HistoryConfig{},
		AI:         &AIConfig{},
	}
}

func TestBuildCriteriaFromOracle(t *testing.T) {
	oracle := &stubOracle{proposal: `{"criteria": [{"name": "Hydrology", "weight": 50}, {"name": "Leadership", "weight": "30"}]}`}

	table, err := buildCriteria(context.Background(), testConfig(), oracle, "requirements", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 80.0, oracle.total)
	assert.InDelta(t, 100.0, table.Total(), 1e-9)
	require.Len(t, table.Criteria, 3)
	assert.Equal(t, criteria.GeneralContextName, table.Criteria[2].Name)
}

func TestBuildCriteriaFallsBackToDefaults(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	oracle := &stubOracle{err: errors.New("quota")}

	config := testConfig()
	config.Mode = criteria.ModeGeneral
	table, err := buildCriteria(context.Background(), config, oracle, "requirements", zap.New(core))
	require.NoError(t, err)

	assert.Len(t, table.Criteria, len(criteria.Defaults()))
	assert.InDelta(t, 100.0, table.Total(), 1e-9)
	assert.Equal(t, 1, logs.FilterMessage("falling back to default criteria").Len())
}

func TestBuildCriteriaFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	content := "mode: general\ncriteria:\n  - name: Experience\n    weight: 70\n  - name: Languages\n    weight: 30\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config := testConfig()
	config.CriteriaFile = path
	oracle := &stubOracle{err: errors.New("must not be called")}

	table, err := buildCriteria(context.Background(), config, oracle, "", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, criteria.ModeGeneral, table.Mode)
	assert.Len(t, table.Criteria, 2)
	assert.Zero(t, oracle.total)
}

func TestGeneralContextFollowsCriteriaFileMode(t *testing.T) {
	dir := t.TempDir()
	tender := filepath.Join(dir, "tender.txt")
	require.NoError(t, os.WriteFile(tender, []byte("Terms of reference for the water programme.\n"+
		"Key Expert 1: Team Leader\nMaster degree in hydrology and fifteen years of experience leading water supply projects.\n"), 0o600))
	file := filepath.Join(dir, "criteria.yaml")
	require.NoError(t, os.WriteFile(file, []byte("mode: general\ncriteria:\n  - name: Hydrology\n    weight: 100\n"), 0o600))

	config := testConfig()
	config.Tender = tender
	config.Role = "KE1"

	in, res, _, err := extractRole(context.Background(), config, nil, zap.NewNop())
	require.NoError(t, err)

	table, err := buildCriteria(context.Background(), config, nil, res.Text, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, criteria.ModeRole, table.Mode)
	assert.Contains(t, generalContext(in, res, table), "water programme")

	// The file pins general mode even though the configuration says role.
	config.CriteriaFile = file
	table, err = buildCriteria(context.Background(), config, nil, res.Text, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, criteria.ModeGeneral, table.Mode)
	assert.Empty(t, generalContext(in, res, table))
}

func TestExtractRoleFromTextTender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tender.txt")
	tender := "Terms of reference for the water programme.\n\n" +
		"Key Expert 1: Team Leader\n" +
		"Master degree in hydrology and fifteen years of experience leading water supply projects.\n\n" +
		"Key Expert 2: Engineer\n" +
		"Degree in civil engineering.\n"
	require.NoError(t, os.WriteFile(path, []byte(tender), 0o600))

	config := testConfig()
	config.Tender = path
	config.Role = "KE1"

	_, res, chain, err := extractRole(context.Background(), config, nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.NotEqual(t, extraction.StrategyDocument, res.Strategy)
	assert.Contains(t, res.Text, "fifteen years")
	assert.NotContains(t, res.Text, "civil engineering")
	assert.Len(t, chain.Describe(), 3)
}

func TestExtractRoleRequiresInputs(t *testing.T) {
	_, _, _, err := extractRole(context.Background(), testConfig(), nil, zap.NewNop())
	require.Error(t, err)
}

func TestExtractRoleRequirementsOverride(t *testing.T) {
	dir := t.TempDir()
	tender := filepath.Join(dir, "tender.txt")
	override := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(tender, []byte("Nothing about experts in this document at all."), 0o600))
	require.NoError(t, os.WriteFile(override, []byte("  Ten years in irrigation.  "), 0o600))

	config := testConfig()
	config.Tender = tender
	config.Role = "Key Expert 3"
	config.RequirementsFile = override

	_, res, _, err := extractRole(context.Background(), config, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, extraction.StrategyOverride, res.Strategy)
	assert.Equal(t, "Ten years in irrigation.", res.Text)
}

func TestPrintAttempts(t *testing.T) {
	var buf bytes.Buffer
	printAttempts(&buf, []extraction.Attempt{
		{Strategy: "structural", Outcome: "skipped", Reason: "document has no styles"},
		{Strategy: "regex", Outcome: "accepted", Segments: 1, Length: 120},
	})

	assert.Equal(t,
		"structural skipped  segments=0 length=0 reason=document has no styles\n"+
			"regex      accepted segments=1 length=120\n",
		buf.String())
}

func TestDetails(t *testing.T) {
	assert.Equal(t, "", details(extraction.Status{Name: "regex", Enabled: true}))
	assert.Equal(t, " (reason=off)", details(extraction.Status{Name: "oracle", Reason: "off"}))
}
