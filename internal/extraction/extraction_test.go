package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-assessor/internal/document"
	"github.com/spigell/cv-assessor/internal/segment"
)

type stubOracle struct {
	extract     string
	err         error
	calls       int
	lastRole    string
	lastDocText string
}

func (s *stubOracle) Assess(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubOracle) ExtractRole(_ context.Context, doc, role string) (string, error) {
	s.calls++
	s.lastRole = role
	s.lastDocText = doc
	return s.extract, s.err
}

func (s *stubOracle) ProposeCriteria(context.Context, string, float64) (string, error) {
	return "", errors.New("not implemented")
}

const plainTender = `Terms of Reference
Key Expert 1: Team Leader
Master degree in public administration or equivalent.
Key Expert 2: Procurement Expert
At least 8 years in public procurement reform.
Key Expert 1 (continued)
Fluency in English and experience leading donor-funded teams.
Key Expert 3: Legal Expert
Law degree with 5 years of legislative drafting.
Annex II: Budget breakdown
Lump sum and reimbursable items.`

func plain(text string) document.Source {
	return document.NewText("tender.txt", text)
}

func bold(text string) document.Paragraph {
	return document.Paragraph{Runs: []document.Run{{Text: text, Bold: true}}}
}

func para(text string) document.Paragraph {
	return document.Paragraph{Runs: []document.Run{{Text: text}}}
}

func outcomes(r Result) []string {
	out := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		out = append(out, a.Strategy+":"+a.Outcome)
	}
	return out
}

func TestChainStructural(t *testing.T) {
	src := document.NewStyled("tender.docx", []document.Paragraph{
		bold("Key Expert 1: Team Leader"),
		para("Must have 10 years experience."),
		bold("Key Expert 2: Technical Expert"),
		para("Must have 5 years experience."),
	}, nil)

	oracle := &stubOracle{}
	res, err := New(Config{}, Deps{Oracle: oracle}).Extract(context.Background(), NewInput(src, "Key Expert 1"))
	require.NoError(t, err)

	assert.Equal(t, StrategyStructural, res.Strategy)
	assert.Equal(t, "Key Expert 1: Team Leader\nMust have 10 years experience.", res.Text)
	assert.False(t, res.LowConfidence)
	assert.NoError(t, res.Err())
	assert.Len(t, res.Segments, 1)
	assert.Equal(t, []string{"structural:accepted"}, outcomes(res))
	assert.Zero(t, oracle.calls)
}

func TestChainRegexOnPlainText(t *testing.T) {
	src := plain("Key Expert 1: Team Leader\nMust have 10 years experience.\nKey Expert 2: Technical Expert\nMust have 5 years experience.")

	res, err := New(Config{}, Deps{}).Extract(context.Background(), NewInput(src, "KE1"))
	require.NoError(t, err)

	assert.Equal(t, StrategyRegex, res.Strategy)
	assert.Equal(t, "Key Expert 1: Team Leader Must have 10 years experience.", res.Text)
	assert.Equal(t, []string{"structural:skipped", "regex:accepted"}, outcomes(res))
	assert.Equal(t, "source carries no style information", res.Attempts[0].Reason)
}

func TestChainRegexRepeatedRoleAndAnnex(t *testing.T) {
	res, err := New(Config{}, Deps{}).Extract(context.Background(), NewInput(plain(plainTender), "key expert1"))
	require.NoError(t, err)

	require.Equal(t, StrategyRegex, res.Strategy)
	require.Len(t, res.Segments, 2)
	assert.Contains(t, res.Text, "public administration")
	assert.Contains(t, res.Text, "donor-funded teams")
	assert.Contains(t, res.Text, segment.Separator)
	for _, foreign := range []string{"Procurement Expert", "Key Expert 3", "legislative drafting", "Annex", "Lump sum"} {
		assert.NotContains(t, res.Text, foreign)
	}

	lastRole, err := New(Config{}, Deps{}).Extract(context.Background(), NewInput(plain(plainTender), "KE 3"))
	require.NoError(t, err)
	assert.Equal(t, "Key Expert 3: Legal Expert Law degree with 5 years of legislative drafting.", lastRole.Text)
}

func TestChainRegexNumberBoundary(t *testing.T) {
	src := plain("Key Expert 12: Economist with a background in public finance.\nKey Expert 1: Team Leader with broad experience in reform projects.\nKey Expert 10: Statistician")

	res, err := New(Config{}, Deps{}).Extract(context.Background(), NewInput(src, "Key Expert 1"))
	require.NoError(t, err)

	assert.Equal(t, StrategyRegex, res.Strategy)
	assert.Equal(t, "Key Expert 1: Team Leader with broad experience in reform projects.", res.Text)
}

func TestChainRegexNameBased(t *testing.T) {
	src := plain("Team Leader\nAt least 15 years of experience in justice sector reform.\nKey Expert 2: Legal drafting")

	res, err := New(Config{}, Deps{}).Extract(context.Background(), NewInput(src, "Team Leader"))
	require.NoError(t, err)

	assert.Equal(t, StrategyRegex, res.Strategy)
	assert.Equal(t, "Team Leader At least 15 years of experience in justice sector reform.", res.Text)
}

func TestChainRegexIgnoresCrossReferences(t *testing.T) {
	src := plain("KE1: Team Leader\nMust have 10 years of experience in reform projects.\n" +
		"KE2: Procurement Expert\nShall report to Key Expert 1 and hold a degree in procurement law with 8 years of practice.")

	res, err := New(Config{}, Deps{}).Extract(context.Background(), NewInput(src, "Key Expert 1"))
	require.NoError(t, err)

	assert.Equal(t, StrategyRegex, res.Strategy)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, "KE1: Team Leader Must have 10 years of experience in reform projects.", res.Text)
	assert.NotContains(t, res.Text, "procurement law")

	// A mention of another role in passing does not cut the section short.
	src = plain("Key Expert 1: Team Leader\nWorks with Key Expert 2 on the annual reform plan.\nKey Expert 2: Procurement Expert")
	res, err = New(Config{}, Deps{}).Extract(context.Background(), NewInput(src, "KE1"))
	require.NoError(t, err)
	assert.Equal(t, "Key Expert 1: Team Leader Works with Key Expert 2 on the annual reform plan.", res.Text)
}

func TestChainFallsBackToOracle(t *testing.T) {
	oracle := &stubOracle{extract: "  Team Leader: 15 years of experience in EU funded projects.  "}
	src := plain("The consultant will provide a team leader and two specialists for the duration of the project.")

	res, err := New(Config{}, Deps{Oracle: oracle}).Extract(context.Background(), NewInput(src, "Key Expert 1"))
	require.NoError(t, err)

	assert.Equal(t, StrategyOracle, res.Strategy)
	assert.Equal(t, "Team Leader: 15 years of experience in EU funded projects.", res.Text)
	assert.Equal(t, "Key Expert 1", oracle.lastRole)
	assert.Equal(t, []string{"structural:skipped", "regex:empty", "oracle:accepted"}, outcomes(res))
}

func TestChainFullDocumentFallback(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	tests := []struct {
		name   string
		oracle *stubOracle
		want   []string
	}{
		{name: "oracle marker", oracle: &stubOracle{extract: "ROLE NOT FOUND"}, want: []string{"structural:skipped", "regex:empty", "oracle:empty", "document:accepted"}},
		{name: "oracle failure", oracle: &stubOracle{err: errors.New("quota exceeded")}, want: []string{"structural:skipped", "regex:empty", "oracle:failed", "document:accepted"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := New(Config{}, Deps{Oracle: tt.oracle, Logger: zap.New(core)})
			res, err := chain.Extract(context.Background(), NewInput(plain(plainTender), "Key Expert 4"))
			require.NoError(t, err)

			assert.Equal(t, StrategyDocument, res.Strategy)
			assert.True(t, res.LowConfidence)
			assert.True(t, errors.Is(res.Err(), ErrRoleNotFound))
			assert.Equal(t, strings.Join(strings.Split(plainTender, "\n"), "\n"), res.Text)
			assert.Equal(t, tt.want, outcomes(res))
		})
	}

	assert.NotEmpty(t, observed.FilterMessage("no strategy located the role, using the full document").All())
	assert.Len(t, observed.FilterMessage("extraction strategy failed").All(), 1)
}

func TestChainDisabledStrategies(t *testing.T) {
	oracle := &stubOracle{extract: "KE1 passage from the oracle"}
	chain := New(Config{Disabled: []string{"regex", " structural "}}, Deps{Oracle: oracle})

	res, err := chain.Extract(context.Background(), NewInput(plain(plainTender), "Key Expert 1"))
	require.NoError(t, err)

	assert.Equal(t, StrategyOracle, res.Strategy)
	assert.Equal(t, []string{"structural:disabled", "regex:disabled", "oracle:accepted"}, outcomes(res))

	statuses := chain.Describe()
	require.Len(t, statuses, 3)
	assert.False(t, statuses[0].Enabled)
	assert.Equal(t, "disabled in configuration", statuses[1].Reason)
	assert.True(t, statuses[2].Enabled)
	assert.Equal(t, "40", statuses[0].Details["min_length"])
}

func TestChainIsIdempotent(t *testing.T) {
	chain := New(Config{}, Deps{})

	first, err := chain.Extract(context.Background(), NewInput(plain(plainTender), "Key Expert 1"))
	require.NoError(t, err)
	second, err := chain.Extract(context.Background(), NewInput(plain(plainTender), "Key Expert 1"))
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Strategy, second.Strategy)
}

func TestChainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}, Deps{}).Extract(ctx, NewInput(plain(plainTender), "Key Expert 1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOverride(t *testing.T) {
	res, err := New(Config{}, Deps{}).Extract(context.Background(), NewInput(plain(plainTender), "Key Expert 4"))
	require.NoError(t, err)

	edited := Override(res, "  Team leader with 10 years of experience.  ")

	assert.Equal(t, StrategyOverride, edited.Strategy)
	assert.Equal(t, "Team leader with 10 years of experience.", edited.Text)
	assert.False(t, edited.LowConfidence)
	assert.NoError(t, edited.Err())
	assert.Len(t, edited.Attempts, len(res.Attempts)+1)

	assert.Equal(t, StrategyDocument, res.Strategy)
	assert.True(t, res.LowConfidence)
}

func TestIsErrorMarker(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{text: "", want: true},
		{text: "ROLE NOT FOUND", want: true},
		{text: "Error: document too long", want: true},
		{text: "N/A", want: true},
		{text: "None.", want: true},
		{text: "Not found", want: true},
		{text: "I cannot locate that role in the document.", want: true},
		{text: "The answer is: ROLE NOT FOUND", want: true},
		{text: "Key Expert 1: Team Leader", want: false},
		{text: "Nonetheless, the Team Leader must hold a master degree in law.", want: false},
		{text: "Error-free reporting to the steering committee is expected.", want: false},
		{text: "None of the tasks may be subcontracted without approval.", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsErrorMarker(tt.text), tt.text)
	}
}
