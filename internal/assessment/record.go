package assessment

import (
	"sort"
	"time"

	"github.com/spigell/cv-assessor/internal/score"
)

type Status string

const (
	StatusScored       Status = "scored"
	StatusUnparsed     Status = "unparsed"
	StatusOracleFailed Status = "oracle_failed"
	StatusUnreadable   Status = "unreadable"
)

// ScoreSource tells where a record's score came from.
type ScoreSource string

const (
	SourceCriteria  ScoreSource = "criteria"
	SourceReported  ScoreSource = "reported"
	SourceNarrative ScoreSource = "narrative"
)

// Record is the outcome for one candidate. Score is nil unless Status is
// StatusScored.
type Record struct {
	CandidateID string        `json:"candidate_id"`
	Score       *float64      `json:"score"`
	Status      Status        `json:"status"`
	ScoreSource ScoreSource   `json:"score_source,omitempty"`
	FitLevel    string        `json:"fit_level,omitempty"`
	RawReport   string        `json:"raw_report"`
	Report      *score.Report `json:"report,omitempty"`
	Error       string        `json:"error,omitempty"`
	Rank        int           `json:"rank"`
	Duration    time.Duration `json:"duration"`
}

func (r Record) Scored() bool {
	return r.Status == StatusScored && r.Score != nil
}

var statusOrder = map[Status]int{
	StatusScored:       0,
	StatusUnparsed:     1,
	StatusOracleFailed: 2,
	StatusUnreadable:   3,
}

// Rank orders records in place: scored ones by descending score, then
// unparsed, failed and unreadable ones. Ties break on candidate id. Only
// scored records get a rank.
func Rank(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if oa, ob := order(a), order(b); oa != ob {
			return oa < ob
		}
		if a.Scored() && b.Scored() && *a.Score != *b.Score {
			return *a.Score > *b.Score
		}
		return a.CandidateID < b.CandidateID
	})

	rank := 0
	for i := range records {
		records[i].Rank = 0
		if records[i].Scored() {
			rank++
			records[i].Rank = rank
		}
	}
}

func order(r Record) int {
	if r.Status == StatusScored && r.Score == nil {
		return statusOrder[StatusUnparsed]
	}
	if o, ok := statusOrder[r.Status]; ok {
		return o
	}
	return len(statusOrder)
}
