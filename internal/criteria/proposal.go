package criteria

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/cv-assessor/internal/utils"
)

// ParseProposal decodes criteria proposed by the oracle. Both
// {"criteria": [...]} and a bare list are accepted; weights given as strings
// are converted. Entries without a name are dropped.
func ParseProposal(raw string) ([]Criterion, error) {
	cleaned := utils.ExtractJSON(raw)

	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse criteria proposal: %w", err)
	}

	if obj, ok := data.(map[string]any); ok {
		data = obj["criteria"]
	}
	items, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("parse criteria proposal: expected a list of criteria")
	}

	out := make([]Criterion, 0, len(items))
	for i, item := range items {
		var c Criterion
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &c,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(item); err != nil {
			return nil, fmt.Errorf("decode criterion %d: %w", i, err)
		}
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}
