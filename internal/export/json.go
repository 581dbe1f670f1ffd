package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/cv-assessor/internal/assessment"
)

// WriteJSON dumps the run, including raw oracle reports, as indented JSON.
func WriteJSON(run assessment.Run, path string) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
