package criteria

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk criteria format.
//
//	mode: role
//	criteria:
//	  - name: Team leadership
//	    weight: 30
//	    rationale: Led multi-country teams
type File struct {
	Mode     string      `yaml:"mode"`
	Criteria []Criterion `yaml:"criteria"`
}

// LoadFile reads a criteria file. The mode is optional.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read criteria file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse criteria file %s: %w", path, err)
	}
	if len(f.Criteria) == 0 {
		return File{}, fmt.Errorf("criteria file %s: %w", path, ErrEmpty)
	}
	return f, nil
}

// WriteFile stores a table in the format LoadFile reads.
func WriteFile(path string, table Table) error {
	data, err := yaml.Marshal(File{Mode: table.Mode, Criteria: table.Criteria})
	if err != nil {
		return fmt.Errorf("marshal criteria: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write criteria file: %w", err)
	}
	return nil
}
