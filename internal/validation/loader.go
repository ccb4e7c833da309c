// Package validation benchmarks the assessment pipeline against a curated
// gold-standard dataset and computes accuracy metrics.
package validation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tumorboard/tumorboard/internal/domain"
)

// goldStandardFile is the on-disk envelope of a benchmark dataset.
type goldStandardFile struct {
	Entries []domain.GoldStandardEntry `json:"entries"`
}

// LoadGoldStandard reads a benchmark dataset from a JSON file. Any invalid
// entry fails the whole load: a benchmark with bad labels measures nothing.
func LoadGoldStandard(path string) ([]domain.GoldStandardEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gold standard file: %w", err)
	}

	var file goldStandardFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse gold standard file %s: %w", path, err)
	}
	if len(file.Entries) == 0 {
		return nil, fmt.Errorf("gold standard file %s contains no entries", path)
	}

	for i := range file.Entries {
		if err := file.Entries[i].Validate(); err != nil {
			return nil, fmt.Errorf("gold standard entry %d: %w", i, err)
		}
	}

	return file.Entries, nil
}
