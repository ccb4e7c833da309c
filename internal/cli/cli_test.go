package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumorboard/tumorboard/internal/domain"
)

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "variants.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBatchInputs(t *testing.T) {
	path := writeBatchFile(t, `[
		{"gene": "BRAF", "variant": "V600E", "tumor_type": "Melanoma"},
		{"gene": "EGFR", "variant": "L858R", "tumor_type": "NSCLC"}
	]`)

	variants, err := loadBatchInputs(path)

	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, domain.VariantInput{Gene: "BRAF", Variant: "V600E", TumorType: "Melanoma"}, variants[0])
	assert.Equal(t, "EGFR", variants[1].Gene)
}

func TestLoadBatchInputs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `not json`},
		{"object instead of array", `{"variants": []}`},
		{"empty array", `[]`},
		{"missing gene", `[{"variant": "V600E"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadBatchInputs(writeBatchFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadBatchInputs_MissingFile(t *testing.T) {
	_, err := loadBatchInputs(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
