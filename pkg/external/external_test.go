package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumorboard/tumorboard/internal/domain"
)

func testConfig(baseURL string) domain.MyVariantConfig {
	return domain.MyVariantConfig{
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
		RateLimit: 100,
	}
}

func TestMyVariantClient_FetchEvidence(t *testing.T) {
	tests := []struct {
		name         string
		responseBody string
		check        func(t *testing.T, evidence *domain.Evidence)
	}{
		{
			name:         "no hits",
			responseBody: `{"hits": []}`,
			check: func(t *testing.T, evidence *domain.Evidence) {
				assert.Equal(t, "BRAF:V600E", evidence.VariantID)
				assert.False(t, evidence.HasEvidence())
			},
		},
		{
			name: "civic evidence",
			responseBody: `{
				"hits": [
					{
						"_id": "chr7:g.140453136A>T",
						"civic": {
							"evidence_items": [
								{
									"evidence_type": "Predictive",
									"evidence_level": "A",
									"clinical_significance": "Sensitivity/Response",
									"disease": {"name": "Melanoma"},
									"drugs": [{"name": "Vemurafenib"}],
									"description": "BRAF V600E confers sensitivity to vemurafenib."
								}
							]
						}
					}
				]
			}`,
			check: func(t *testing.T, evidence *domain.Evidence) {
				assert.True(t, evidence.HasEvidence())
				require.Len(t, evidence.CIViC, 1)
				assert.Equal(t, "Predictive", evidence.CIViC[0].EvidenceType)
				assert.Contains(t, evidence.CIViC[0].Drugs, "Vemurafenib")
			},
		},
		{
			name: "all three sources across hits",
			responseBody: `{
				"hits": [
					{
						"_id": "hit1",
						"civic": {"evidence_items": [{"evidence_type": "Predictive"}]},
						"clinvar": {
							"clinical_significance": "Pathogenic",
							"review_status": "reviewed by expert panel",
							"conditions": [{"name": "Melanoma"}],
							"variation_id": 13961
						}
					},
					{
						"_id": "hit2",
						"cosmic": {"cosmic_id": "COSM476", "tumor_site": "skin", "protein_change": "p.V600E"}
					}
				]
			}`,
			check: func(t *testing.T, evidence *domain.Evidence) {
				assert.Len(t, evidence.CIViC, 1)
				require.Len(t, evidence.ClinVar, 1)
				assert.Equal(t, "Pathogenic", evidence.ClinVar[0].ClinicalSignificance)
				assert.Contains(t, evidence.ClinVar[0].Conditions, "Melanoma")
				assert.Equal(t, "13961", evidence.ClinVar[0].VariationID)
				require.Len(t, evidence.Cosmic, 1)
				assert.Equal(t, "COSM476", evidence.Cosmic[0].CosmicID)
				assert.Equal(t, "skin", evidence.Cosmic[0].TumorSite)
			},
		},
		{
			name: "cosmic list form",
			responseBody: `{
				"hits": [
					{
						"_id": "hit1",
						"cosmic": [
							{"cosmic_id": "COSM476", "tumor_site": "skin"},
							{"cosmic_id": "COSM6137", "tumor_site": "thyroid"}
						]
					}
				]
			}`,
			check: func(t *testing.T, evidence *domain.Evidence) {
				require.Len(t, evidence.Cosmic, 2)
				assert.Equal(t, "COSM6137", evidence.Cosmic[1].CosmicID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/query", r.URL.Path)
				assert.Equal(t, "BRAF V600E", r.URL.Query().Get("q"))
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tt.responseBody)
			}))
			defer server.Close()

			client := NewMyVariantClient(testConfig(server.URL))
			evidence, err := client.FetchEvidence(context.Background(), "BRAF", "V600E")

			require.NoError(t, err)
			tt.check(t, evidence)
		})
	}
}

func TestMyVariantClient_FetchEvidence_NormalizesProteinNotation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BRAF V600E", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"hits": []}`)
	}))
	defer server.Close()

	client := NewMyVariantClient(testConfig(server.URL))
	_, err := client.FetchEvidence(context.Background(), "BRAF", "p.Val600Glu")

	require.NoError(t, err)
}

func TestMyVariantClient_FetchEvidence_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewMyVariantClient(testConfig(server.URL))
	_, err := client.FetchEvidence(context.Background(), "BRAF", "V600E")

	var apiErr *MyVariantAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestMyVariantClient_FetchEvidence_EmptyInput(t *testing.T) {
	client := NewMyVariantClient(testConfig("http://unused"))

	_, err := client.FetchEvidence(context.Background(), "", "V600E")
	assert.ErrorIs(t, err, domain.ErrEmptyGene)

	_, err = client.FetchEvidence(context.Background(), "BRAF", "")
	assert.ErrorIs(t, err, domain.ErrEmptyVariant)
}

// fakeFetcher counts calls and returns a canned bundle or error.
type fakeFetcher struct {
	calls    int
	evidence *domain.Evidence
	err      error
}

func (f *fakeFetcher) FetchEvidence(ctx context.Context, gene, variant string) (*domain.Evidence, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.evidence, nil
}

func TestResilientEvidenceClient_Memo(t *testing.T) {
	fetcher := &fakeFetcher{
		evidence: &domain.Evidence{VariantID: "BRAF:V600E", Gene: "BRAF", Variant: "V600E"},
	}
	logger := logrus.New()

	client, err := NewResilientEvidenceClient(fetcher, 16, logger)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		evidence, err := client.FetchEvidence(context.Background(), "BRAF", "V600E")
		require.NoError(t, err)
		assert.Equal(t, "BRAF:V600E", evidence.VariantID)
	}

	assert.Equal(t, 1, fetcher.calls, "repeat lookups should hit the in-run memo")
}

func TestResilientEvidenceClient_ErrorPropagation(t *testing.T) {
	wantErr := &MyVariantAPIError{StatusCode: 502, Message: "bad gateway"}
	fetcher := &fakeFetcher{err: wantErr}

	client, err := NewResilientEvidenceClient(fetcher, 0, logrus.New())
	require.NoError(t, err)

	_, err = client.FetchEvidence(context.Background(), "BRAF", "V600E")
	var apiErr *MyVariantAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 502, apiErr.StatusCode)
}

func TestResilientEvidenceClient_BreakerOpens(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	client, err := NewResilientEvidenceClient(fetcher, 0, logrus.New())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _ = client.FetchEvidence(context.Background(), "BRAF", "V600E")
	}

	// After repeated failures the breaker rejects without calling through.
	callsBefore := fetcher.calls
	_, err = client.FetchEvidence(context.Background(), "BRAF", "V600E")
	assert.Error(t, err)
	assert.Equal(t, callsBefore, fetcher.calls)
}
