// Package external contains clients for the external services the pipeline
// depends on: the MyVariant.info annotation service and the resilience
// wrapper that fronts it.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/tumorboard/tumorboard/internal/domain"
	"github.com/tumorboard/tumorboard/pkg/notation"
)

// MyVariantAPIError is the typed error raised for transport failures and
// non-2xx responses from MyVariant.info. Absence of evidence is not an
// error and never produces one of these.
type MyVariantAPIError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *MyVariantAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("myvariant API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("myvariant API error: %s", e.Message)
}

// Unwrap exposes the underlying cause.
func (e *MyVariantAPIError) Unwrap() error {
	return e.Err
}

// MyVariantClient queries the MyVariant.info variant annotation service and
// normalizes its per-source records into a domain.Evidence bundle.
type MyVariantClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewMyVariantClient creates a new MyVariant.info API client.
func NewMyVariantClient(config domain.MyVariantConfig) *MyVariantClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://myvariant.info/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}

	return &MyVariantClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// queryResponse is the JSON envelope returned by the query endpoint. Each
// hit may carry any subset of the three source sub-objects.
type queryResponse struct {
	Hits []queryHit `json:"hits"`
}

type queryHit struct {
	ID      string          `json:"_id"`
	CIViC   json.RawMessage `json:"civic,omitempty"`
	ClinVar json.RawMessage `json:"clinvar,omitempty"`
	Cosmic  json.RawMessage `json:"cosmic,omitempty"`
}

// FetchEvidence queries the service for a gene+variant pair and flattens
// all hits' source records into one evidence bundle, preserving order of
// appearance. An empty bundle is a valid result.
func (c *MyVariantClient) FetchEvidence(ctx context.Context, gene, variant string) (*domain.Evidence, error) {
	input := domain.VariantInput{Gene: gene, Variant: variant}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, &MyVariantAPIError{Message: "rate limit wait aborted", Err: err}
	}

	// Equivalent protein notations must hit the same records.
	params := url.Values{
		"q":      {fmt.Sprintf("%s %s", gene, notation.NormalizeProtein(variant))},
		"fields": {"civic,clinvar,cosmic"},
		"size":   {"10"},
	}
	fullURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &MyVariantAPIError{Message: "failed to create request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &MyVariantAPIError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &MyVariantAPIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("query for %s returned status %d", input.ToHGVS(), resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &MyVariantAPIError{Message: "failed to read response body", Err: err}
	}

	var response queryResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &MyVariantAPIError{Message: "failed to parse response", Err: err}
	}

	evidence := &domain.Evidence{
		VariantID: input.ToHGVS(),
		Gene:      gene,
		Variant:   variant,
	}

	for _, hit := range response.Hits {
		if len(hit.CIViC) > 0 {
			evidence.CIViC = append(evidence.CIViC, parseCIViCEvidence(hit.CIViC)...)
		}
		if len(hit.ClinVar) > 0 {
			evidence.ClinVar = append(evidence.ClinVar, parseClinVarEvidence(hit.ClinVar)...)
		}
		if len(hit.Cosmic) > 0 {
			evidence.Cosmic = append(evidence.Cosmic, parseCosmicEvidence(hit.Cosmic)...)
		}
	}

	return evidence, nil
}

// civicPayload mirrors the CIViC sub-object shape. Drugs and disease are
// nested name-carrying objects on the wire.
type civicPayload struct {
	EvidenceItems []struct {
		EvidenceType         string `json:"evidence_type"`
		EvidenceLevel        string `json:"evidence_level"`
		ClinicalSignificance string `json:"clinical_significance"`
		Disease              struct {
			Name string `json:"name"`
		} `json:"disease"`
		Drugs []struct {
			Name string `json:"name"`
		} `json:"drugs"`
		Description string `json:"description"`
	} `json:"evidence_items"`
}

// parseCIViCEvidence flattens a CIViC sub-object into evidence records.
// Malformed payloads yield no records rather than an error: partial
// annotation data must not sink the whole fetch.
func parseCIViCEvidence(raw json.RawMessage) []domain.CIViCEvidence {
	var payload civicPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	items := make([]domain.CIViCEvidence, 0, len(payload.EvidenceItems))
	for _, item := range payload.EvidenceItems {
		drugs := make([]string, 0, len(item.Drugs))
		for _, drug := range item.Drugs {
			if drug.Name != "" {
				drugs = append(drugs, drug.Name)
			}
		}
		items = append(items, domain.CIViCEvidence{
			EvidenceType:         item.EvidenceType,
			EvidenceLevel:        item.EvidenceLevel,
			ClinicalSignificance: item.ClinicalSignificance,
			Disease:              item.Disease.Name,
			Drugs:                drugs,
			Description:          item.Description,
		})
	}
	return items
}

// clinvarPayload mirrors the ClinVar sub-object. Conditions may arrive as a
// single object or a list, so it is kept raw and normalized below.
type clinvarPayload struct {
	ClinicalSignificance string          `json:"clinical_significance"`
	ReviewStatus         string          `json:"review_status"`
	Conditions           json.RawMessage `json:"conditions"`
	VariationID          json.Number     `json:"variation_id"`
}

type clinvarCondition struct {
	Name string `json:"name"`
}

func parseClinVarEvidence(raw json.RawMessage) []domain.ClinVarEvidence {
	var payload clinvarPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	if payload.ClinicalSignificance == "" && payload.ReviewStatus == "" {
		return nil
	}

	return []domain.ClinVarEvidence{{
		ClinicalSignificance: payload.ClinicalSignificance,
		ReviewStatus:         payload.ReviewStatus,
		Conditions:           conditionNames(payload.Conditions),
		VariationID:          payload.VariationID.String(),
	}}
}

// conditionNames tolerates both the single-object and list encodings the
// service uses for condition data.
func conditionNames(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []clinvarCondition
	if err := json.Unmarshal(raw, &list); err == nil {
		names := make([]string, 0, len(list))
		for _, c := range list {
			if c.Name != "" {
				names = append(names, c.Name)
			}
		}
		return names
	}

	var single clinvarCondition
	if err := json.Unmarshal(raw, &single); err == nil && single.Name != "" {
		return []string{single.Name}
	}
	return nil
}

// cosmicPayload mirrors the COSMIC sub-object, which may be a single record
// or a list of records.
type cosmicPayload struct {
	CosmicID     json.Number `json:"cosmic_id"`
	TumorSite    string      `json:"tumor_site"`
	Histology    string      `json:"histology"`
	MutationNT   string      `json:"mut_nt"`
	MutationAA   string      `json:"protein_change"`
	MutationFreq json.Number `json:"mut_freq"`
}

func parseCosmicEvidence(raw json.RawMessage) []domain.CosmicEvidence {
	var payloads []cosmicPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		var single cosmicPayload
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		payloads = []cosmicPayload{single}
	}

	records := make([]domain.CosmicEvidence, 0, len(payloads))
	for _, p := range payloads {
		records = append(records, domain.CosmicEvidence{
			CosmicID:     p.CosmicID.String(),
			TumorSite:    p.TumorSite,
			Histology:    p.Histology,
			MutationNT:   p.MutationNT,
			MutationAA:   p.MutationAA,
			MutationFreq: p.MutationFreq.String(),
		})
	}
	return records
}
