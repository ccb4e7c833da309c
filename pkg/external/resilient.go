package external

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/tumorboard/tumorboard/internal/domain"
)

// EvidenceFetcher is the contract the assessment engine consumes for
// evidence retrieval.
type EvidenceFetcher interface {
	FetchEvidence(ctx context.Context, gene, variant string) (*domain.Evidence, error)
}

// ResilientEvidenceClient wraps an EvidenceFetcher with a circuit breaker
// and an in-run LRU memo. The memo lives and dies with the client instance:
// nothing is cached across CLI invocations.
type ResilientEvidenceClient struct {
	fetcher EvidenceFetcher
	breaker *gobreaker.CircuitBreaker
	memo    *lru.Cache[string, *domain.Evidence]
	logger  *logrus.Logger
}

// NewResilientEvidenceClient creates the resilience wrapper. cacheSize <= 0
// disables the in-run memo.
func NewResilientEvidenceClient(fetcher EvidenceFetcher, cacheSize int, logger *logrus.Logger) (*ResilientEvidenceClient, error) {
	var memo *lru.Cache[string, *domain.Evidence]
	if cacheSize > 0 {
		var err error
		memo, err = lru.New[string, *domain.Evidence](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create evidence memo: %w", err)
		}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "MyVariant",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientEvidenceClient{
		fetcher: fetcher,
		breaker: breaker,
		memo:    memo,
		logger:  logger,
	}, nil
}

// FetchEvidence serves from the in-run memo when possible, otherwise passes
// through the circuit breaker to the underlying client. Errors propagate
// unchanged to the caller.
func (c *ResilientEvidenceClient) FetchEvidence(ctx context.Context, gene, variant string) (*domain.Evidence, error) {
	key := domain.VariantInput{Gene: gene, Variant: variant}.ToHGVS()

	if c.memo != nil {
		if evidence, ok := c.memo.Get(key); ok {
			c.logger.WithField("variant_id", key).Debug("Evidence served from in-run memo")
			return evidence, nil
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetcher.FetchEvidence(ctx, gene, variant)
	})
	if err != nil {
		return nil, err
	}

	evidence := result.(*domain.Evidence)
	if c.memo != nil {
		c.memo.Add(key, evidence)
	}
	return evidence, nil
}

// BreakerState exposes the current circuit breaker state for health
// reporting.
func (c *ResilientEvidenceClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}
