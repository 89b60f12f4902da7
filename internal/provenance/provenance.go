// Package provenance scores an asset's pre-loss custody history for claim
// readiness. Scoring delegates to an external collaborator and falls back
// to a local heuristic over the ledger's custody events when that
// collaborator is unavailable — a degraded answer beats no answer here,
// because this surface is advisory, not binding.
package provenance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"claimsgate/internal/ledger"
	"claimsgate/internal/platform/config"
	"claimsgate/pkg/domain"
	"claimsgate/pkg/platform/circuit"
)

// Tier grades claim readiness.
type Tier string

const (
	TierClaimReady   Tier = "CLAIM_READY"
	TierReview       Tier = "REVIEW"
	TierInsufficient Tier = "INSUFFICIENT"
)

// Tier thresholds.
const (
	claimReadyThreshold = 80
	reviewThreshold     = 50
)

// Report is the provenance assessment for an asset.
type Report struct {
	ItemID          domain.AssetID `json:"item_id"`
	ProvenanceScore int            `json:"provenance_score"`
	Tier            Tier           `json:"tier"`
	FraudFlags      []string       `json:"fraud_flags"`
	Evidence        Evidence       `json:"evidence"`
	Source          string         `json:"source"`
}

// Evidence summarizes the package behind the score.
type Evidence struct {
	CustodyEvents int        `json:"custody_events"`
	FirstSeen     *time.Time `json:"first_seen,omitempty"`
	LastSeen      *time.Time `json:"last_seen,omitempty"`
	GapDetected   bool       `json:"gap_detected"`
}

// Scorer is the external collaborator's contract.
type Scorer interface {
	Score(ctx context.Context, itemID domain.AssetID) (Report, error)
}

// HTTPScorer calls the external fraud/valuation scoring service.
type HTTPScorer struct {
	baseURL string
	http    *http.Client
}

// NewHTTPScorer builds the external scorer client. Returns nil when no URL
// is configured, which puts the service in heuristic-only mode.
func NewHTTPScorer(cfg config.Provenance) *HTTPScorer {
	if cfg.ScorerURL == "" {
		return nil
	}
	return &HTTPScorer{
		baseURL: cfg.ScorerURL,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (s *HTTPScorer) Score(ctx context.Context, itemID domain.AssetID) (Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/items/%s/score", s.baseURL, itemID), nil)
	if err != nil {
		return Report{}, fmt.Errorf("build score request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("scorer unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Report{}, fmt.Errorf("scorer returned %d", resp.StatusCode)
	}
	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return Report{}, fmt.Errorf("decode scorer response: %w", err)
	}
	report.ItemID = itemID
	report.Source = "external"
	return report, nil
}

// While the breaker is open, only every probeEvery-th request pays the
// external call; the rest go straight to the heuristic.
const probeEvery = 8

// Service front-ends scoring with the heuristic fallback.
type Service struct {
	scorer  Scorer // nil means heuristic-only
	ledger  ledger.Querier
	breaker *circuit.Breaker
	calls   atomic.Uint64
	logger  *slog.Logger
}

// NewService constructs the provenance service.
func NewService(scorer Scorer, querier ledger.Querier, logger *slog.Logger) *Service {
	return &Service{
		scorer:  scorer,
		ledger:  querier,
		breaker: circuit.New("provenance-scorer", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(2)),
		logger:  logger,
	}
}

// Score returns the external assessment when available, otherwise the local
// heuristic. Only a ledger failure during the fallback surfaces as an
// error.
func (s *Service) Score(ctx context.Context, itemID domain.AssetID) (Report, error) {
	if s.scorer != nil && s.shouldCallExternal() {
		report, err := s.scorer.Score(ctx, itemID)
		if err == nil {
			if _, change := s.breaker.RecordSuccess(); change.Closed {
				s.logger.InfoContext(ctx, "external scorer recovered", "breaker", s.breaker.Name())
			}
			if report.Tier == "" {
				report.Tier = tierFor(report.ProvenanceScore)
			}
			return report, nil
		}
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "external scorer circuit opened",
				"breaker", s.breaker.Name(), "error", err)
		} else {
			s.logger.WarnContext(ctx, "external scorer unavailable, using heuristic",
				"item_id", itemID, "error", err)
		}
	}
	return s.heuristic(ctx, itemID)
}

func (s *Service) shouldCallExternal() bool {
	if !s.breaker.IsOpen() {
		return true
	}
	return s.calls.Add(1)%probeEvery == 0
}

// heuristic derives a score from the custody history alone: more recorded
// events raise confidence, gaps and thin histories lower it.
func (s *Service) heuristic(ctx context.Context, itemID domain.AssetID) (Report, error) {
	events, err := s.ledger.Query(ctx, ledger.Query{Subject: string(itemID)})
	if err != nil {
		return Report{}, err
	}

	report := Report{
		ItemID:     itemID,
		FraudFlags: []string{},
		Source:     "heuristic",
		Evidence:   Evidence{CustodyEvents: len(events)},
	}

	if len(events) == 0 {
		report.ProvenanceScore = 0
		report.Tier = TierInsufficient
		report.FraudFlags = append(report.FraudFlags, "NO_CUSTODY_HISTORY")
		return report, nil
	}

	first := events[0].OccurredAt
	last := events[len(events)-1].OccurredAt
	report.Evidence.FirstSeen = &first
	report.Evidence.LastSeen = &last

	score := 40
	depth := len(events)
	if depth > 5 {
		depth = 5
	}
	score += depth * 10

	// Long silences in the custody record read as a gap.
	for i := 1; i < len(events); i++ {
		if events[i].OccurredAt.Sub(events[i-1].OccurredAt) > 365*24*time.Hour {
			report.Evidence.GapDetected = true
			break
		}
	}
	if report.Evidence.GapDetected {
		score -= 30
		report.FraudFlags = append(report.FraudFlags, "CUSTODY_GAP")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	report.ProvenanceScore = score
	report.Tier = tierFor(score)
	return report, nil
}

func tierFor(score int) Tier {
	switch {
	case score >= claimReadyThreshold:
		return TierClaimReady
	case score >= reviewThreshold:
		return TierReview
	default:
		return TierInsufficient
	}
}
