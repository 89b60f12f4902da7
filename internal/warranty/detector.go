package warranty

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"claimsgate/pkg/domain"
	"claimsgate/pkg/requestcontext"
)

// Detection policy constants. Named because they encode fraud policy that
// SIU reviews independently of the code.
const (
	// CorrelationWindow bounds how far apart an incident and a warranty
	// claim can be and still count as the same loss.
	CorrelationWindow = 90 * 24 * time.Hour

	// DuplicateIssueThreshold is the token-set overlap above which two
	// issue descriptions are treated as describing the same problem. This
	// is word-set overlap, not semantic similarity.
	DuplicateIssueThreshold = 0.30

	// Subrogation estimates: recoverable share of the claimed amount and
	// the confidence attached to a keyword-only match.
	subrogationRecoveryShare = 0.75
	subrogationConfidence    = 0.6
)

// defectKeywords mark narratives that describe a product failure rather
// than an external cause — the cases where the manufacturer, not the
// insurer, may be on the hook.
var defectKeywords = []string{
	"defect", "defective", "malfunction", "faulty", "failed", "failure",
	"short-circuit", "short circuit", "overheat", "overheated",
	"stopped working", "manufacturing",
}

// DetectRequest carries everything the detector needs. The incident
// description is the pre-hash narrative text; the detector consumes it
// transiently and never stores it.
type DetectRequest struct {
	ClaimID             domain.ClaimID
	AssetID             domain.AssetID
	IncidentAt          time.Time
	IncidentDescription string
	ClaimAmount         float64
}

// Detector cross-references an insurance claim against the asset's warranty
// history. Its output is advisory: it is surfaced in the decision rationale
// but never vetoes the main decision.
type Detector struct {
	store  Store
	logger *slog.Logger
}

// NewDetector constructs a dual-dip detector over the given index.
func NewDetector(store Store, logger *slog.Logger) *Detector {
	return &Detector{store: store, logger: logger}
}

// DetectDualDip evaluates every warranty claim on the asset within the
// correlation window of the incident and aggregates the findings into a
// risk level and recommendation.
func (d *Detector) DetectDualDip(ctx context.Context, req DetectRequest) (DualDipResult, error) {
	records, err := d.store.ListByAsset(ctx, req.AssetID)
	if err != nil {
		return DualDipResult{}, err
	}

	result := DualDipResult{
		ClaimID:     req.ClaimID,
		AssetID:     req.AssetID,
		Findings:    []Finding{},
		EvaluatedAt: requestcontext.Now(ctx),
	}

	incidentTokens := tokenize(req.IncidentDescription)

	for _, record := range records {
		for _, wc := range record.Claims {
			gap := req.IncidentAt.Sub(wc.FiledAt)
			if gap < 0 {
				gap = -gap
			}
			if gap > CorrelationWindow {
				continue
			}

			if overlap := tokenOverlap(incidentTokens, tokenize(wc.IssueDescription)); overlap > DuplicateIssueThreshold {
				result.Findings = append(result.Findings, Finding{
					Code:            FindingDuplicateIssue,
					Severity:        SeverityHigh,
					WarrantyID:      record.ID,
					WarrantyClaimID: wc.ID,
					Detail:          "issue descriptions overlap beyond threshold",
				})
			}

			if wc.Resolution.Compensated() {
				result.Findings = append(result.Findings, Finding{
					Code:            FindingWarrantyClaimOverlap,
					Severity:        SeverityHigh,
					WarrantyID:      record.ID,
					WarrantyClaimID: wc.ID,
					Detail:          "warranty claim already compensated this loss",
				})
			}

			if wc.FiledAt.After(req.IncidentAt) {
				// Filing the warranty claim after the insured incident is
				// the reactive-filing pattern used to launder timing.
				result.Findings = append(result.Findings, Finding{
					Code:            FindingTimingSuspicious,
					Severity:        SeverityMedium,
					WarrantyID:      record.ID,
					WarrantyClaimID: wc.ID,
					Detail:          "warranty claim filed after the insured incident",
				})
			}
		}
	}

	result.RiskLevel = aggregateRisk(result.Findings)
	result.Recommendation = recommendationFor(result.RiskLevel)
	result.Subrogation = d.subrogation(records, req)

	if len(result.Findings) > 0 {
		d.logger.InfoContext(ctx, "dual-dip findings",
			"claim_id", req.ClaimID,
			"asset_id", req.AssetID,
			"findings", len(result.Findings),
			"risk_level", result.RiskLevel,
			"recommendation", result.Recommendation,
		)
	}

	return result, nil
}

// subrogation emits the advisory recovery opportunity when the narrative
// reads like a product defect and an active manufacturer or extended
// warranty exists.
func (d *Detector) subrogation(records []Record, req DetectRequest) *SubrogationOpportunity {
	if !containsDefectLanguage(req.IncidentDescription) {
		return nil
	}
	for _, record := range records {
		if record.Status != StatusActive {
			continue
		}
		if record.Type != TypeManufacturer && record.Type != TypeExtended {
			continue
		}
		return &SubrogationOpportunity{
			TargetParty:     record.Provider,
			WarrantyType:    record.Type,
			EstimatedAmount: req.ClaimAmount * subrogationRecoveryShare,
			Confidence:      subrogationConfidence,
			Basis:           "defect-related narrative with active warranty coverage",
		}
	}
	return nil
}

func aggregateRisk(findings []Finding) RiskLevel {
	var high, medium int
	for _, f := range findings {
		switch f.Severity {
		case SeverityHigh:
			high++
		case SeverityMedium:
			medium++
		}
	}
	switch {
	case high >= 2:
		return RiskCritical
	case high >= 1:
		return RiskHigh
	case medium >= 2:
		return RiskMedium
	case len(findings) > 0:
		return RiskLow
	default:
		return RiskNone
	}
}

func recommendationFor(level RiskLevel) Recommendation {
	switch level {
	case RiskCritical:
		return RecommendReferSIU
	case RiskHigh:
		return RecommendDeny
	case RiskMedium:
		return RecommendInvestigate
	default:
		return RecommendProceed
	}
}

func containsDefectLanguage(description string) bool {
	lower := strings.ToLower(description)
	for _, kw := range defectKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// tokenize lowercases, strips punctuation, and returns the word set.
func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// tokenOverlap computes Jaccard overlap between two word sets.
func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var intersection int
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
