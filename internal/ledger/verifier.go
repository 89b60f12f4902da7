package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"claimsgate/internal/platform/config"
	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
)

// CustodyEvent is one entry in an asset's custody history as reported by
// the ledger.
type custodyRecord struct {
	AssetID        string  `json:"asset_id"`
	ConditionDelta float64 `json:"condition_delta"`
	Custody        []struct {
		Actor      string    `json:"actor"`
		Action     string    `json:"action"`
		OccurredAt time.Time `json:"occurred_at"`
		Seq        int       `json:"seq"`
	} `json:"custody"`
}

// HTTPVerifier implements the Verifier port against the ledger's custody
// API. It fails closed: any transport or lookup failure surfaces as a
// bad_gateway error, never as a pass.
type HTTPVerifier struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewHTTPVerifier builds the verification adapter from configuration.
func NewHTTPVerifier(cfg config.Ledger) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}
}

// VerifyAsset checks asset existence, current custody, and provenance
// continuity. Priority order:
//  1. asset unknown to the ledger: maximally suspicious result, not an error
//  2. most recent custody actor differs from claimant: ownership mismatch
//  3. transport failure: error (fail closed)
func (v *HTTPVerifier) VerifyAsset(ctx context.Context, assetID domain.AssetID, claimantID domain.ClaimantID) (VerificationResult, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return VerificationResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/assets/%s/custody", v.baseURL, assetID), nil)
	if err != nil {
		return VerificationResult{}, derrors.Wrap(derrors.CodeInternal, "build custody request", err)
	}

	resp, err := v.http.Do(req)
	if err != nil {
		return VerificationResult{}, derrors.Wrap(derrors.CodeBadGateway, "ledger unreachable", err)
	}
	defer resp.Body.Close()

	now := time.Now().UTC()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Unknown assets are treated as maximally suspicious, not as a pass.
		return VerificationResult{
			AssetMatch:     false,
			OwnershipMatch: false,
			ProvenanceGap:  true,
			VerifiedAt:     now,
		}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return VerificationResult{}, derrors.New(derrors.CodeBadGateway,
			fmt.Sprintf("ledger custody lookup returned %d", resp.StatusCode))
	}

	var record custodyRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return VerificationResult{}, derrors.Wrap(derrors.CodeBadGateway, "undecodable custody response", err)
	}

	result := VerificationResult{
		AssetMatch:     true,
		ConditionDelta: record.ConditionDelta,
		VerifiedAt:     now,
	}

	if len(record.Custody) == 0 {
		// An asset with no custody history cannot attest ownership.
		result.OwnershipMatch = false
		result.ProvenanceGap = true
		return result, nil
	}

	latest := record.Custody[len(record.Custody)-1]
	result.OwnershipMatch = latest.Actor == claimantID.String()

	for i := 1; i < len(record.Custody); i++ {
		if record.Custody[i].Seq != record.Custody[i-1].Seq+1 {
			result.ProvenanceGap = true
			break
		}
	}

	return result, nil
}
