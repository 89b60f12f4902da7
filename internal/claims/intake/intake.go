// Package intake is the single point where untrusted submissions become
// trusted Claim records. Every violation is collected into one structured
// error so the caller sees all failing fields at once.
package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"

	"claimsgate/internal/claims"
	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
)

// Submission is the raw wire shape of a claim. Fields are pointers or loose
// types where absence must be distinguished from the zero value.
type Submission struct {
	ID              string  `json:"id"`
	IntakeTimestamp string  `json:"intake_timestamp"`
	PolicyRef       string  `json:"policy_ref"`
	PolicyRegion    *region `json:"policy_region,omitempty"`
	ClaimantID      string   `json:"claimant_id"`
	AssetID         string   `json:"asset_id"`
	ClaimedAmount   *float64 `json:"claimed_amount,omitempty"`
	Incident        struct {
		Type      string   `json:"type"`
		Location  *geo     `json:"location"`
		Severity  *float64 `json:"severity"`
		Narrative string   `json:"narrative"`
	} `json:"incident"`
	Status string `json:"status"`
}

type geo struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type region struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// fieldErrors accumulates per-field violations in insertion order.
type fieldErrors struct {
	order  []string
	fields map[string][]string
}

func (fe *fieldErrors) add(field, msg string) {
	if fe.fields == nil {
		fe.fields = make(map[string][]string)
	}
	if _, seen := fe.fields[field]; !seen {
		fe.order = append(fe.order, field)
	}
	fe.fields[field] = append(fe.fields[field], msg)
}

func (fe *fieldErrors) empty() bool { return len(fe.fields) == 0 }

// Ingest parses and validates a raw submission into a trusted Claim. On any
// violation it returns a CodeInvalidInput error enumerating every failing
// field. It never panics on malformed input; only programmer error (a nil
// receiver, say) may panic.
func Ingest(raw []byte) (claims.Claim, error) {
	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return claims.Claim{}, derrors.Wrap(derrors.CodeInvalidInput, "malformed JSON body", err)
	}
	return FromSubmission(sub)
}

// FromSubmission validates an already-decoded submission.
func FromSubmission(sub Submission) (claims.Claim, error) {
	var fe fieldErrors

	claimID, err := domain.ParseClaimID(sub.ID)
	if err != nil {
		fe.add("id", "must be a valid non-nil UUID")
	}

	var intakeAt time.Time
	if sub.IntakeTimestamp == "" {
		fe.add("intake_timestamp", "is required")
	} else if !govalidator.IsRFC3339(sub.IntakeTimestamp) {
		fe.add("intake_timestamp", "must be an RFC 3339 timestamp")
	} else {
		intakeAt, _ = time.Parse(time.RFC3339, sub.IntakeTimestamp)
	}

	if sub.PolicyRef == "" {
		fe.add("policy_ref", "is required")
	}

	claimantID, err := domain.ParseClaimantID(sub.ClaimantID)
	if err != nil {
		fe.add("claimant_id", "must be a valid non-nil UUID")
	}

	assetID, err := domain.ParseAssetID(sub.AssetID)
	if err != nil {
		fe.add("asset_id", "must not be empty")
	}

	incidentType := claims.IncidentType(sub.Incident.Type)
	if !incidentType.Valid() {
		fe.add("incident.type", fmt.Sprintf("must be one of %s, %s", claims.IncidentTheft, claims.IncidentDamage))
	}

	var location claims.GeoPoint
	switch loc := sub.Incident.Location; {
	case loc == nil || loc.Lat == nil || loc.Lon == nil:
		fe.add("incident.location", "must be a point with lat and lon")
	case !govalidator.IsLatitude(fmt.Sprintf("%g", *loc.Lat)):
		fe.add("incident.location", "lat must be within [-90, 90]")
	case !govalidator.IsLongitude(fmt.Sprintf("%g", *loc.Lon)):
		fe.add("incident.location", "lon must be within [-180, 180]")
	default:
		location = claims.GeoPoint{Lat: *loc.Lat, Lon: *loc.Lon}
	}

	var severity int
	switch sev := sub.Incident.Severity; {
	case sev == nil:
		fe.add("incident.severity", "is required")
	case *sev != float64(int(*sev)):
		fe.add("incident.severity", "must be an integer")
	case int(*sev) < 1 || int(*sev) > 10:
		fe.add("incident.severity", "must be within [1, 10]")
	default:
		severity = int(*sev)
	}

	if sub.Incident.Narrative == "" {
		fe.add("incident.narrative", "is required")
	}

	var claimedAmount float64
	if sub.ClaimedAmount != nil {
		if *sub.ClaimedAmount < 0 {
			fe.add("claimed_amount", "must not be negative")
		} else {
			claimedAmount = *sub.ClaimedAmount
		}
	}

	status := claims.StatusIntake
	if sub.Status != "" {
		status = claims.Status(sub.Status)
		if !status.Valid() {
			fe.add("status", "is not a recognized claim status")
		}
	}

	if !fe.empty() {
		msg := "claim submission has " + fmt.Sprintf("%d invalid field(s): %v", len(fe.order), fe.order)
		return claims.Claim{}, derrors.New(derrors.CodeInvalidInput, msg).WithFields(fe.fields)
	}

	var policyRegion claims.Region
	if sub.PolicyRegion != nil {
		policyRegion = claims.Region{
			MinLat: sub.PolicyRegion.MinLat,
			MaxLat: sub.PolicyRegion.MaxLat,
			MinLon: sub.PolicyRegion.MinLon,
			MaxLon: sub.PolicyRegion.MaxLon,
		}
	}

	return claims.Claim{
		ID:            claimID,
		IntakeAt:      intakeAt,
		PolicyRef:     sub.PolicyRef,
		PolicyRegion:  policyRegion,
		ClaimantID:    claimantID,
		AssetID:       assetID,
		ClaimedAmount: claimedAmount,
		Incident: claims.IncidentVector{
			Type:          incidentType,
			Location:      location,
			Severity:      severity,
			NarrativeHash: HashNarrative(sub.Incident.Narrative),
		},
		Status: status,
	}, nil
}

// HashNarrative returns the SHA-256 hex digest of a free-text narrative.
// The raw text is discarded at the gate; only the hash crosses it.
func HashNarrative(narrative string) string {
	sum := sha256.Sum256([]byte(narrative))
	return hex.EncodeToString(sum[:])
}
