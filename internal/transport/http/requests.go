package httptransport

import (
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"claimsgate/internal/salvage"
	"claimsgate/internal/warranty"
	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
)

// RecordEventRequest is the HTTP request body for POST /claims/{id}/events.
type RecordEventRequest struct {
	EventType      string         `json:"event_type"`
	Payload        map[string]any `json:"payload"`
	IdempotencyKey string         `json:"idempotency_key"`
}

// Validate validates the request.
func (r *RecordEventRequest) Validate() error {
	r.EventType = strings.TrimSpace(r.EventType)
	if r.EventType == "" {
		return derrors.New(derrors.CodeInvalidInput, "event_type is required")
	}
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
	return nil
}

// DualDipRequest is the HTTP request body for POST /claims/{id}/dual-dip.
type DualDipRequest struct {
	AssetID             string  `json:"asset_id"`
	IncidentAt          string  `json:"incident_at"`
	IncidentDescription string  `json:"incident_description"`
	ClaimAmount         float64 `json:"claim_amount"`

	parsedAssetID    domain.AssetID
	parsedIncidentAt time.Time
}

// Validate validates and parses the request.
func (r *DualDipRequest) Validate() error {
	assetID, err := domain.ParseAssetID(strings.TrimSpace(r.AssetID))
	if err != nil {
		return err
	}
	r.parsedAssetID = assetID

	if r.IncidentAt != "" {
		if !govalidator.IsRFC3339(r.IncidentAt) {
			return derrors.New(derrors.CodeInvalidInput, "incident_at must be an RFC 3339 timestamp")
		}
		r.parsedIncidentAt, _ = time.Parse(time.RFC3339, r.IncidentAt)
	}

	if r.ClaimAmount < 0 {
		return derrors.New(derrors.CodeInvalidInput, "claim_amount must not be negative")
	}
	return nil
}

// ParsedAssetID returns the validated asset id.
func (r *DualDipRequest) ParsedAssetID() domain.AssetID { return r.parsedAssetID }

// ParsedIncidentAt returns the parsed incident time; zero when absent.
func (r *DualDipRequest) ParsedIncidentAt() time.Time { return r.parsedIncidentAt }

// CreateManifestRequest is the HTTP request body for
// POST /claims/{id}/salvage.
type CreateManifestRequest struct {
	Items []ManifestItemRequest `json:"items"`
}

// ManifestItemRequest is one recoverable asset in the manifest request.
type ManifestItemRequest struct {
	AssetID        string  `json:"asset_id"`
	Description    string  `json:"description"`
	EstimatedValue float64 `json:"estimated_value"`
}

// Validate validates the request.
func (r *CreateManifestRequest) Validate() error {
	if len(r.Items) == 0 {
		return derrors.New(derrors.CodeInvalidInput, "items must not be empty")
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.AssetID) == "" {
			return derrors.New(derrors.CodeInvalidInput,
				fmt.Sprintf("items[%d].asset_id must not be empty", i))
		}
		if item.EstimatedValue < 0 {
			return derrors.New(derrors.CodeInvalidInput,
				fmt.Sprintf("items[%d].estimated_value must not be negative", i))
		}
	}
	return nil
}

// DomainItems converts the request items to their domain shape.
func (r *CreateManifestRequest) DomainItems() []salvage.Item {
	items := make([]salvage.Item, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, salvage.Item{
			AssetID:        domain.AssetID(strings.TrimSpace(item.AssetID)),
			Description:    item.Description,
			EstimatedValue: item.EstimatedValue,
		})
	}
	return items
}

// RegisterWarrantyRequest is the HTTP request body for POST /warranties.
type RegisterWarrantyRequest struct {
	ID        string `json:"id"`
	AssetID   string `json:"asset_id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Provider  string `json:"provider"`
	ExpiresAt string `json:"expires_at"`

	parsedID        domain.WarrantyID
	parsedAssetID   domain.AssetID
	parsedExpiresAt time.Time
}

// Validate validates and parses the request. An absent id is minted here;
// an absent status defaults to ACTIVE.
func (r *RegisterWarrantyRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		r.parsedID = domain.WarrantyID(uuid.New())
	} else {
		id, err := domain.ParseWarrantyID(r.ID)
		if err != nil {
			return err
		}
		r.parsedID = id
	}

	assetID, err := domain.ParseAssetID(strings.TrimSpace(r.AssetID))
	if err != nil {
		return err
	}
	r.parsedAssetID = assetID

	if !warranty.Type(r.Type).Valid() {
		return derrors.New(derrors.CodeInvalidInput,
			fmt.Sprintf("type must be one of %s, %s, %s",
				warranty.TypeManufacturer, warranty.TypeExtended, warranty.TypeThirdParty))
	}

	if r.Status == "" {
		r.Status = string(warranty.StatusActive)
	}
	if !warranty.Status(r.Status).Valid() {
		return derrors.New(derrors.CodeInvalidInput, "status is not a recognized warranty status")
	}

	if r.ExpiresAt == "" || !govalidator.IsRFC3339(r.ExpiresAt) {
		return derrors.New(derrors.CodeInvalidInput, "expires_at must be an RFC 3339 timestamp")
	}
	r.parsedExpiresAt, _ = time.Parse(time.RFC3339, r.ExpiresAt)

	if strings.TrimSpace(r.Provider) == "" {
		return derrors.New(derrors.CodeInvalidInput, "provider is required")
	}
	return nil
}

// DomainRecord converts the validated request to a warranty record.
func (r *RegisterWarrantyRequest) DomainRecord() warranty.Record {
	return warranty.Record{
		ID:        r.parsedID,
		AssetID:   r.parsedAssetID,
		Type:      warranty.Type(r.Type),
		Status:    warranty.Status(r.Status),
		Provider:  strings.TrimSpace(r.Provider),
		ExpiresAt: r.parsedExpiresAt,
		Claims:    []warranty.ClaimRecord{},
	}
}

// AddWarrantyClaimRequest is the HTTP request body for
// POST /warranties/{id}/claims.
type AddWarrantyClaimRequest struct {
	ID               string  `json:"id"`
	FiledAt          string  `json:"filed_at"`
	IssueDescription string  `json:"issue_description"`
	Resolution       string  `json:"resolution"`
	AmountPaid       float64 `json:"amount_paid"`

	parsedFiledAt time.Time
}

// Validate validates and parses the request. An absent resolution defaults
// to PENDING.
func (r *AddWarrantyClaimRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}

	if r.FiledAt == "" || !govalidator.IsRFC3339(r.FiledAt) {
		return derrors.New(derrors.CodeInvalidInput, "filed_at must be an RFC 3339 timestamp")
	}
	r.parsedFiledAt, _ = time.Parse(time.RFC3339, r.FiledAt)

	if strings.TrimSpace(r.IssueDescription) == "" {
		return derrors.New(derrors.CodeInvalidInput, "issue_description is required")
	}

	if r.Resolution == "" {
		r.Resolution = string(warranty.ResolutionPending)
	}
	if !warranty.Resolution(r.Resolution).Valid() {
		return derrors.New(derrors.CodeInvalidInput, "resolution is not a recognized value")
	}

	if r.AmountPaid < 0 {
		return derrors.New(derrors.CodeInvalidInput, "amount_paid must not be negative")
	}
	return nil
}

// DomainClaim converts the validated request to a warranty claim record.
func (r *AddWarrantyClaimRequest) DomainClaim() warranty.ClaimRecord {
	return warranty.ClaimRecord{
		ID:               r.ID,
		FiledAt:          r.parsedFiledAt,
		IssueDescription: r.IssueDescription,
		Resolution:       warranty.Resolution(r.Resolution),
		AmountPaid:       r.AmountPaid,
	}
}
