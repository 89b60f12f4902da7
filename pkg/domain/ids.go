// Package domain holds the typed identifiers shared across claimsgate.
//
// IDs are distinct types wrapping uuid.UUID so the compiler rejects
// cross-assignment (a ClaimID can never be passed where a ClaimantID is
// expected). Parse functions enforce the invariant that IDs entering the
// system are valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	derrors "claimsgate/pkg/domain-errors"
)

type (
	// ClaimID identifies a claim submission.
	ClaimID uuid.UUID

	// ClaimantID identifies the party filing a claim.
	ClaimantID uuid.UUID

	// ManifestID identifies a salvage manifest.
	ManifestID uuid.UUID

	// WarrantyID identifies a warranty record in the cross-reference index.
	WarrantyID uuid.UUID
)

// AssetID is the ledger-scoped asset identifier. The ledger owns its
// namespace, so this stays an opaque string rather than a UUID.
type AssetID string

func (id ClaimID) String() string    { return uuid.UUID(id).String() }
func (id ClaimantID) String() string { return uuid.UUID(id).String() }
func (id ManifestID) String() string { return uuid.UUID(id).String() }
func (id WarrantyID) String() string { return uuid.UUID(id).String() }

func (id ClaimID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ClaimantID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ManifestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseClaimID validates and converts a raw string into a ClaimID.
func ParseClaimID(raw string) (ClaimID, error) {
	u, err := parseUUID(raw, "claim_id")
	return ClaimID(u), err
}

// ParseClaimantID validates and converts a raw string into a ClaimantID.
func ParseClaimantID(raw string) (ClaimantID, error) {
	u, err := parseUUID(raw, "claimant_id")
	return ClaimantID(u), err
}

// ParseManifestID validates and converts a raw string into a ManifestID.
func ParseManifestID(raw string) (ManifestID, error) {
	u, err := parseUUID(raw, "manifest_id")
	return ManifestID(u), err
}

// ParseWarrantyID validates and converts a raw string into a WarrantyID.
func ParseWarrantyID(raw string) (WarrantyID, error) {
	u, err := parseUUID(raw, "warranty_id")
	return WarrantyID(u), err
}

// ParseAssetID rejects empty asset identifiers. The ledger defines the rest
// of the format.
func ParseAssetID(raw string) (AssetID, error) {
	if raw == "" {
		return "", derrors.New(derrors.CodeInvalidInput, "asset_id must not be empty")
	}
	return AssetID(raw), nil
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, field+" must not be empty")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, derrors.Wrap(derrors.CodeInvalidInput, field+" is not a valid UUID", err)
	}
	if u == uuid.Nil {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, field+" must not be the nil UUID")
	}
	return u, nil
}
