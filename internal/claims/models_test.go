package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionContains(t *testing.T) {
	region := Region{MinLat: 50, MaxLat: 54, MinLon: 3, MaxLon: 8}

	tests := []struct {
		name  string
		point GeoPoint
		want  bool
	}{
		{"inside", GeoPoint{Lat: 52.37, Lon: 4.89}, true},
		{"on boundary", GeoPoint{Lat: 50, Lon: 3}, true},
		{"north of box", GeoPoint{Lat: 55, Lon: 4.89}, false},
		{"west of box", GeoPoint{Lat: 52, Lon: 2.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, region.Contains(tt.point))
		})
	}
}

func TestClaimInPolicyRegion(t *testing.T) {
	claim := Claim{
		PolicyRegion: Region{MinLat: 50, MaxLat: 54, MinLon: 3, MaxLon: 8},
		Incident:     IncidentVector{Location: GeoPoint{Lat: 48.85, Lon: 2.35}},
	}
	assert.False(t, claim.InPolicyRegion())

	claim.Incident.Location = GeoPoint{Lat: 52.37, Lon: 4.89}
	assert.True(t, claim.InPolicyRegion())

	// An unset region imposes no territorial restriction.
	claim.PolicyRegion = Region{}
	claim.Incident.Location = GeoPoint{Lat: -33.86, Lon: 151.2}
	assert.True(t, claim.InPolicyRegion())
}

func TestClosedVocabularies(t *testing.T) {
	assert.True(t, IncidentTheft.Valid())
	assert.True(t, IncidentDamage.Valid())
	assert.False(t, IncidentType("FIRE").Valid())

	assert.True(t, StatusApproved.Valid())
	assert.False(t, Status("").Valid())
}
