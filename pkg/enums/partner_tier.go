package enums

import "fmt"

// PartnerTier ranks the referral relationship with a partner practice.
type PartnerTier string

const (
	PartnerTierPlatinum PartnerTier = "platinum"
	PartnerTierGold     PartnerTier = "gold"
	PartnerTierSilver   PartnerTier = "silver"
	PartnerTierStandard PartnerTier = "standard"
)

var validPartnerTiers = []PartnerTier{
	PartnerTierPlatinum,
	PartnerTierGold,
	PartnerTierSilver,
	PartnerTierStandard,
}

// String implements fmt.Stringer.
func (p PartnerTier) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PartnerTier.
func (p PartnerTier) IsValid() bool {
	for _, candidate := range validPartnerTiers {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePartnerTier converts raw input into a PartnerTier.
func ParsePartnerTier(value string) (PartnerTier, error) {
	for _, candidate := range validPartnerTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid partner tier %q", value)
}
