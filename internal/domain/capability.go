package domain

import (
	"encoding/json"
	"sort"
)

// Capability is a detected ad-tech integration on a scanned domain. A tagged
// set replaces a row of independent booleans so classification branches stay
// exhaustive.
type Capability string

const (
	CapAnalytics     Capability = "analytics"
	CapTagManager    Capability = "tag-manager"
	CapConsentMode   Capability = "consent-mode"
	CapPixel         Capability = "pixel"
	CapConversionAPI Capability = "conversion-api"
	CapIdentityGraph Capability = "identity-graph"
	CapOwnedID       Capability = "owned-id"
	CapPrebid        Capability = "prebid"
	CapHeaderBidding Capability = "header-bidding"
)

type CapabilitySet map[Capability]struct{}

func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func (s CapabilitySet) Add(c Capability) {
	s[c] = struct{}{}
}

// List returns the capabilities in lexical order for stable serialization.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

func (s *CapabilitySet) UnmarshalJSON(data []byte) error {
	var caps []Capability
	if err := json.Unmarshal(data, &caps); err != nil {
		return err
	}
	*s = NewCapabilitySet(caps...)
	return nil
}
