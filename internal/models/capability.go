package models

import "sort"

// Capability is a single permission a user may hold.
type Capability string

const (
	CapApproveOrders Capability = "approve_orders"
	CapApproveTrips  Capability = "approve_trips"
	CapAddShortages  Capability = "add_shortages"
	CapDrive         Capability = "drive"
	CapManageUsers   Capability = "manage_users"
	CapManageFleet   Capability = "manage_fleet"
)

var allCapabilities = []Capability{
	CapApproveOrders,
	CapApproveTrips,
	CapAddShortages,
	CapDrive,
	CapManageUsers,
	CapManageFleet,
}

type CapabilitySet map[Capability]struct{}

func AllCapabilities() CapabilitySet {
	set := make(CapabilitySet, len(allCapabilities))
	for _, c := range allCapabilities {
		set.Add(c)
	}
	return set
}

func (s CapabilitySet) Add(c Capability) {
	s[c] = struct{}{}
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns the capabilities sorted by name.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
