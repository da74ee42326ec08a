package tariff

import (
	"fmt"
	"sort"
	"sync"
)

// Policy is one published revision of the tariff model: the levy and VAT
// percentages, the service charge constants, and the default band tables.
// Historical revisions changed both the band tables and how the service
// charge scales with the billing period, so both shapes live here and the
// engine stays single-sourced.
type Policy struct {
	// Key is the unique identifier for this revision (e.g., "purc2023").
	Key string

	// Name is the human-readable title of the revision.
	Name string

	// StreetLightRate and ElectrificationRate apply to every bill as a
	// fraction of the energy cost.
	StreetLightRate     float64
	ElectrificationRate float64

	// HealthLevyRate is the combined NHIL/GETFund levy, charged to
	// non-residential customers only.
	HealthLevyRate float64

	// VATRate applies to non-residential customers only, on the energy
	// cost plus all levies.
	VATRate float64

	// ServiceChargeMonthly is the flat monthly charge per class, prorated
	// by periodDays/31. ServiceChargePerDay, when non-nil, replaces it
	// with a straight per-day charge (the pre-2020 model).
	ServiceChargeMonthly map[Class]float64
	ServiceChargePerDay  map[Class]float64

	// Defaults is the built-in schedule this revision resets to.
	Defaults Schedule
}

// ServiceCharge returns the service charge for a class over a billing
// period of the given length.
func (p Policy) ServiceCharge(c Class, periodDays int) float64 {
	if p.ServiceChargePerDay != nil {
		return p.ServiceChargePerDay[c] * float64(periodDays)
	}
	return p.ServiceChargeMonthly[c] * float64(periodDays) / 31
}

// DefaultPolicyKey is the revision used when a caller does not name one.
const DefaultPolicyKey = "purc2023"

var (
	policiesMu sync.RWMutex
	policies   = make(map[string]Policy)
)

// RegisterPolicy registers a tariff revision. It is called from init()
// functions in the per-revision files and panics on misuse.
func RegisterPolicy(p Policy) {
	if p.Key == "" {
		panic("tariff: RegisterPolicy called with empty key")
	}
	if len(p.Defaults) == 0 {
		panic(fmt.Sprintf("tariff: RegisterPolicy(%q) called with no default schedule", p.Key))
	}
	for c, bands := range p.Defaults {
		if len(bands) == 0 || !bands[len(bands)-1].Limit.IsUnbounded() {
			panic(fmt.Sprintf("tariff: RegisterPolicy(%q): class %s must end in an unbounded band", p.Key, c))
		}
	}

	policiesMu.Lock()
	defer policiesMu.Unlock()

	if _, exists := policies[p.Key]; exists {
		panic(fmt.Sprintf("tariff: RegisterPolicy called twice for key %q", p.Key))
	}
	policies[p.Key] = p
}

// GetPolicy returns the revision registered under key.
func GetPolicy(key string) (Policy, bool) {
	policiesMu.RLock()
	defer policiesMu.RUnlock()

	p, ok := policies[key]
	return p, ok
}

// Policies returns all registered revisions, ordered by key.
func Policies() []Policy {
	policiesMu.RLock()
	defer policiesMu.RUnlock()

	out := make([]Policy, 0, len(policies))
	for _, p := range policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
