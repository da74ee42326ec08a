// Package billing computes an itemized electricity bill from two meter
// readings, a tariff schedule, and a tariff policy revision.
//
// The engine is a pure function: no I/O, no clock, no randomness, and it
// never fails. Degenerate inputs are clamped or passed through by policy
// rather than rejected; validating requests is the caller's job.
package billing

import "github.com/kdarko/ecgbill/internal/tariff"

// Mode selects how much of the request the engine honours.
type Mode string

const (
	// ModeQuick assumes a canonical 31-day period and no carried
	// balance, payments, or adjustment, whatever the request says.
	ModeQuick Mode = "quick"

	// ModeDetailed passes every request field through unchanged.
	ModeDetailed Mode = "detailed"
)

// Request is one billing computation over a meter reading pair.
type Request struct {
	PreviousReading float64      `json:"previous_reading"`
	CurrentReading  float64      `json:"current_reading"`
	PeriodDays      int          `json:"period_days"`
	PriorBalance    float64      `json:"prior_balance"`
	Payments        float64      `json:"payments"`
	Adjustment      float64      `json:"adjustment"`
	Class           tariff.Class `json:"class"`
	Mode            Mode         `json:"mode"`
}

// BandCharge is the consumption and cost attributed to one band.
type BandCharge struct {
	UnitsKWh float64 `json:"units_kwh"`
	Rate     float64 `json:"rate"`
	Cost     float64 `json:"cost"`
}

// Levies itemizes the statutory surcharges on a bill. HealthLevy
// (NHIL/GETFund) and VAT stay zero for residential customers.
type Levies struct {
	StreetLight     float64 `json:"street_light"`
	Electrification float64 `json:"electrification"`
	HealthLevy      float64 `json:"health_levy"`
	VAT             float64 `json:"vat"`
}

// Result is an itemized bill. It is immutable once returned: bands are
// freshly allocated per call and never aliased to engine state.
type Result struct {
	UnitsConsumed float64      `json:"units_consumed"`
	Bands         []BandCharge `json:"bands"`
	EnergyCost    float64      `json:"energy_cost"`
	ServiceCharge float64      `json:"service_charge"`
	Levies        Levies       `json:"levies"`
	TotalBill     float64      `json:"total_bill"`
	Adjustment    float64      `json:"adjustment"`
	Payable       float64      `json:"payable"`
}

// Compute prices a billing request against a schedule under a policy
// revision.
//
// A current reading below the previous one (meter rollback or
// replacement) clamps consumption to zero rather than erroring; that is
// billing policy, not defensiveness. Bands are filled in table order and
// allocation stops once consumption is exhausted, so untouched bands
// contribute no entry and the last emitted entry always carries units.
func Compute(p tariff.Policy, s tariff.Schedule, req Request) Result {
	if req.Mode == ModeQuick {
		req.PeriodDays = 31
		req.PriorBalance = 0
		req.Payments = 0
		req.Adjustment = 0
	}

	units := req.CurrentReading - req.PreviousReading
	if units < 0 {
		units = 0
	}

	var (
		bands      []BandCharge
		energyCost float64
	)
	remaining := units
	for _, b := range s.Bands(req.Class) {
		if remaining <= 0 {
			break
		}
		used := remaining
		if kwh, ok := b.Limit.KWh(); ok && kwh < used {
			used = kwh
		}
		if used == 0 {
			// A band edited down to zero capacity is skipped, not
			// reported.
			continue
		}
		cost := used * b.Rate
		bands = append(bands, BandCharge{UnitsKWh: used, Rate: b.Rate, Cost: cost})
		energyCost += cost
		remaining -= used
	}

	levies := Levies{
		StreetLight:     energyCost * p.StreetLightRate,
		Electrification: energyCost * p.ElectrificationRate,
	}
	if req.Class == tariff.ClassNonResidential {
		levies.HealthLevy = energyCost * p.HealthLevyRate
		levies.VAT = p.VATRate * (energyCost + levies.StreetLight + levies.Electrification + levies.HealthLevy)
	}

	serviceCharge := p.ServiceCharge(req.Class, req.PeriodDays)

	total := energyCost + levies.StreetLight + levies.Electrification +
		levies.HealthLevy + levies.VAT + serviceCharge

	return Result{
		UnitsConsumed: units,
		Bands:         bands,
		EnergyCost:    energyCost,
		ServiceCharge: serviceCharge,
		Levies:        levies,
		TotalBill:     total,
		Adjustment:    req.Adjustment,
		Payable:       total + req.PriorBalance - req.Payments + req.Adjustment,
	}
}
