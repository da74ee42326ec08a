package tariff

import "encoding/json"

// Class identifies a customer category under the tariff schedule.
type Class string

const (
	ClassResidential    Class = "residential"
	ClassNonResidential Class = "non_residential"
)

// Classes returns the customer classes every schedule must cover.
func Classes() []Class {
	return []Class{ClassResidential, ClassNonResidential}
}

// Limit is the kWh capacity of a consumption band. The final band of every
// class is unbounded; modelling that as a tagged value keeps non-finite
// numbers out of the currency arithmetic downstream.
type Limit struct {
	bounded bool
	kwh     float64
}

// Bounded returns a limit capping a band at kwh units.
func Bounded(kwh float64) Limit {
	return Limit{bounded: true, kwh: kwh}
}

// Unbounded returns the limit used by the terminal band of a class.
func Unbounded() Limit {
	return Limit{}
}

// KWh returns the capacity and true when the limit is bounded.
func (l Limit) KWh() (float64, bool) {
	return l.kwh, l.bounded
}

// IsUnbounded reports whether the limit absorbs any remaining consumption.
func (l Limit) IsUnbounded() bool {
	return !l.bounded
}

// Band is one consumption tier: up to Limit kWh billed at Rate GHS per kWh.
type Band struct {
	Limit Limit
	Rate  float64
}

// bandJSON is the wire form of a Band. A null limit_kwh marks the
// unbounded band.
type bandJSON struct {
	LimitKWh *float64 `json:"limit_kwh"`
	Rate     float64  `json:"rate"`
}

func (b Band) MarshalJSON() ([]byte, error) {
	out := bandJSON{Rate: b.Rate}
	if kwh, ok := b.Limit.KWh(); ok {
		out.LimitKWh = &kwh
	}
	return json.Marshal(out)
}

func (b *Band) UnmarshalJSON(data []byte) error {
	var in bandJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.LimitKWh != nil {
		b.Limit = Bounded(*in.LimitKWh)
	} else {
		b.Limit = Unbounded()
	}
	b.Rate = in.Rate
	return nil
}
