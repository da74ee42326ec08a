package tariff

// EditKind names one of the schedule editing operations.
type EditKind string

const (
	EditUpdate EditKind = "update"
	EditAdd    EditKind = "add"
	EditRemove EditKind = "remove"
	EditReset  EditKind = "reset"
)

// Edit is a single schedule editing operation as submitted by an operator.
// Fields beyond Kind and Class are read only by the kinds that need them.
type Edit struct {
	Kind       EditKind `json:"op"`
	Class      Class    `json:"class,omitempty"`
	Index      int      `json:"index,omitempty"`
	LimitKWh   *float64 `json:"limit_kwh,omitempty"`
	Rate       *float64 `json:"rate,omitempty"`
	AllClasses bool     `json:"all_classes,omitempty"`
}

// Apply runs one edit against a schedule and returns the resulting
// schedule. Reset restores the policy's built-in defaults, either for the
// named class or, with AllClasses, for every class. Unknown kinds are a
// no-op; Apply never fails.
func Apply(p Policy, s Schedule, e Edit) Schedule {
	switch e.Kind {
	case EditUpdate:
		return s.UpdateBand(e.Class, e.Index, e.LimitKWh, e.Rate)
	case EditAdd:
		return s.AddBand(e.Class)
	case EditRemove:
		return s.RemoveBand(e.Class, e.Index)
	case EditReset:
		if e.AllClasses {
			return p.Defaults.Clone()
		}
		out := s.Clone()
		def := p.Defaults[e.Class]
		cp := make([]Band, len(def))
		copy(cp, def)
		out[e.Class] = cp
		return out
	default:
		return s.Clone()
	}
}
