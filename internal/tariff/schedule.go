package tariff

// Schedule maps each customer class to its ordered band table. Bands are
// ordered by ascending capacity and exactly one band per class, the last,
// is unbounded.
//
// A Schedule is a value: every editing operation returns a fresh deep copy
// and leaves the receiver untouched, so concurrent readers never observe a
// half-applied edit. Editing operations are total; bad indices degrade to
// no-ops rather than errors.
type Schedule map[Class][]Band

// addBandStepKWh is the capacity headroom given to a band inserted via
// AddBand, on top of the previous bounded band's limit.
const addBandStepKWh = 100

// Bands returns the band table for a class. The returned slice is shared
// with the schedule; callers must not mutate it.
func (s Schedule) Bands(c Class) []Band {
	return s[c]
}

// Clone returns a deep copy of the schedule.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for c, bands := range s {
		cp := make([]Band, len(bands))
		copy(cp, bands)
		out[c] = cp
	}
	return out
}

// UpdateBand replaces the limit and/or rate of the band at index. A nil
// field is left untouched. Out-of-range indices are a no-op. The limit of
// the unbounded band cannot be replaced; a rate update on it is fine.
//
// Ordering is deliberately NOT re-validated: an edit may leave limits
// non-monotonic and the allocator will still walk them in table order.
// Correcting the ordering here would silently change computed bills, so the
// permissiveness is kept.
func (s Schedule) UpdateBand(c Class, index int, limitKWh, rate *float64) Schedule {
	bands := s[c]
	if index < 0 || index >= len(bands) {
		return s.Clone()
	}
	out := s.Clone()
	b := &out[c][index]
	if limitKWh != nil && !b.Limit.IsUnbounded() {
		b.Limit = Bounded(*limitKWh)
	}
	if rate != nil {
		b.Rate = *rate
	}
	return out
}

// AddBand inserts a zero-rate band immediately before the unbounded band,
// with a default capacity just above the previous bounded band's. The
// unbounded band stays last and unique.
func (s Schedule) AddBand(c Class) Schedule {
	out := s.Clone()
	bands := out[c]
	if len(bands) == 0 {
		out[c] = []Band{{Limit: Unbounded()}}
		bands = out[c]
	}

	limit := float64(addBandStepKWh)
	if len(bands) > 1 {
		if kwh, ok := bands[len(bands)-2].Limit.KWh(); ok {
			limit = kwh + addBandStepKWh
		}
	}

	fresh := Band{Limit: Bounded(limit), Rate: 0}
	last := bands[len(bands)-1]
	out[c] = append(append(bands[:len(bands)-1:len(bands)-1], fresh), last)
	return out
}

// RemoveBand deletes the band at index. Removing the unbounded band is
// always rejected, so a class never drops below one band; out-of-range
// indices are a no-op.
func (s Schedule) RemoveBand(c Class, index int) Schedule {
	bands := s[c]
	if index < 0 || index >= len(bands)-1 {
		return s.Clone()
	}
	out := s.Clone()
	out[c] = append(out[c][:index:index], out[c][index+1:]...)
	return out
}
