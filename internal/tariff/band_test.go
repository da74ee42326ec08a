package tariff

import (
	"encoding/json"
	"testing"
)

func TestLimitVariants(t *testing.T) {
	b := Bounded(50)
	if b.IsUnbounded() {
		t.Error("Bounded(50) reports unbounded")
	}
	if kwh, ok := b.KWh(); !ok || kwh != 50 {
		t.Errorf("Bounded(50).KWh() = %v, %v", kwh, ok)
	}

	u := Unbounded()
	if !u.IsUnbounded() {
		t.Error("Unbounded() reports bounded")
	}
	if _, ok := u.KWh(); ok {
		t.Error("Unbounded().KWh() reported a value")
	}
}

func TestBandJSONNullLimitMeansUnbounded(t *testing.T) {
	raw, err := json.Marshal([]Band{
		{Limit: Bounded(50), Rate: 1.4878},
		{Limit: Unbounded(), Rate: 1.90},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back []Band
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 2 {
		t.Fatalf("length = %d, want 2", len(back))
	}
	if kwh, ok := back[0].Limit.KWh(); !ok || kwh != 50 {
		t.Errorf("bounded band lost its limit: %+v", back[0])
	}
	if !back[1].Limit.IsUnbounded() {
		t.Errorf("null limit did not decode as unbounded: %+v", back[1])
	}
	if back[1].Rate != 1.90 {
		t.Errorf("rate = %v, want 1.90", back[1].Rate)
	}
}
