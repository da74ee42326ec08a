package tariff

import (
	"encoding/json"
	"testing"
)

func TestApplyDispatch(t *testing.T) {
	p, ok := GetPolicy("purc2023")
	if !ok {
		t.Fatal("purc2023 not registered")
	}
	s := p.Defaults.Clone()

	rate := 2.22
	next := Apply(p, s, Edit{Kind: EditUpdate, Class: ClassResidential, Index: 0, Rate: &rate})
	if next[ClassResidential][0].Rate != 2.22 {
		t.Errorf("update edit not applied: %+v", next[ClassResidential][0])
	}

	next = Apply(p, next, Edit{Kind: EditAdd, Class: ClassResidential})
	if len(next[ClassResidential]) != 3 {
		t.Errorf("add edit not applied: %d bands", len(next[ClassResidential]))
	}

	next = Apply(p, next, Edit{Kind: EditRemove, Class: ClassResidential, Index: 1})
	if len(next[ClassResidential]) != 2 {
		t.Errorf("remove edit not applied: %d bands", len(next[ClassResidential]))
	}

	next = Apply(p, next, Edit{Kind: EditReset, Class: ClassResidential})
	if next[ClassResidential][0].Rate != 1.4878 {
		t.Errorf("reset did not restore defaults: %+v", next[ClassResidential][0])
	}
}

func TestApplyResetAllClasses(t *testing.T) {
	p, _ := GetPolicy("purc2023")
	rate := 9.0
	s := p.Defaults.UpdateBand(ClassResidential, 0, nil, &rate)
	s = s.UpdateBand(ClassNonResidential, 0, nil, &rate)

	next := Apply(p, s, Edit{Kind: EditReset, AllClasses: true})

	if next[ClassResidential][0].Rate != 1.4878 {
		t.Errorf("residential not reset: %+v", next[ClassResidential][0])
	}
	if next[ClassNonResidential][0].Rate != 1.59 {
		t.Errorf("non-residential not reset: %+v", next[ClassNonResidential][0])
	}
}

func TestApplyResetOneClassLeavesOthers(t *testing.T) {
	p, _ := GetPolicy("purc2023")
	rate := 9.0
	s := p.Defaults.UpdateBand(ClassNonResidential, 0, nil, &rate)

	next := Apply(p, s, Edit{Kind: EditReset, Class: ClassResidential})

	if next[ClassNonResidential][0].Rate != 9.0 {
		t.Errorf("reset of residential touched non-residential: %+v", next[ClassNonResidential][0])
	}
}

func TestApplyUnknownKindIsNoOp(t *testing.T) {
	p, _ := GetPolicy("purc2023")
	s := p.Defaults.Clone()

	next := Apply(p, s, Edit{Kind: "frobnicate", Class: ClassResidential})

	for c, bands := range s {
		for i, b := range bands {
			if next[c][i] != b {
				t.Fatalf("unknown edit changed %s band %d", c, i)
			}
		}
	}
}

func TestEditJSONRoundTrip(t *testing.T) {
	limit := 75.0
	e := Edit{Kind: EditUpdate, Class: ClassResidential, Index: 1, LimitKWh: &limit}

	raw, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Edit
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Kind != EditUpdate || back.Index != 1 || back.LimitKWh == nil || *back.LimitKWh != 75 {
		t.Errorf("round trip lost fields: %+v", back)
	}
}
