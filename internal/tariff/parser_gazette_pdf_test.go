package tariff

import "testing"

func TestParseGazetteFromText(t *testing.T) {
	sample := `
PUBLIC UTILITIES REGULATORY COMMISSION
Electricity Tariffs, Effective 1 June 2023

RESIDENTIAL
0 - 50 kWh 1.4878
51 + kWh 1.90
Service Charge (GHS/month) 2.13

NON-RESIDENTIAL
0 + kWh 1.59
Service Charge (GHS/month) 12.43
`
	g, err := ParseGazetteFromText(sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.EffectiveDate != "1 June 2023" {
		t.Errorf("effective date = %q", g.EffectiveDate)
	}

	res := g.Bands[ClassResidential]
	if len(res) != 2 {
		t.Fatalf("residential bands = %d, want 2", len(res))
	}
	if kwh, ok := res[0].Limit.KWh(); !ok || kwh != 50 {
		t.Errorf("lifeline band limit = %+v, want 50", res[0].Limit)
	}
	if res[0].Rate != 1.4878 {
		t.Errorf("lifeline rate = %v", res[0].Rate)
	}
	if !res[1].Limit.IsUnbounded() || res[1].Rate != 1.90 {
		t.Errorf("open band = %+v", res[1])
	}

	nonres := g.Bands[ClassNonResidential]
	if len(nonres) != 1 || !nonres[0].Limit.IsUnbounded() || nonres[0].Rate != 1.59 {
		t.Errorf("non-residential bands = %+v", nonres)
	}

	if g.ServiceChargeMonthly[ClassResidential] != 2.13 {
		t.Errorf("residential service charge = %v", g.ServiceChargeMonthly[ClassResidential])
	}
	if g.ServiceChargeMonthly[ClassNonResidential] != 12.43 {
		t.Errorf("non-residential service charge = %v", g.ServiceChargeMonthly[ClassNonResidential])
	}
}

func TestParseGazetteInclusiveRangeSpans(t *testing.T) {
	sample := `
RESIDENTIAL
0 - 50 kWh 0.3383
51 - 300 kWh 0.6814
301 + kWh 0.8843
`
	g, err := ParseGazetteFromText(sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bands := g.Bands[ClassResidential]
	if len(bands) != 3 {
		t.Fatalf("bands = %d, want 3", len(bands))
	}
	if kwh, _ := bands[0].Limit.KWh(); kwh != 50 {
		t.Errorf("first span = %v, want 50", kwh)
	}
	// "51 - 300" covers 250 units inclusive.
	if kwh, _ := bands[1].Limit.KWh(); kwh != 250 {
		t.Errorf("second span = %v, want 250", kwh)
	}
}

func TestParseGazetteRejectsMissingOpenBand(t *testing.T) {
	sample := `
RESIDENTIAL
0 - 50 kWh 1.4878
`
	if _, err := ParseGazetteFromText(sample); err == nil {
		t.Fatal("expected error for section without an open-ended band")
	}
}

func TestParseGazetteRejectsEmptyText(t *testing.T) {
	if _, err := ParseGazetteFromText("no tariff tables here"); err == nil {
		t.Fatal("expected error for text without tariff sections")
	}
}

func TestGazetteScheduleSatisfiesInvariants(t *testing.T) {
	sample := `
RESIDENTIAL
0 - 50 kWh 1.4878
51 + kWh 1.90

NON-RESIDENTIAL
0 + kWh 1.59
`
	g, err := ParseGazetteFromText(sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := g.Schedule()
	for c, bands := range s {
		if !bands[len(bands)-1].Limit.IsUnbounded() {
			t.Errorf("class %s schedule does not end unbounded", c)
		}
	}

	// The converted schedule is detached from the gazette.
	s[ClassResidential][0].Rate = 99
	if g.Bands[ClassResidential][0].Rate != 1.4878 {
		t.Error("Schedule() aliases gazette bands")
	}
}
