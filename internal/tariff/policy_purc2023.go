package tariff

// The 2023 PURC gazette: a lifeline block of 50 kWh for residential
// customers, a flat non-residential energy rate, and monthly service
// charges prorated over a 31-day reference month.
func init() {
	RegisterPolicy(Policy{
		Key:  "purc2023",
		Name: "PURC 2023 Major Tariff Review",

		StreetLightRate:     0.03,
		ElectrificationRate: 0.02,
		HealthLevyRate:      0.05,
		VATRate:             0.15,

		ServiceChargeMonthly: map[Class]float64{
			ClassResidential:    2.13,
			ClassNonResidential: 12.43,
		},

		Defaults: Schedule{
			ClassResidential: {
				{Limit: Bounded(50), Rate: 1.4878},
				{Limit: Unbounded(), Rate: 1.90},
			},
			ClassNonResidential: {
				{Limit: Unbounded(), Rate: 1.59},
			},
		},
	})
}
