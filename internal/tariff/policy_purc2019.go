package tariff

// The 2019 gazette, kept for re-billing disputes over old periods. It used
// tiered non-residential bands and a straight per-day service charge
// rather than a prorated monthly one.
func init() {
	RegisterPolicy(Policy{
		Key:  "purc2019",
		Name: "PURC 2019 Quarterly Review",

		StreetLightRate:     0.03,
		ElectrificationRate: 0.02,
		HealthLevyRate:      0.05,
		VATRate:             0.125,

		ServiceChargePerDay: map[Class]float64{
			ClassResidential:    0.0687,
			ClassNonResidential: 0.401,
		},

		Defaults: Schedule{
			ClassResidential: {
				{Limit: Bounded(50), Rate: 0.3383},
				{Limit: Bounded(250), Rate: 0.6814},
				{Limit: Unbounded(), Rate: 0.8843},
			},
			ClassNonResidential: {
				{Limit: Bounded(300), Rate: 0.6688},
				{Limit: Bounded(300), Rate: 0.7156},
				{Limit: Unbounded(), Rate: 1.1299},
			},
		},
	})
}
