package domain

// Sector buckets a security for the fixed assumption tables. These are
// configuration-as-data: nothing here is derived from the security itself.
type Sector string

const (
	SectorTechnology      Sector = "technology"
	SectorFintech         Sector = "fintech"
	SectorConsumerStaples Sector = "consumer_staples"
	SectorUtilities       Sector = "utilities"
	SectorIndustrial      Sector = "industrial"
	SectorCyclical        Sector = "cyclical"
)

// GrowthStyle classifies how the market tends to reward earnings growth in a
// sector. The multiple feeds the growth-multiple intrinsic value method.
type GrowthStyle string

const (
	StyleSlowGrower GrowthStyle = "slow_grower"
	StyleStalwart   GrowthStyle = "stalwart"
	StyleFastGrower GrowthStyle = "fast_grower"
)

var idealGrowthMultiples = map[GrowthStyle]float64{
	StyleSlowGrower: 1.0,
	StyleStalwart:   1.5,
	StyleFastGrower: 2.0,
}

// IdealGrowthMultiple returns the style's growth multiple, defaulting to the
// stalwart value for unknown styles.
func IdealGrowthMultiple(s GrowthStyle) float64 {
	if m, ok := idealGrowthMultiples[s]; ok {
		return m
	}
	return idealGrowthMultiples[StyleStalwart]
}

// TargetMultiples are the sector-fixed valuation anchors.
type TargetMultiples struct {
	PER      float64 `json:"per"`
	EvEbitda float64 `json:"evEbitda"`
	EvEbit   float64 `json:"evEbit"`
	EvFcf    float64 `json:"evFcf"`
}

// SectorProfile bundles everything the calculator needs to know about a
// sector bucket.
type SectorProfile struct {
	DiscountRate float64
	Targets      TargetMultiples
	Style        GrowthStyle
}

// DefaultSector is the documented fallback when a caller supplies an unknown
// sector classification.
const DefaultSector = SectorIndustrial

var sectorProfiles = map[Sector]SectorProfile{
	SectorTechnology: {
		DiscountRate: 0.095,
		Targets:      TargetMultiples{PER: 25, EvEbitda: 18, EvEbit: 20, EvFcf: 24},
		Style:        StyleFastGrower,
	},
	SectorFintech: {
		DiscountRate: 0.095,
		Targets:      TargetMultiples{PER: 22, EvEbitda: 16, EvEbit: 18, EvFcf: 22},
		Style:        StyleFastGrower,
	},
	SectorConsumerStaples: {
		DiscountRate: 0.075,
		Targets:      TargetMultiples{PER: 20, EvEbitda: 14, EvEbit: 16, EvFcf: 20},
		Style:        StyleStalwart,
	},
	SectorUtilities: {
		DiscountRate: 0.075,
		Targets:      TargetMultiples{PER: 16, EvEbitda: 11, EvEbit: 13, EvFcf: 16},
		Style:        StyleSlowGrower,
	},
	SectorIndustrial: {
		DiscountRate: 0.11,
		Targets:      TargetMultiples{PER: 17, EvEbitda: 11, EvEbit: 13, EvFcf: 17},
		Style:        StyleStalwart,
	},
	SectorCyclical: {
		DiscountRate: 0.11,
		Targets:      TargetMultiples{PER: 14, EvEbitda: 9, EvEbit: 11, EvFcf: 14},
		Style:        StyleStalwart,
	},
}

// ProfileFor looks up the sector profile, falling back to DefaultSector.
func ProfileFor(s Sector) SectorProfile {
	if p, ok := sectorProfiles[s]; ok {
		return p
	}
	return sectorProfiles[DefaultSector]
}
