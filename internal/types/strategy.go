package types

// StrategyKind selects one of the built-in strategy variants.
type StrategyKind string

const (
	// StrategyCrossoverHullFastBelow buys while the fast Hull is below the slow Hull.
	StrategyCrossoverHullFastBelow StrategyKind = "crossover_hull_fast_below"
	// StrategyCrossoverHullFastAbove buys while the fast Hull is above the slow Hull.
	StrategyCrossoverHullFastAbove StrategyKind = "crossover_hull_fast_above"
	StrategySimpleHull             StrategyKind = "simple_hull"
	StrategyMomentumHull           StrategyKind = "momentum_hull"
	StrategyMomentumHullCombo      StrategyKind = "momentum_hull_combo"
	StrategyLunarPhase             StrategyKind = "lunar_phase"
	StrategyLunarPhaseReversed     StrategyKind = "lunar_phase_reversed"
	StrategyScoreClassification    StrategyKind = "score_classification"
	StrategyScoreRegression        StrategyKind = "score_regression"
	StrategyAlwaysBuy              StrategyKind = "always_buy"
)

var AllStrategyKinds = []any{
	StrategyCrossoverHullFastBelow,
	StrategyCrossoverHullFastAbove,
	StrategySimpleHull,
	StrategyMomentumHull,
	StrategyMomentumHullCombo,
	StrategyLunarPhase,
	StrategyLunarPhaseReversed,
	StrategyScoreClassification,
	StrategyScoreRegression,
	StrategyAlwaysBuy,
}

// UsesHull reports whether the variant reads Hull moving averages of the given period.
func (k StrategyKind) UsesHull() bool {
	switch k {
	case StrategyCrossoverHullFastBelow, StrategyCrossoverHullFastAbove,
		StrategySimpleHull, StrategyMomentumHull, StrategyMomentumHullCombo:
		return true
	default:
		return false
	}
}

// IsValid reports whether k names a built-in variant.
func (k StrategyKind) IsValid() bool {
	for _, kind := range AllStrategyKinds {
		if kind == k {
			return true
		}
	}

	return false
}
