package strategy

import (
	"fmt"

	"github.com/rxtech-lab/bitbroker/internal/indicator"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

// minMomentumHullValues is the number of Hull values needed to compare the
// latest value against the one two ticks back.
const minMomentumHullValues = 3

// MomentumHull tracks the direction of the Hull curve and only emits a desire
// on the tick the direction flips.
type MomentumHull struct {
	period  int
	seeding Seeding
	hulls   []float64
	trendUp bool
}

// NewMomentumHull seeds the Hull history from warmup. In incremental mode the
// warm-up series is computed once here; recompute mode ignores the seed and
// rebuilds the series from the price history on every tick.
func NewMomentumHull(period int, seeding Seeding, warmup []float64) (*MomentumHull, error) {
	if seeding == "" {
		seeding = SeedingIncremental
	}

	m := &MomentumHull{
		period:  period,
		seeding: seeding,
		trendUp: true,
	}

	switch seeding {
	case SeedingIncremental:
		if len(warmup) >= indicator.HMASeriesWindow(period) {
			hulls, err := indicator.HMA(warmup, period)
			if err != nil {
				return nil, err
			}
			m.hulls = hulls
		}
	case SeedingRecompute:
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown momentum seeding: %s", seeding)
	}

	return m, nil
}

func (m *MomentumHull) Name() string {
	return fmt.Sprintf("%s_%d", m.Kind(), m.period)
}

func (m *MomentumHull) Kind() types.StrategyKind {
	return types.StrategyMomentumHull
}

// TrendUp reports the current trend flag.
func (m *MomentumHull) TrendUp() bool {
	return m.trendUp
}

// Hulls returns the Hull history the trend is derived from.
func (m *MomentumHull) Hulls() []float64 {
	return m.hulls
}

func (m *MomentumHull) ComputeDesire(history *types.PriceHistory, data types.MarketData) (types.Desire, error) {
	if err := m.updateHulls(history.Closes()); err != nil {
		return types.DesireNone, err
	}

	if len(m.hulls) < minMomentumHullValues {
		return types.DesireNone, errors.NewInsufficientHistoryErrorf(
			minMomentumHullValues, len(m.hulls), "momentum hull has not accumulated enough values")
	}

	latest := m.hulls[len(m.hulls)-1]
	earlier := m.hulls[len(m.hulls)-3]

	flipped := false
	if !m.trendUp && latest > earlier {
		m.trendUp = true
		flipped = true
	} else if m.trendUp && latest < earlier {
		m.trendUp = false
		flipped = true
	}

	if !flipped {
		return types.DesireNone, nil
	}

	if data.Close < latest {
		return types.DesireSell, nil
	}

	return types.DesireBuy, nil
}

func (m *MomentumHull) updateHulls(closes []float64) error {
	if m.seeding == SeedingRecompute {
		hulls, err := indicator.HMA(closes, m.period)
		if err != nil {
			return err
		}
		m.hulls = hulls

		return nil
	}

	hull, err := indicator.HMALastValue(closes, m.period)
	if err != nil {
		return err
	}
	m.hulls = append(m.hulls, hull)

	return nil
}
