// internal/sizing/selector.go
package sizing

import (
	"fmt"
	"sort"
)

// Selection is the pair of components recommended for the array and the pump.
type Selection struct {
	Panel         Panel
	PanelQuantity int
	Pump          Pump
}

// SelectPanel applies the panel policy of the target:
//   - cost: cheapest panel rated strictly above minWatt
//   - performance: highest efficiency, then highest power
//
// Remaining ties go to the lowest catalog id.
func SelectPanel(panels []Panel, target OptimizationTarget, minWatt int) (Panel, bool) {
	if target == TargetCost {
		return first(panels,
			func(p Panel) bool { return p.PowerWatt > minWatt },
			func(a, b Panel) bool {
				if a.Cost != b.Cost {
					return a.Cost < b.Cost
				}
				return a.ID < b.ID
			})
	}
	return first(panels,
		func(Panel) bool { return true },
		func(a, b Panel) bool {
			if a.Efficiency != b.Efficiency {
				return a.Efficiency > b.Efficiency
			}
			if a.PowerWatt != b.PowerWatt {
				return a.PowerWatt > b.PowerWatt
			}
			return a.ID < b.ID
		})
}

// SelectPump applies the pump policy of the target among pumps rated at
// least requiredKw:
//   - cost: cheapest
//   - performance: smallest rating (closest fit)
//
// When the policy finds nothing the cheapest qualifying pump is tried.
func SelectPump(pumps []Pump, target OptimizationTarget, requiredKw float64) (Pump, bool) {
	qualifies := func(p Pump) bool { return p.PowerKw >= requiredKw }
	cheapest := func(a, b Pump) bool {
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		return a.ID < b.ID
	}

	var (
		pump Pump
		ok   bool
	)
	if target == TargetCost {
		pump, ok = first(pumps, qualifies, cheapest)
	} else {
		pump, ok = first(pumps, qualifies, func(a, b Pump) bool {
			if a.PowerKw != b.PowerKw {
				return a.PowerKw < b.PowerKw
			}
			return a.ID < b.ID
		})
	}
	if ok {
		return pump, true
	}
	return first(pumps, qualifies, cheapest)
}

// PanelCount is the number of panels needed to reach requiredWatt.
func PanelCount(requiredWatt float64, panel Panel) (int, error) {
	n, ok := unitCount(requiredWatt, float64(panel.PowerWatt))
	if !ok {
		return 0, fmt.Errorf("%w: %.4g W needs more %s panels than can be counted", ErrInvalidInput, requiredWatt, panel.DisplayName())
	}
	return n, nil
}

// SelectComponents picks the panel and pump for a generation plan.
func SelectComponents(c Catalog, target OptimizationTarget, plan GenerationPlan, p Params) (Selection, error) {
	panel, ok := SelectPanel(c.Panels, target, p.BudgetMinPanelWatt)
	if !ok {
		return Selection{}, fmt.Errorf("%w: no panel matches the %s policy among %d catalog panels", ErrNoPanelAvailable, target, len(c.Panels))
	}
	pump, ok := SelectPump(c.Pumps, target, plan.PumpPowerKw)
	if !ok {
		return Selection{}, fmt.Errorf("%w: no pump rated at least %.2f kW among %d catalog pumps", ErrNoPumpAvailable, plan.PumpPowerKw, len(c.Pumps))
	}
	quantity, err := PanelCount(plan.RequiredPeakPowerKwc*1000, panel)
	if err != nil {
		return Selection{}, err
	}
	return Selection{
		Panel:         panel,
		PanelQuantity: quantity,
		Pump:          pump,
	}, nil
}

func first[T any](items []T, keep func(T) bool, less func(a, b T) bool) (T, bool) {
	var candidates []T
	for _, item := range items {
		if keep(item) {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		var zero T
		return zero, false
	}
	sort.SliceStable(candidates, func(i, j int) bool { return less(candidates[i], candidates[j]) })
	return candidates[0], true
}
