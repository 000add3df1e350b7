// internal/sizing/storage.go
package sizing

import (
	"fmt"
	"math"
	"sort"
)

// StoragePlan is the battery bank needed to cover the autonomy period.
type StoragePlan struct {
	Battery               Battery
	Quantity              int
	TotalEnergyToStoreKwh float64
	TotalCapacityKwh      float64
	UsableCapacityKwh     float64
}

// SelectBattery returns the battery with the greatest rated capacity. Ties
// go to the lowest catalog id.
func SelectBattery(batteries []Battery) (Battery, bool) {
	if len(batteries) == 0 {
		return Battery{}, false
	}
	ranked := append([]Battery(nil), batteries...)
	sort.SliceStable(ranked, func(i, j int) bool {
		ci, cj := ranked[i].CapacityKwh(), ranked[j].CapacityKwh()
		if ci != cj {
			return ci > cj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked[0], true
}

// SizeStorage sizes the bank for autonomyDays of dailyEnergyKwh. It returns
// nil when no autonomy is requested.
func SizeStorage(dailyEnergyKwh, autonomyDays float64, batteries []Battery) (*StoragePlan, error) {
	if autonomyDays <= 0 {
		return nil, nil
	}
	battery, ok := SelectBattery(batteries)
	if !ok {
		return nil, fmt.Errorf("%w: %.2f autonomy days requested but the catalog has no battery", ErrNoBatteryAvailable, autonomyDays)
	}

	toStore := dailyEnergyKwh * autonomyDays
	usable := battery.UsableCapacityKwh()
	quantity, ok := unitCount(toStore, usable)
	if !ok {
		return nil, fmt.Errorf("%w: %.4g kWh over %.2f autonomy days needs more batteries than can be counted", ErrInvalidInput, toStore, autonomyDays)
	}

	return &StoragePlan{
		Battery:               battery,
		Quantity:              quantity,
		TotalEnergyToStoreKwh: toStore,
		TotalCapacityKwh:      float64(quantity) * battery.CapacityKwh(),
		UsableCapacityKwh:     float64(quantity) * usable,
	}, nil
}

// unitCount is ceil(need/per) as an int, 0 when per <= 0. ok is false when
// the count is not finite or does not fit an int.
func unitCount(need, per float64) (int, bool) {
	if per <= 0 {
		return 0, true
	}
	n := math.Ceil(need / per)
	if math.IsNaN(n) || n < 0 || n >= float64(math.MaxInt) {
		return 0, false
	}
	return int(n), true
}
