// internal/sizing/errors.go
package sizing

import "errors"

var (
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrNoBatteryAvailable = errors.New("NO_BATTERY_AVAILABLE")
	ErrNoPanelAvailable   = errors.New("NO_PANEL_AVAILABLE")
	ErrNoPumpAvailable    = errors.New("NO_PUMP_AVAILABLE")
	ErrMissingAssumptions = errors.New("MISSING_ASSUMPTIONS")
)

// ErrorCode returns the code of the sizing error wrapped in err, or "" when
// err does not come from the engine.
func ErrorCode(err error) string {
	for _, known := range []error{
		ErrInvalidInput,
		ErrNoBatteryAvailable,
		ErrNoPanelAvailable,
		ErrNoPumpAvailable,
		ErrMissingAssumptions,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ""
}
