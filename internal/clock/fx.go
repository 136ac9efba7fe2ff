package clock

import "go.uber.org/fx"

// Module provides the wall clock. Tests substitute Fixed directly.
var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)

// NewSystemClock returns the real clock.
func NewSystemClock() Clock {
	return SystemClock{}
}
