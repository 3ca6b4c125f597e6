package timeline

import "math"

// Zoom defaults
const (
	DefaultScale    = 10.0
	DefaultMinScale = 0.5
	DefaultMaxScale = 20.0
	DefaultStep     = 0.5
)

// ZoomState holds the current bar-width multiplier and its bounds.
// Scale is kept within [Min, Max] by every method that changes it.
type ZoomState struct {
	Scale float64 `json:"scale"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Step  float64 `json:"step"`
}

// DefaultZoom returns the zoom state used on startup
func DefaultZoom() ZoomState {
	return ZoomState{
		Scale: DefaultScale,
		Min:   DefaultMinScale,
		Max:   DefaultMaxScale,
		Step:  DefaultStep,
	}
}

// NewZoom builds a zoom state, repairing inverted bounds and clamping the initial scale
func NewZoom(scale, lo, hi, step float64) ZoomState {
	if lo > hi {
		lo, hi = hi, lo
	}
	if step <= 0 || math.IsNaN(step) {
		step = DefaultStep
	}
	z := ZoomState{Scale: lo, Min: lo, Max: hi, Step: step}
	return z.SetScale(scale)
}

// SetScale returns the state with Scale set to v clamped to [Min, Max].
// NaN leaves the state unchanged.
func (z ZoomState) SetScale(v float64) ZoomState {
	if math.IsNaN(v) {
		return z
	}
	z.Scale = math.Max(z.Min, math.Min(z.Max, v))
	return z
}

// ZoomIn increases Scale by one Step
func (z ZoomState) ZoomIn() ZoomState {
	return z.SetScale(z.Scale + z.Step)
}

// ZoomOut decreases Scale by one Step
func (z ZoomState) ZoomOut() ZoomState {
	return z.SetScale(z.Scale - z.Step)
}

// BarWidth returns the pixel width of a bar at this scale. Never below 1.
func (z ZoomState) BarWidth() float64 {
	return math.Max(1, BaseWidthPixels*z.Scale)
}
