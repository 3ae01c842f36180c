package main

// Adjustment models a scrollbar range: a value bounded by [lower, upper],
// a viewport (page size) and step/page increments. Widgets own their
// adjustments and reconfigure them on every layout pass.
type Adjustment struct {
	value         float64
	lower         float64
	upper         float64
	stepIncrement float64
	pageIncrement float64
	pageSize      float64

	onValueChanged func()
}

// NewAdjustment creates an empty adjustment.
func NewAdjustment() *Adjustment {
	return &Adjustment{}
}

// OnValueChanged registers the single change listener. The canvas uses it to
// queue a layout pass; surfaces use it to queue a redraw.
func (a *Adjustment) OnValueChanged(fn func()) {
	a.onValueChanged = fn
}

// Configure sets all adjustment fields at once, clamping value into
// [lower, upper-pageSize]. The change listener fires only if the clamped
// value differs from the previous one.
func (a *Adjustment) Configure(value, lower, upper, stepIncrement, pageIncrement, pageSize float64) {
	a.lower = lower
	a.upper = upper
	a.stepIncrement = stepIncrement
	a.pageIncrement = pageIncrement
	a.pageSize = pageSize
	a.SetValue(value)
}

// SetValue clamps v into the valid range and notifies the listener if the
// value actually changed.
func (a *Adjustment) SetValue(v float64) {
	if max := a.MaxValue(); v > max {
		v = max
	}
	if v < a.lower {
		v = a.lower
	}
	if v == a.value {
		return
	}
	a.value = v
	if a.onValueChanged != nil {
		a.onValueChanged()
	}
}

// MaxValue is the largest settable value: upper minus one viewport.
func (a *Adjustment) MaxValue() float64 {
	max := a.upper - a.pageSize
	if max < a.lower {
		max = a.lower
	}
	return max
}

func (a *Adjustment) Value() float64         { return a.value }
func (a *Adjustment) Lower() float64         { return a.lower }
func (a *Adjustment) Upper() float64         { return a.upper }
func (a *Adjustment) StepIncrement() float64 { return a.stepIncrement }
func (a *Adjustment) PageIncrement() float64 { return a.pageIncrement }
func (a *Adjustment) PageSize() float64      { return a.pageSize }
