package profit

import "math"

const (
	sensitivityLow     = 0.6
	sensitivityHigh    = 1.6
	sensitivityStepPct = 0.05
	sensitivityMinStep = 100
)

// Point is one sample of net profit against external sales.
type Point struct {
	ExternalSales float64 `json:"external_sales"`
	NetProfit     float64 `json:"net_profit"`
}

// Sensitivity sweeps external sales from 60% to 160% of the current value
// and returns net profit at each step, all other levers held. When current
// external sales are zero the sweep is centred on fallbackBase instead.
// The step is 5% of the base, never less than 100. The sweep stops early
// at the first point whose profit cannot be represented.
func Sensitivity(in LeverInputs, fallbackBase float64) ([]Point, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in, _ = in.Normalize()

	base := math.Trunc(in.ExternalSales)
	if base <= 0 {
		base = math.Trunc(fallbackBase)
	}
	if base <= 0 || !isFinite(base) {
		return nil, nil
	}

	step := math.Max(sensitivityMinStep, math.Trunc(base*sensitivityStepPct))
	lo := math.Trunc(base * sensitivityLow)
	hi := math.Trunc(base * sensitivityHigh)
	if !isFinite(hi) {
		hi = math.MaxFloat64
	}
	n := int(math.Floor((hi-lo)/step)) + 1

	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		at := in
		at.ExternalSales = lo + float64(i)*step
		net := compute(at).NetProfit
		if !isFinite(at.ExternalSales) || !isFinite(net) {
			break
		}
		points = append(points, Point{ExternalSales: at.ExternalSales, NetProfit: net})
	}
	return points, nil
}
