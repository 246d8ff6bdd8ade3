package strategy

import (
	"fmt"
	"math"

	"TrendWave/internal/model"
)

// Validate checks ordering and value sanity of a price series.
func Validate(series model.PriceSeries) error {
	for i, p := range series.Points {
		if i > 0 && !p.Time.After(series.Points[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s is not after %s", ErrMalformedSeries, i,
				p.Time.Format("2006-01-02"), series.Points[i-1].Time.Format("2006-01-02"))
		}
		for _, v := range [...]float64{p.Open, p.High, p.Low, p.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return fmt.Errorf("%w: bar %d has invalid price %v", ErrMalformedSeries, i, v)
			}
		}
		if math.IsNaN(p.Volume) || math.IsInf(p.Volume, 0) || p.Volume < 0 {
			return fmt.Errorf("%w: bar %d has invalid volume %v", ErrMalformedSeries, i, p.Volume)
		}
	}
	return nil
}
