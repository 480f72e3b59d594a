package adjustments

import (
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// WeatherConfig tunes the threshold-banded weather adjustments.
type WeatherConfig struct {
	Enabled bool

	ColdTempF  float64 // below this, scoring suppression applies
	ColdPoints float64

	WindMPH    float64 // above this, the (larger) wind adjustment applies
	WindPoints float64

	PrecipProb   float64 // above this, the precipitation adjustment applies
	PrecipPoints float64
}

// WeatherAdjustmentCalculator converts forecast conditions into an
// undirected scoring-suppression magnitude in points. Weather affects the
// scoring environment, not one side; mapping the magnitude onto a side is
// the caller's concern.
type WeatherAdjustmentCalculator struct {
	config WeatherConfig
}

// NewWeatherAdjustmentCalculator creates a weather calculator.
func NewWeatherAdjustmentCalculator(config WeatherConfig) *WeatherAdjustmentCalculator {
	return &WeatherAdjustmentCalculator{config: config}
}

// Name implements AdjustmentCalculator.
func (c *WeatherAdjustmentCalculator) Name() string {
	return "weather"
}

// Enabled implements AdjustmentCalculator.
func (c *WeatherAdjustmentCalculator) Enabled() bool {
	return c.config.Enabled
}

// Compute returns 0 unconditionally for domes and documented-closed
// roofs, without consulting the forecast. Otherwise the threshold bands
// combine additively.
func (c *WeatherAdjustmentCalculator) Compute(forecast *models.Forecast, enclosure models.EnclosureType, roofClosed bool) float64 {
	if !c.config.Enabled {
		return 0
	}

	if enclosure == models.EnclosureDome || roofClosed {
		return 0
	}

	if forecast == nil {
		// Absence of a forecast is not a forecast of calm weather.
		return 0
	}

	adj := 0.0

	if forecast.TemperatureF < c.config.ColdTempF {
		adj += c.config.ColdPoints
	}

	if forecast.WindMPH > c.config.WindMPH {
		adj += c.config.WindPoints
	}

	if forecast.PrecipProb > c.config.PrecipProb {
		adj += c.config.PrecipPoints
	}

	return adj
}
