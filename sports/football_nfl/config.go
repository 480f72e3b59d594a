package football_nfl

import (
	"os"
	"strconv"
	"time"

	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/adjustments"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// Config holds NFL-specific rating and edge detection configuration.
type Config struct {
	SportKey           string
	HomeFieldAdvantage float64
	UpdateWeightNew    float64
	FreshnessWindow    time.Duration
	InjuryCeiling      float64
	WorkerCount        int

	KellyFraction    float64
	MaxStakeFraction float64
	TierFractions    map[models.EdgeTier]float64

	EnableInjury      bool
	EnableSituational bool
	EnableWeather     bool
}

// NewConfig creates NFL configuration with defaults and environment
// overrides.
func NewConfig() *Config {
	return &Config{
		SportKey:           getEnvString("SPORT_KEY", "americanfootball_nfl"),
		HomeFieldAdvantage: getEnvFloat("HOME_FIELD_ADVANTAGE", 2.5),
		UpdateWeightNew:    getEnvFloat("UPDATE_WEIGHT_NEW", 0.10),
		FreshnessWindow:    time.Duration(getEnvInt("FRESHNESS_WINDOW_MINUTES", 60)) * time.Minute,
		InjuryCeiling:      getEnvFloat("INJURY_CEILING", 14.0),
		WorkerCount:        getEnvInt("DETECT_WORKERS", 8),
		KellyFraction:      getEnvFloat("KELLY_FRACTION", 0.25),
		MaxStakeFraction:   getEnvFloat("MAX_STAKE_FRACTION", 0.05),
		TierFractions: map[models.EdgeTier]float64{
			models.TierMax:      getEnvFloat("TIER_FRACTION_MAX", 0.05),
			models.TierStrong:   getEnvFloat("TIER_FRACTION_STRONG", 0.03),
			models.TierModerate: getEnvFloat("TIER_FRACTION_MODERATE", 0.02),
			models.TierLean:     getEnvFloat("TIER_FRACTION_LEAN", 0.01),
		},
		EnableInjury:      getEnvBool("ENABLE_INJURY_ADJ", true),
		EnableSituational: getEnvBool("ENABLE_SITUATIONAL_ADJ", true),
		EnableWeather:     getEnvBool("ENABLE_WEATHER_ADJ", true),
	}
}

// GetSportKey implements EngineConfig.
func (c *Config) GetSportKey() string {
	return c.SportKey
}

// GetHomeFieldAdvantage implements EngineConfig.
func (c *Config) GetHomeFieldAdvantage() float64 {
	return c.HomeFieldAdvantage
}

// GetUpdateWeightNew implements EngineConfig.
func (c *Config) GetUpdateWeightNew() float64 {
	return c.UpdateWeightNew
}

// GetFreshnessWindow implements EngineConfig.
func (c *Config) GetFreshnessWindow() time.Duration {
	return c.FreshnessWindow
}

// GetInjuryCeiling implements EngineConfig.
func (c *Config) GetInjuryCeiling() float64 {
	return c.InjuryCeiling
}

// GetWorkerCount implements EngineConfig.
func (c *Config) GetWorkerCount() int {
	return c.WorkerCount
}

// GetKellyFraction implements EngineConfig.
func (c *Config) GetKellyFraction() float64 {
	return c.KellyFraction
}

// GetMaxStakeFraction implements EngineConfig.
func (c *Config) GetMaxStakeFraction() float64 {
	return c.MaxStakeFraction
}

// GetTierFractions implements EngineConfig.
func (c *Config) GetTierFractions() map[models.EdgeTier]float64 {
	return c.TierFractions
}

// InjuryConfig returns the NFL injury impact configuration. Base values
// are points of spread per healthy starter; quarterbacks dominate.
func (c *Config) InjuryConfig() adjustments.InjuryConfig {
	return adjustments.InjuryConfig{
		Enabled: c.EnableInjury,
		PositionValues: map[models.Position]float64{
			"QB": getEnvFloat("INJURY_VALUE_QB", 7.0),
			"RB": getEnvFloat("INJURY_VALUE_RB", 2.0),
			"WR": getEnvFloat("INJURY_VALUE_WR", 1.5),
			"TE": getEnvFloat("INJURY_VALUE_TE", 1.0),
			"OL": getEnvFloat("INJURY_VALUE_OL", 1.0),
			"DL": getEnvFloat("INJURY_VALUE_DL", 1.0),
			"LB": getEnvFloat("INJURY_VALUE_LB", 1.0),
			"CB": getEnvFloat("INJURY_VALUE_CB", 1.5),
			"S":  getEnvFloat("INJURY_VALUE_S", 1.0),
			"K":  getEnvFloat("INJURY_VALUE_K", 0.5),
		},
		DefaultPositionValue: getEnvFloat("INJURY_VALUE_DEFAULT", 0.75),
		StatusMultipliers: map[models.InjuryStatus]float64{
			models.StatusOut:          1.0,
			models.StatusDoubtful:     0.75,
			models.StatusQuestionable: 0.5,
			models.StatusProbable:     0.25,
		},
		RecoveryDays: map[models.Position]int{
			"QB": getEnvInt("RECOVERY_DAYS_QB", 28),
			"RB": getEnvInt("RECOVERY_DAYS_RB", 21),
			"OL": getEnvInt("RECOVERY_DAYS_OL", 35),
		},
		DefaultRecoveryDays: getEnvInt("RECOVERY_DAYS_DEFAULT", 21),
	}
}

// SituationalConfig returns the NFL situational configuration.
func (c *Config) SituationalConfig() adjustments.SituationalConfig {
	return adjustments.SituationalConfig{
		Enabled:          c.EnableSituational,
		EnableRest:       getEnvBool("ENABLE_REST_ADJ", true),
		RestDayPoints:    getEnvFloat("REST_DAY_POINTS", 0.4),
		RestDayCap:       getEnvFloat("REST_DAY_CAP", 2.0),
		EnableTravel:     getEnvBool("ENABLE_TRAVEL_ADJ", true),
		TravelBuckets: []adjustments.TravelBucket{
			{MinMiles: getEnvFloat("TRAVEL_SHORT_MILES", 1000), Penalty: getEnvFloat("TRAVEL_SHORT_POINTS", 0.5)},
			{MinMiles: getEnvFloat("TRAVEL_MEDIUM_MILES", 1500), Penalty: getEnvFloat("TRAVEL_MEDIUM_POINTS", 1.0)},
			{MinMiles: getEnvFloat("TRAVEL_LONG_MILES", 2500), Penalty: getEnvFloat("TRAVEL_LONG_POINTS", 1.5)},
		},
		EnableEmotional:     getEnvBool("ENABLE_EMOTIONAL_ADJ", true),
		RivalryBonus:        getEnvFloat("RIVALRY_BONUS", 1.0),
		EliminationBonus:    getEnvFloat("ELIMINATION_BONUS", 1.5),
		EnableDivisional:    getEnvBool("ENABLE_DIVISIONAL_ADJ", true),
		DivisionalRoadBonus: getEnvFloat("DIVISIONAL_ROAD_BONUS", 0.5),
	}
}

// WeatherConfig returns the NFL weather configuration. Wind carries the
// largest band: it affects passing-heavy offenses most.
func (c *Config) WeatherConfig() adjustments.WeatherConfig {
	return adjustments.WeatherConfig{
		Enabled:      c.EnableWeather,
		ColdTempF:    getEnvFloat("WEATHER_COLD_TEMP_F", 25.0),
		ColdPoints:   getEnvFloat("WEATHER_COLD_POINTS", 1.0),
		WindMPH:      getEnvFloat("WEATHER_WIND_MPH", 15.0),
		WindPoints:   getEnvFloat("WEATHER_WIND_POINTS", 2.0),
		PrecipProb:   getEnvFloat("WEATHER_PRECIP_PROB", 0.6),
		PrecipPoints: getEnvFloat("WEATHER_PRECIP_POINTS", 1.5),
	}
}

// Helper functions for environment variable parsing

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
