package business

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfitCalculator_Calculate(t *testing.T) {
	calc := NewProfitCalculator()

	t.Run("transport spread over yield", func(t *testing.T) {
		got := calc.Calculate(ProfitInput{
			Price:              2000,
			Crop:               LookupCrop("Wheat"),
			DistanceKm:         50,
			TransportRatePerKm: 15,
			TemperatureC:       28,
			HumidityPercent:    50,
			TransitHours:       2,
			YieldQuintals:      10,
		})
		assert.InDelta(t, 75.0, got.TransportPerUnit, 1e-9)
		assert.InDelta(t, 1925.0, got.NetPerUnit, 0.5)
	})

	t.Run("yield below one quintal is treated as one", func(t *testing.T) {
		got := calc.Calculate(ProfitInput{
			Price:              1000,
			Crop:               LookupCrop("Cotton"),
			DistanceKm:         10,
			TransportRatePerKm: 15,
			YieldQuintals:      0,
		})
		assert.InDelta(t, 150.0, got.TransportPerUnit, 1e-9)
		assert.Equal(t, 850.0, got.NetPerUnit)
	})

	t.Run("negative profit is preserved", func(t *testing.T) {
		got := calc.NetRealization(ProfitInput{
			Price:              100,
			Crop:               LookupCrop("Cotton"),
			DistanceKm:         300,
			TransportRatePerKm: 15,
			YieldQuintals:      1,
		})
		assert.Equal(t, -4400.0, got)
	})

	t.Run("rounded to two decimals", func(t *testing.T) {
		got := calc.NetRealization(ProfitInput{
			Price:              1000,
			Crop:               LookupCrop("Cotton"),
			DistanceKm:         1,
			TransportRatePerKm: 1,
			YieldQuintals:      3,
		})
		assert.Equal(t, 999.67, got)
	})
}

func TestProfitCalculator_NetNeverExceedsPrice(t *testing.T) {
	calc := NewProfitCalculator()
	for _, crop := range KnownCrops() {
		got := calc.NetRealization(ProfitInput{
			Price:              3000,
			Crop:               crop,
			DistanceKm:         40,
			TransportRatePerKm: 12,
			TemperatureC:       33,
			TransitHours:       6,
			YieldQuintals:      20,
		})
		assert.LessOrEqual(t, got, 3000.0, crop.Name)
	}
}

func TestProfitCalculator_NetDecreasesWithDistance(t *testing.T) {
	calc := NewProfitCalculator()
	prev := 1e18
	for dist := 0.0; dist <= 400; dist += 50 {
		got := calc.NetRealization(ProfitInput{
			Price:              2500,
			Crop:               LookupCrop("Onion"),
			DistanceKm:         dist,
			TransportRatePerKm: 15,
			TemperatureC:       30,
			TransitHours:       dist / AvgTransportSpeedKmh,
			YieldQuintals:      15,
		})
		assert.LessOrEqual(t, got, prev, "dist=%v", dist)
		prev = got
	}
}
