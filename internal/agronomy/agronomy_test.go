package agronomy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestJensenHaiseET0(t *testing.T) {
	assert.InDelta(t, 7.3875, JensenHaiseET0(25.0), tolerance)
	assert.InDelta(t, 7.43375, JensenHaiseET0(KelvinToCelsius(300.0)), tolerance)

	// very cold days produce a negative reference ET, which is a valid output
	assert.Less(t, JensenHaiseET0(-280), 0.0)
}

func TestActualET(t *testing.T) {
	tests := []struct {
		name         string
		et0          float64
		soilMoisture float64
		max          float64
		pwp          float64
		expected     float64
	}{
		{name: "below wilting point", et0: 5.0, soilMoisture: 0.1, max: 0.5, pwp: 0.2, expected: 0},
		{name: "above wilting point", et0: 5.0, soilMoisture: 0.4, max: 0.5, pwp: 0.2, expected: 4.0},
		{name: "exactly at wilting point", et0: 5.0, soilMoisture: 0.2, max: 0.5, pwp: 0.2, expected: 2.0},
		{name: "at field capacity", et0: 6.0, soilMoisture: 0.5, max: 0.5, pwp: 0.2, expected: 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ActualET(tt.et0, tt.soilMoisture, tt.max, tt.pwp), tolerance)
		})
	}
}

func TestIrrigation(t *testing.T) {
	required := IrrigationRequirement(7.3875, 0.3)
	assert.InDelta(t, 2.21625, required, tolerance)

	assert.InDelta(t, 1.32975, AdjustIrrigation(required, 0.4, 0), tolerance)
	assert.Equal(t, 0.0, AdjustIrrigation(required, 0.4, 2.0))
}

func TestAdjustIrrigation_NotCappedByRequirement(t *testing.T) {
	// negative soil moisture readings scale the requirement up; only the floor applies
	adjusted := AdjustIrrigation(2.0, -0.5, 0)
	assert.InDelta(t, 3.0, adjusted, tolerance)
}

func TestKcFor(t *testing.T) {
	kc, err := KcFor("Wheat", StageMidSeason)
	require.NoError(t, err)
	assert.Equal(t, 1.15, kc)

	kc, err = KcFor("Corn", StageLateSeason)
	require.NoError(t, err)
	assert.Equal(t, 0.6, kc)

	_, err = KcFor("Barley", StageInitial)
	assert.True(t, errors.Is(err, ErrUnknownCropType))
}

func TestCropTypes(t *testing.T) {
	assert.Equal(t, []string{"Corn", "Cotton", "Redgram", "Rice", "Wheat"}, CropTypes())
	assert.True(t, IsKnownCrop("Rice"))
	assert.False(t, IsKnownCrop("rice"))
}

func TestCompute_WheatMidSeason(t *testing.T) {
	today := time.Date(2025, 7, 1, 13, 0, 0, 0, time.Local)

	result, err := Compute(Inputs{
		CropType:       "Wheat",
		SowingDate:     today.AddDate(0, 0, -45),
		FieldCapacity:  0.5,
		Today:          today,
		TempMaxKelvin:  300.0,
		RainForecastMM: 1.0,
		SoilMoisture:   0.3,
	})
	require.NoError(t, err)

	assert.Equal(t, StageMidSeason, result.Stage)
	assert.Equal(t, 45, result.DaysSinceSowing)
	assert.Equal(t, 1.15, result.Kc)
	assert.InDelta(t, 0.2, result.WiltingPoint, tolerance)
	assert.InDelta(t, 26.85, result.TempMaxC, tolerance)
	assert.InDelta(t, 7.43375, result.ET0, tolerance)
	assert.InDelta(t, 4.46025, result.AET, tolerance)
	assert.InDelta(t, 8.5488125, result.IrrigationRequired, tolerance)
	assert.InDelta(t, 4.98416875, result.AdjustedIrrigation, tolerance)
}

func TestCompute_Errors(t *testing.T) {
	base := Inputs{
		CropType:      "Rice",
		SowingDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		FieldCapacity: 0.4,
		Today:         time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		TempMaxKelvin: 295,
		SoilMoisture:  0.2,
	}

	t.Run("unknown crop", func(t *testing.T) {
		in := base
		in.CropType = "Tomato"
		_, err := Compute(in)
		assert.ErrorIs(t, err, ErrUnknownCropType)
	})

	t.Run("zero field capacity", func(t *testing.T) {
		in := base
		in.FieldCapacity = 0
		_, err := Compute(in)
		assert.ErrorIs(t, err, ErrInvalidFieldProfile)
	})

	t.Run("field capacity above one", func(t *testing.T) {
		in := base
		in.FieldCapacity = 1.2
		_, err := Compute(in)
		assert.ErrorIs(t, err, ErrInvalidFieldProfile)
	})
}
