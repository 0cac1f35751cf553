package agronomy

// wiltingPointRatio is the empirical field capacity to permanent wilting point ratio
const wiltingPointRatio = 2.5

// KelvinToCelsius converts a temperature in Kelvin to degrees Celsius
func KelvinToCelsius(kelvin float64) float64 {
	return kelvin - 273.15
}

// JensenHaiseET0 estimates reference evapotranspiration (mm/day) from the daily
// maximum temperature in degrees Celsius. Very low temperatures give a negative value.
func JensenHaiseET0(tMaxC float64) float64 {
	return 0.025 * (tMaxC + 273 - 2.5)
}

// WiltingPoint derives the permanent wilting point from field capacity
func WiltingPoint(fieldCapacity float64) float64 {
	return fieldCapacity / wiltingPointRatio
}

// ActualET scales ET0 by the relative soil moisture. Below the wilting point
// no water is available to the crop and the result is zero.
// soilMoistureMax must be positive.
func ActualET(et0, soilMoisture, soilMoistureMax, pwp float64) float64 {
	if soilMoisture < pwp {
		return 0
	}
	return et0 * (soilMoisture / soilMoistureMax)
}
