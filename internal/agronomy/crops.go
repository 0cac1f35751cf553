package agronomy

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownCropType is returned when a crop has no entry in the crop table.
var ErrUnknownCropType = errors.New("unknown crop type")

// CropTable maps a crop identifier to its crop coefficients, ordered
// [initial, mid-season, late-season].
var CropTable = map[string][3]float64{
	"Cotton":  {0.3, 1.15, 0.45},
	"Redgram": {0.3, 1.2, 0.5},
	"Wheat":   {0.3, 1.15, 0.45},
	"Rice":    {0.3, 1.2, 0.5},
	"Corn":    {0.3, 1.15, 0.6},
}

// CropTypes returns the known crop identifiers in alphabetical order
func CropTypes() []string {
	crops := make([]string, 0, len(CropTable))
	for crop := range CropTable {
		crops = append(crops, crop)
	}
	sort.Strings(crops)
	return crops
}

// IsKnownCrop reports whether crop has an entry in the crop table
func IsKnownCrop(crop string) bool {
	_, ok := CropTable[crop]
	return ok
}

// KcFor selects the crop coefficient for a crop at the given growth stage
func KcFor(crop string, stage Stage) (float64, error) {
	coefficients, ok := CropTable[crop]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCropType, crop)
	}
	return coefficients[stage.Index()], nil
}
