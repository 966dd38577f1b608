package model

// Dimension tags the physical quantity a feature measures, so that
// reporting layers can attach a unit to it.
type Dimension int

const (
	DimensionNone Dimension = iota
	DimensionQuality
	DimensionIntensity
	DimensionIntensitySquared
	DimensionPosition
	DimensionLength
	DimensionTime
	DimensionVelocity
	DimensionAngle
	DimensionRate
)

func (d Dimension) String() string {
	switch d {
	case DimensionNone:
		return "NONE"
	case DimensionQuality:
		return "QUALITY"
	case DimensionIntensity:
		return "INTENSITY"
	case DimensionIntensitySquared:
		return "INTENSITY_SQUARED"
	case DimensionPosition:
		return "POSITION"
	case DimensionLength:
		return "LENGTH"
	case DimensionTime:
		return "TIME"
	case DimensionVelocity:
		return "VELOCITY"
	case DimensionAngle:
		return "ANGLE"
	case DimensionRate:
		return "RATE"
	default:
		return "UNKNOWN"
	}
}

// Unit renders the unit of d given the model's space and time units.
func (d Dimension) Unit(spaceUnits, timeUnits string) string {
	switch d {
	case DimensionPosition, DimensionLength:
		return spaceUnits
	case DimensionTime:
		return timeUnits
	case DimensionVelocity:
		return spaceUnits + "/" + timeUnits
	case DimensionRate:
		return "/" + timeUnits
	case DimensionAngle:
		return "radians"
	case DimensionIntensitySquared:
		return "Counts^2"
	case DimensionIntensity:
		return "Counts"
	case DimensionQuality, DimensionNone:
		return ""
	default:
		return ""
	}
}
