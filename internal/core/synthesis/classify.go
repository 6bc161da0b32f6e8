package synthesis

import (
	"math"

	"github.com/exovista/exovista/internal/core/scene"
)

// Category is the physical class a catalog object synthesizes as.
type Category uint8

const (
	CategoryHotJupiter Category = iota
	CategoryWarmNeptune
	CategoryIceGiant
	CategoryMiniNeptune
	CategorySuperEarth
	CategoryTerrestrial
)

func (c Category) String() string {
	switch c {
	case CategoryHotJupiter:
		return "hot_jupiter"
	case CategoryWarmNeptune:
		return "warm_neptune"
	case CategoryIceGiant:
		return "ice_giant"
	case CategoryMiniNeptune:
		return "mini_neptune"
	case CategorySuperEarth:
		return "super_earth"
	case CategoryTerrestrial:
		return "terrestrial"
	default:
		return "unknown"
	}
}

const defaultTemperature = 300.0

// Classify maps an entity's physical attributes to a Category through
// an ordered rule table. The rules are not mutually exclusive: the
// first match wins, so the order below is part of the contract.
// Invalid attributes (non-positive or non-finite mass/radius) fall
// through to the terrestrial default instead of failing.
func Classify(e scene.Entity) Category {
	mass, radius, temp := e.Mass, e.Radius, e.Temperature
	if !validAttr(mass) || !validAttr(radius) {
		return CategoryTerrestrial
	}
	if !validAttr(temp) {
		temp = defaultTemperature
	}

	density := mass / (radius * radius * radius)

	switch {
	case radius > 8 && temp > 1000 && density < 0.4:
		return CategoryHotJupiter
	case radius > 3 && radius < 8 && temp > 500 && temp < 1000 && density < 0.8:
		return CategoryWarmNeptune
	case radius > 3 && temp < 500 && density < 0.8:
		return CategoryIceGiant
	case radius > 1.5 && radius < 4 && density < 1.2:
		return CategoryMiniNeptune
	case radius > 1.5 && density >= 1.2:
		return CategorySuperEarth
	default:
		return CategoryTerrestrial
	}
}

func validAttr(f float64) bool {
	return f > 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}
