package domain

// CarSize selects the size-specific duration and price of a service.
type CarSize string

const (
	CarSizeSmall  CarSize = "small"
	CarSizeMedium CarSize = "medium"
	CarSizeLarge  CarSize = "large"
)

type Service struct {
	ID         int64  `json:"id" gorm:"primaryKey"`
	InstanceID int64  `json:"instance_id" gorm:"index"`
	Name       string `json:"name"`

	// DurationMinutes is the default; the per-size values override it when set.
	DurationMinutes int  `json:"duration_minutes"`
	DurationSmall   *int `json:"duration_small,omitempty"`
	DurationMedium  *int `json:"duration_medium,omitempty"`
	DurationLarge   *int `json:"duration_large,omitempty"`

	Price       float64  `json:"price"`
	PriceSmall  *float64 `json:"price_small,omitempty"`
	PriceMedium *float64 `json:"price_medium,omitempty"`
	PriceLarge  *float64 `json:"price_large,omitempty"`

	RequiredStationType *StationType `json:"required_station_type,omitempty"`
	Active              bool         `json:"active"`
}

// DurationFor resolves the effective duration for a car size, falling back to
// the default duration when no size-specific value is set.
func (s Service) DurationFor(size CarSize) int {
	var v *int
	switch size {
	case CarSizeSmall:
		v = s.DurationSmall
	case CarSizeMedium:
		v = s.DurationMedium
	case CarSizeLarge:
		v = s.DurationLarge
	}
	if v != nil && *v > 0 {
		return *v
	}
	return s.DurationMinutes
}

// PriceFor resolves the effective price for a car size with the same fallback
// rule as DurationFor.
func (s Service) PriceFor(size CarSize) float64 {
	var v *float64
	switch size {
	case CarSizeSmall:
		v = s.PriceSmall
	case CarSizeMedium:
		v = s.PriceMedium
	case CarSizeLarge:
		v = s.PriceLarge
	}
	if v != nil {
		return *v
	}
	return s.Price
}
