package enums

import "fmt"

// ServiceChargeType classifies an itemized quote addition.
type ServiceChargeType string

const (
	ServiceChargePercentage ServiceChargeType = "percentage"
	ServiceChargeFixed      ServiceChargeType = "fixed"
	ServiceChargeCustom     ServiceChargeType = "custom"
)

var validServiceChargeTypes = []ServiceChargeType{
	ServiceChargePercentage,
	ServiceChargeFixed,
	ServiceChargeCustom,
}

// IsValid reports whether the value is a known ServiceChargeType.
func (s ServiceChargeType) IsValid() bool {
	for _, candidate := range validServiceChargeTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceChargeType converts raw input into a ServiceChargeType.
func ParseServiceChargeType(value string) (ServiceChargeType, error) {
	for _, candidate := range validServiceChargeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service charge type %q", value)
}
