package ambisonic

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-spatial/spatial"
)

// MaxOrder is the highest supported ambisonic order.
const MaxOrder = 3

// ChannelCount returns (order+1)^2.
func ChannelCount(order int) int {
	return (order + 1) * (order + 1)
}

// ValidateOrder rejects orders outside 1..MaxOrder.
func ValidateOrder(order int) error {
	if order < 1 || order > MaxOrder {
		return fmt.Errorf("ambisonic: order must be in [1, %d], got %d: %w", MaxOrder, order, spatial.ErrConfiguration)
	}
	return nil
}

// ClampOrder limits order to 1..MaxOrder, logging a warning when it had to
// change the value.
func ClampOrder(order int) int {
	clamped := min(max(order, 1), MaxOrder)
	if clamped != order {
		logrus.WithFields(logrus.Fields{
			"function":  "ClampOrder",
			"requested": order,
			"clamped":   clamped,
		}).Warn("Ambisonic order out of range, clamping")
	}
	return clamped
}

// Degree returns the order l and index m of ACN channel k.
func Degree(k int) (l, m int) {
	for (l+1)*(l+1) <= k {
		l++
	}
	return l, k - l*l - l
}

// ACN returns the channel index of order l and index m.
func ACN(l, m int) int {
	return l*l + l + m
}
