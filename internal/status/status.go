// Package status classifies assets into health tiers by checkout duration.
package status

import (
	"fmt"
	"time"
)

// Tier is the derived health classification of an asset.
type Tier string

const (
	Healthy   Tier = "healthy"
	Attention Tier = "attention"
	Overdue   Tier = "overdue"
)

// Thresholds in whole days since checkout.
const (
	AttentionAfterDays = 7
	OverdueAfterDays   = 30
)

// All lists the tiers in severity order.
var All = []Tier{Healthy, Attention, Overdue}

// Parse validates a tier name.
func Parse(s string) (Tier, error) {
	t := Tier(s)
	switch t {
	case Healthy, Attention, Overdue:
		return t, nil
	default:
		return "", fmt.Errorf("invalid tier: %s", s)
	}
}

// Classify computes the tier from current availability and checkout time.
// An asset marked unavailable without a checkout timestamp has no duration
// to measure and is treated as overdue.
func Classify(available bool, checkoutAt *time.Time, now time.Time) Tier {
	if checkoutAt == nil {
		if !available {
			return Overdue
		}
		return Healthy
	}
	days := int(now.Sub(*checkoutAt) / (24 * time.Hour))
	switch {
	case days >= OverdueAfterDays:
		return Overdue
	case days >= AttentionAfterDays:
		return Attention
	default:
		return Healthy
	}
}
