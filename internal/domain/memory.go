package domain

import "time"

const (
	// Memory estimation (KB)
	memoryBaseKB        = 40_000
	memoryPerHourOpenKB = 2_000
	memoryGrowthCapKB   = 60_000
)

// categoryMemoryKB is the typical extra footprint of a category.
var categoryMemoryKB = map[Category]int64{
	CategoryEntertainment: 80_000, // media players
	CategorySocial:        50_000, // infinite feeds
	CategoryWork:          30_000,
	CategoryShopping:      30_000,
	CategoryNews:          20_000,
	CategoryOther:         10_000,
}

// EstimateMemoryKB approximates a tab's footprint when the browser does not
// report one: a base cost, a category cost and slow growth while open.
func EstimateMemoryKB(t Tab, now time.Time) int64 {
	est := int64(memoryBaseKB) + categoryMemoryKB[t.Category]
	if !t.FirstSeenAt.IsZero() {
		growth := int64(now.Sub(t.FirstSeenAt).Hours() * memoryPerHourOpenKB)
		if growth > memoryGrowthCapKB {
			growth = memoryGrowthCapKB
		}
		if growth > 0 {
			est += growth
		}
	}
	return est
}
