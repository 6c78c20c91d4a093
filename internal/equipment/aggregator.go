package equipment

import (
	"math"
	"sort"
)

// Stats is the aggregate of one validated upload.
type Stats struct {
	Count            int
	AvgFlowrate      float64
	AvgPressure      float64
	AvgTemperature   float64
	TypeDistribution map[string]int
}

// Aggregate computes row count, per-measure arithmetic means and the Type frequency table.
func Aggregate(readings []Reading) Stats {
	stats := Stats{
		Count:            len(readings),
		TypeDistribution: make(map[string]int),
	}
	if len(readings) == 0 {
		return stats
	}

	for _, r := range readings {
		stats.TypeDistribution[r.Type]++
	}

	stats.AvgFlowrate = mean(readings, func(r Reading) float64 { return r.Flowrate })
	stats.AvgPressure = mean(readings, func(r Reading) float64 { return r.Pressure })
	stats.AvgTemperature = mean(readings, func(r Reading) float64 { return r.Temperature })

	return stats
}

// mean stays finite for any finite input. When the plain sum overflows the
// values are scaled by 1/n before adding.
func mean(readings []Reading, value func(Reading) float64) float64 {
	n := float64(len(readings))

	var sum float64
	for _, r := range readings {
		sum += value(r)
	}
	if !math.IsInf(sum, 0) {
		return sum / n
	}

	sum = 0
	for _, r := range readings {
		sum += value(r) / n
	}
	return sum
}

// TypeCount is one entry of a distribution.
type TypeCount struct {
	Type  string
	Count int
}

// SortedDistribution orders entries by count descending, then label.
func SortedDistribution(dist map[string]int) []TypeCount {
	out := make([]TypeCount, 0, len(dist))
	for k, v := range dist {
		out = append(out, TypeCount{Type: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
