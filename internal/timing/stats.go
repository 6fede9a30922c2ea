package timing

import "time"

// Defaults for the quick/delayed responder thresholds.
const (
	DefaultQuickThreshold   = 5 * time.Minute
	DefaultDelayedThreshold = time.Hour
)

// distributionBins are the fixed latency histogram boundaries in seconds:
// 1m, 5m, 15m, 30m, 1h, 2h, 24h.
var distributionBins = []float64{0, 60, 300, 900, 1800, 3600, 7200, 86400}

// Config holds the thresholds the statistics are computed against.
type Config struct {
	QuickThreshold   time.Duration
	DelayedThreshold time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		QuickThreshold:   DefaultQuickThreshold,
		DelayedThreshold: DefaultDelayedThreshold,
	}
}

func (c Config) withDefaults() Config {
	if c.QuickThreshold <= 0 {
		c.QuickThreshold = DefaultQuickThreshold
	}
	if c.DelayedThreshold <= 0 {
		c.DelayedThreshold = DefaultDelayedThreshold
	}
	return c
}

// Distribution describes the latency distribution shape.
type Distribution struct {
	Bins        []float64       `json:"bins"`
	Counts      []int           `json:"counts"`
	Percentiles map[int]float64 `json:"percentiles"`
}

// TimeOfDayEffects groups mean latency by coarse day segment.
type TimeOfDayEffects struct {
	Morning   *float64 `json:"morning,omitempty"`
	Afternoon *float64 `json:"afternoon,omitempty"`
	Evening   *float64 `json:"evening,omitempty"`
}

// Stats aggregates response-pair latencies. A Stats with PairCount 0 is the
// valid "no responses found" result: averages are nil and counts are zero.
type Stats struct {
	Average         *float64           `json:"average_response_time_seconds"`
	Median          *float64           `json:"median_response_time_seconds"`
	Distribution    *Distribution      `json:"response_time_distribution,omitempty"`
	PerCounterparty map[string]float64 `json:"per_counterparty_average,omitempty"`
	ByHour          map[int]float64    `json:"by_hour_average,omitempty"`
	ByDay           map[string]float64 `json:"by_day_average,omitempty"`
	QuickCount      int                `json:"quick_responders_count"`
	DelayedCount    int                `json:"delayed_responders_count"`
	PairCount       int                `json:"pair_count"`
	BestHour        *int               `json:"best_hour,omitempty"`
	TimeOfDay       TimeOfDayEffects   `json:"time_of_day_effects"`
	Pairs           []ResponsePair     `json:"details,omitempty"`
	Outliers        []ResponsePair     `json:"outliers,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// Compute aggregates pairs into statistics and flags quick, delayed, and
// IQR outlier pairs in place. Outlier flagging is deterministic for a given
// input.
func Compute(pairs []ResponsePair, cfg Config) *Stats {
	cfg = cfg.withDefaults()
	if len(pairs) == 0 {
		return &Stats{}
	}

	latencies := make([]float64, len(pairs))
	for i, p := range pairs {
		latencies[i] = p.LatencySeconds
	}

	avg := mean(latencies)
	med := percentile(latencies, 50)
	stats := &Stats{
		Average:         &avg,
		Median:          &med,
		Distribution:    computeDistribution(latencies),
		PerCounterparty: make(map[string]float64),
		ByHour:          make(map[int]float64),
		ByDay:           make(map[string]float64),
		PairCount:       len(pairs),
	}

	lo, hi := iqrBounds(latencies)
	quick := cfg.QuickThreshold.Seconds()
	delayed := cfg.DelayedThreshold.Seconds()

	byParty := make(map[string][]float64)
	byHour := make(map[int][]float64)
	byDay := make(map[string][]float64)
	for i := range pairs {
		p := &pairs[i]
		p.IsQuick = p.LatencySeconds < quick
		p.IsDelayed = p.LatencySeconds > delayed
		p.IsOutlier = p.LatencySeconds < lo || p.LatencySeconds > hi
		if p.IsQuick {
			stats.QuickCount++
		}
		if p.IsDelayed {
			stats.DelayedCount++
		}
		if p.IsOutlier {
			stats.Outliers = append(stats.Outliers, *p)
		}
		byParty[p.Counterparty] = append(byParty[p.Counterparty], p.LatencySeconds)
		byHour[p.SentAt.Hour()] = append(byHour[p.SentAt.Hour()], p.LatencySeconds)
		byDay[p.SentAt.Weekday().String()] = append(byDay[p.SentAt.Weekday().String()], p.LatencySeconds)
	}
	stats.Pairs = pairs

	for party, vals := range byParty {
		stats.PerCounterparty[party] = mean(vals)
	}
	for hour, vals := range byHour {
		stats.ByHour[hour] = mean(vals)
	}
	for day, vals := range byDay {
		stats.ByDay[day] = mean(vals)
	}

	stats.BestHour = bestHour(stats.ByHour)
	stats.TimeOfDay = timeOfDayEffects(stats.ByHour)
	return stats
}

func computeDistribution(latencies []float64) *Distribution {
	d := &Distribution{
		Bins:        distributionBins,
		Counts:      make([]int, len(distributionBins)-1),
		Percentiles: make(map[int]float64, 5),
	}
	for _, p := range []int{25, 50, 75, 90, 95} {
		d.Percentiles[p] = percentile(latencies, float64(p))
	}
	for _, v := range latencies {
		for i := 0; i+1 < len(distributionBins); i++ {
			if v >= distributionBins[i] && v < distributionBins[i+1] {
				d.Counts[i]++
				break
			}
		}
	}
	return d
}

// bestHour is the hour with the lowest mean latency; ties resolve to the
// earliest hour for determinism.
func bestHour(byHour map[int]float64) *int {
	if len(byHour) == 0 {
		return nil
	}
	best := -1
	var bestVal float64
	for h := 0; h < 24; h++ {
		v, ok := byHour[h]
		if !ok {
			continue
		}
		if best == -1 || v < bestVal {
			best, bestVal = h, v
		}
	}
	return &best
}

func timeOfDayEffects(byHour map[int]float64) TimeOfDayEffects {
	var morning, afternoon, evening []float64
	for h, v := range byHour {
		switch {
		case h >= 5 && h < 12:
			morning = append(morning, v)
		case h >= 12 && h < 18:
			afternoon = append(afternoon, v)
		default:
			evening = append(evening, v)
		}
	}
	eff := TimeOfDayEffects{}
	if len(morning) > 0 {
		v := mean(morning)
		eff.Morning = &v
	}
	if len(afternoon) > 0 {
		v := mean(afternoon)
		eff.Afternoon = &v
	}
	if len(evening) > 0 {
		v := mean(evening)
		eff.Evening = &v
	}
	return eff
}
