package utils

import (
	"math"
	"sort"
	"time"
)

// KPI compares a metric against its previous period for the dashboard cards.
type KPI struct {
	CurrentValue  float64 `json:"currentValue"`
	PreviousValue float64 `json:"previousValue"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Trend         string  `json:"trend"` // up, down, stable
}

// ComputeKPI derives the change figures for a current/previous value pair.
func ComputeKPI(current, previous float64) KPI {
	kpi := KPI{
		CurrentValue:  current,
		PreviousValue: previous,
		Change:        current - previous,
	}
	if previous != 0 {
		kpi.ChangePercent = math.Round((current-previous)/previous*10000) / 100
	}
	switch {
	case kpi.Change > 0:
		kpi.Trend = "up"
	case kpi.Change < 0:
		kpi.Trend = "down"
	default:
		kpi.Trend = "stable"
	}
	return kpi
}

// MonthlyPoint is one month's aggregated value for trend charts.
type MonthlyPoint struct {
	Month string  `json:"month"` // 2006-01
	Value float64 `json:"value"`
}

// MonthlySeries buckets dated values by calendar month, oldest first. Months
// with no samples are omitted.
func MonthlySeries(dates []time.Time, values []float64) []MonthlyPoint {
	buckets := map[string]float64{}
	for i, date := range dates {
		if i >= len(values) || date.IsZero() {
			continue
		}
		buckets[date.Format("2006-01")] += values[i]
	}

	months := make([]string, 0, len(buckets))
	for month := range buckets {
		months = append(months, month)
	}
	sort.Strings(months)

	series := make([]MonthlyPoint, 0, len(months))
	for _, month := range months {
		series = append(series, MonthlyPoint{Month: month, Value: buckets[month]})
	}
	return series
}
