// Package data provides the market data providers the pricer can source
// its volatility estimate from. Providers chain: a provider may delegate
// to a Secondary() fallback when it cannot answer itself.
package data

import (
	"math"
	"time"
)

// Provider supplies market data
type Provider interface {
	Secondary() Provider
	GetDailyBars(underlying string, fromDate, toDate time.Time) ([]Bar, error)
}

// Bar simplified OHLC
type Bar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
	Vol   float64
}

// AnnualizedVolatility estimates annualized volatility from a daily close
// series: stddev of log returns scaled by sqrt(252). Falls back to 30%
// when the series is too short to say anything.
func AnnualizedVolatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0.30
	}
	var rets []float64
	for i := 1; i < len(closes); i++ {
		rets = append(rets, math.Log(closes[i]/closes[i-1]))
	}
	mean := 0.0
	for _, v := range rets {
		mean += v
	}
	mean /= float64(len(rets))
	sd := 0.0
	for _, v := range rets {
		sd += (v - mean) * (v - mean)
	}
	sd = math.Sqrt(sd / float64(len(rets)-1))
	return sd * math.Sqrt(252.0)
}
