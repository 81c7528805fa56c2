// Package features computes the indicator feature map that strategy
// evaluators consume. One feature map is built per coin per scan pass from
// its daily candle history.
//
// Feature key vocabulary (always float64):
//
//	current_price                 last close
//	sma_20, sma_50, sma_200       simple moving averages (sma_200 only with enough history)
//	ema_12, ema_26                exponential moving averages
//	rsi_14                        relative strength index
//	macd, macd_signal, macd_hist  MACD(12,26,9)
//	bb_upper, bb_middle, bb_lower Bollinger bands (20, 2.0)
//	atr_14                        average true range
//	stoch_k, stoch_d              stochastic oscillator (14,3,3)
//	obv, obv_prev                 on-balance volume, current and 5 days back
//	volume_24h, volume_sma_20     last volume and its 20-day average
//	price_change_24h/7d/30d       fractional price changes
//	volatility_30d                stddev of daily log returns over 30 days
//	trend_slope_10                normalized linear-regression slope of the last 10 closes
//	high_30d, low_30d             30-day extremes
//
// Enrichment passes may add keys afterwards (sentiment_*, funding_rate, ...);
// keys are only ever added, never removed.
package features

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"coinscan/internal/domain"
)

// MinHistory is the minimum number of candles required to compute a feature
// map. Coins with shorter history are skipped before evaluators run.
const MinHistory = 30

// Compute builds a feature map from daily candles (most recent last).
// Optional derivatives metrics are merged in additively. Returns an error
// when the history is too short.
func Compute(candles []domain.Candle, derivatives map[string]float64) (domain.FeatureMap, error) {
	if len(candles) < MinHistory {
		return nil, fmt.Errorf("insufficient history: %d candles, need %d", len(candles), MinHistory)
	}

	n := len(candles)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	f := domain.FeatureMap{}
	f["current_price"] = closes[n-1]

	// Moving averages
	putLast(f, "sma_20", talib.Sma(closes, 20))
	if n >= 50 {
		putLast(f, "sma_50", talib.Sma(closes, 50))
	}
	if n >= 200 {
		putLast(f, "sma_200", talib.Sma(closes, 200))
	}
	putLast(f, "ema_12", talib.Ema(closes, 12))
	putLast(f, "ema_26", talib.Ema(closes, 26))

	// Oscillators
	putLast(f, "rsi_14", talib.Rsi(closes, 14))

	macd, macdSignal, macdHist := talib.Macd(closes, 12, 26, 9)
	putLast(f, "macd", macd)
	putLast(f, "macd_signal", macdSignal)
	putLast(f, "macd_hist", macdHist)

	upper, middle, lower := talib.BBands(closes, 20, 2.0, 2.0, talib.SMA)
	putLast(f, "bb_upper", upper)
	putLast(f, "bb_middle", middle)
	putLast(f, "bb_lower", lower)

	putLast(f, "atr_14", talib.Atr(highs, lows, closes, 14))

	k, d := talib.Stoch(highs, lows, closes, 14, 3, talib.SMA, 3, talib.SMA)
	putLast(f, "stoch_k", k)
	putLast(f, "stoch_d", d)

	// Volume
	obv := talib.Obv(closes, volumes)
	putLast(f, "obv", obv)
	if n >= 6 {
		f["obv_prev"] = obv[n-6]
	}
	f["volume_24h"] = volumes[n-1]
	putLast(f, "volume_sma_20", talib.Sma(volumes, 20))

	// Price changes
	f["price_change_24h"] = fracChange(closes[n-2], closes[n-1])
	if n >= 8 {
		f["price_change_7d"] = fracChange(closes[n-8], closes[n-1])
	}
	f["price_change_30d"] = fracChange(closes[n-30], closes[n-1])

	// Return volatility over the trailing 30 days
	returns := make([]float64, 0, 29)
	for i := n - 29; i < n; i++ {
		if closes[i-1] > 0 && closes[i] > 0 {
			returns = append(returns, math.Log(closes[i]/closes[i-1]))
		}
	}
	if len(returns) > 1 {
		f["volatility_30d"] = stat.StdDev(returns, nil)
	}

	// Normalized short-term trend slope
	xs := make([]float64, 10)
	ys := make([]float64, 10)
	for i := 0; i < 10; i++ {
		xs[i] = float64(i)
		ys[i] = closes[n-10+i]
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if mean := stat.Mean(ys, nil); mean > 0 {
		f["trend_slope_10"] = beta / mean
	}

	// 30-day extremes
	high30 := highs[n-30]
	low30 := lows[n-30]
	for i := n - 29; i < n; i++ {
		high30 = math.Max(high30, highs[i])
		low30 = math.Min(low30, lows[i])
	}
	f["high_30d"] = high30
	f["low_30d"] = low30

	// Derivatives metrics are additive, never overwrite indicator keys
	for key, value := range derivatives {
		if _, exists := f[key]; !exists {
			f[key] = value
		}
	}

	return f, nil
}

// putLast stores the last element of an indicator series, skipping NaN
// values produced by the warm-up window.
func putLast(f domain.FeatureMap, key string, series []float64) {
	if len(series) == 0 {
		return
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	f[key] = v
}

func fracChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from
}
