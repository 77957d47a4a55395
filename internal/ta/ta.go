package ta

import "math"

// RSI computes the relative strength index over the trailing window using
// simple rolling means of gains and losses. Returns NaN while the series is
// shorter than period+1 closes, and NaN when the window has no losses (the
// oscillator saturates and is not comparable against a threshold).
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return math.NaN()
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100.0 - (100.0 / (1.0 + rs))
}

// EMA returns the exponential moving average series with smoothing factor
// 2/(span+1), seeded with the first sample (no bias adjustment).
func EMA(x []float64, span int) []float64 {
	res := make([]float64, len(x))
	if len(x) == 0 {
		return res
	}
	k := 2.0 / (float64(span) + 1)
	res[0] = x[0]
	for i := 1; i < len(x); i++ {
		res[i] = x[i]*k + res[i-1]*(1-k)
	}
	return res
}

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal line
// (EMA of the MACD series over signalSpan).
func MACD(closes []float64, fast, slow, signalSpan int) (macd, signal []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signal = EMA(macd, signalSpan)
	return macd, signal
}

// Last returns the most recent element of a series, NaN when empty.
func Last(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return x[len(x)-1]
}
