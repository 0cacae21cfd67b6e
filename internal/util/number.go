package util

import (
	"math"
	"strconv"
)

// Round1 rounds x to one decimal place the way the dashboards print scores:
// the nearest tenth to the exact binary value, with exact ties (x.x5 only
// occurs for quarters) going away from zero.
func Round1(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}

	if q := x * 4; q == math.Trunc(q) && math.Mod(math.Abs(q), 2) == 1 {
		if x < 0 {
			return -math.Ceil(-x*10) / 10
		}
		return math.Ceil(x*10) / 10
	}

	v, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	return v
}
