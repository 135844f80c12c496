// Copyright 2024 The OpenMARL Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package analysis

import "math"

// Summary holds descriptive statistics over one dataset's episode returns
type Summary struct {
	Episodes int     `json:"episodes"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Summarize computes the return distribution statistics of one dataset,
// the zero Summary for an empty return sequence
func Summarize(returns []float32) Summary {
	if len(returns) == 0 {
		return Summary{}
	}

	summary := Summary{
		Episodes: len(returns),
		Min:      float64(returns[0]),
		Max:      float64(returns[0]),
	}
	sum := 0.0
	for _, r := range returns {
		v := float64(r)
		sum += v
		summary.Min = math.Min(summary.Min, v)
		summary.Max = math.Max(summary.Max, v)
	}
	summary.Mean = sum / float64(len(returns))

	sumSquaredDeviations := 0.0
	for _, r := range returns {
		deviation := float64(r) - summary.Mean
		sumSquaredDeviations += deviation * deviation
	}
	summary.StdDev = math.Sqrt(sumSquaredDeviations / float64(len(returns)))

	return summary
}
