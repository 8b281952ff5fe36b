// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// ksExponential 單樣本 Kolmogorov–Smirnov 統計量：樣本經驗 CDF 與 Exponential(1) 的最大距離
func ksExponential(samples []float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	xs := slices.Clone(samples)
	slices.Sort(xs)

	exp := distuv.Exponential{Rate: 1}
	fn := float64(n)
	d := 0.0
	for i, x := range xs {
		f := exp.CDF(x)
		d = max(d, float64(i+1)/fn-f, f-float64(i)/fn)
	}
	return d
}

// ksCritical 信賴水準 95% 的漸近臨界值 c(α)/√n（c = 1.358）
func ksCritical(n int) float64 {
	if n == 0 {
		return 1
	}
	return 1.358 / math.Sqrt(float64(n))
}
