// Package scoring derives heuristic engagement and churn-risk scores
// for unified customers. The weights and thresholds are asserted
// business rules rather than fitted values, so they live in one
// injectable struct instead of being scattered as literals; dashboard
// consumers display these numbers directly, so the arithmetic is pinned
// by tests.
package scoring

import "math"

// Input carries the per-customer fields the calculator reads. Rates are
// 0-100. HasEngagement distinguishes "no email engagement data" from
// "zero engagement"; the two states score differently.
type Input struct {
	HasEngagement     bool
	OpenRate          float64
	ClickRate         float64
	OrderCount        int
	TotalSpent        float64
	AverageOrderValue float64
}

// Weights holds every tunable constant of both scores.
type Weights struct {
	// Engagement score blend
	EmailWeight     float64 // share of the email component in the final score
	PurchaseWeight  float64 // share of the purchase component
	OpenRateWeight  float64 // open rate share inside the email component
	ClickRateWeight float64 // click rate share inside the email component

	// Purchase component: OrderCount*PointsPerOrder + AOV/AOVDivisor,
	// capped at 100 before blending
	PointsPerOrder float64
	AOVDivisor     float64

	// Risk score: order frequency
	NoOrdersPoints   int
	OneOrderPoints   int
	FewOrdersPoints  int
	FewOrdersCeiling int // order counts strictly below this get FewOrdersPoints

	// Risk score: engagement (only when engagement data is present)
	LowOpenRate    float64
	LowOpenPoints  int
	MidOpenRate    float64
	MidOpenPoints  int
	LowClickRate   float64
	LowClickPoints int

	// Risk score: spend
	LowSpend      float64
	LowSpendPoints int
	MidSpend      float64
	MidSpendPoints int

	// Churn prediction: risk strictly above this predicts churn
	ChurnRiskThreshold int
}

// DefaultWeights returns the production scoring constants.
func DefaultWeights() Weights {
	return Weights{
		EmailWeight:     0.4,
		PurchaseWeight:  0.6,
		OpenRateWeight:  0.6,
		ClickRateWeight: 0.4,

		PointsPerOrder: 10,
		AOVDivisor:     10,

		NoOrdersPoints:   40,
		OneOrderPoints:   25,
		FewOrdersPoints:  10,
		FewOrdersCeiling: 5,

		LowOpenRate:    10,
		LowOpenPoints:  20,
		MidOpenRate:    25,
		MidOpenPoints:  10,
		LowClickRate:   2,
		LowClickPoints: 15,

		LowSpend:       50,
		LowSpendPoints: 15,
		MidSpend:       100,
		MidSpendPoints: 5,

		ChurnRiskThreshold: 70,
	}
}

// Engagement computes the 0-100 engagement score: a weighted blend of
// email behavior (zero when no engagement data is present) and purchase
// volume, rounded and clamped.
func (w Weights) Engagement(in Input) int {
	var emailComponent float64
	if in.HasEngagement {
		emailComponent = in.OpenRate*w.OpenRateWeight + in.ClickRate*w.ClickRateWeight
	}

	purchaseComponent := math.Min(100, float64(in.OrderCount)*w.PointsPerOrder+in.AverageOrderValue/w.AOVDivisor)

	score := math.Round(emailComponent*w.EmailWeight + purchaseComponent*w.PurchaseWeight)
	return clamp(int(score))
}

// Risk computes the 0-100 churn-risk score additively from order
// frequency, engagement and spend, clamped at 100.
func (w Weights) Risk(in Input) int {
	risk := 0

	switch {
	case in.OrderCount == 0:
		risk += w.NoOrdersPoints
	case in.OrderCount == 1:
		risk += w.OneOrderPoints
	case in.OrderCount < w.FewOrdersCeiling:
		risk += w.FewOrdersPoints
	}

	if in.HasEngagement {
		if in.OpenRate < w.LowOpenRate {
			risk += w.LowOpenPoints
		} else if in.OpenRate < w.MidOpenRate {
			risk += w.MidOpenPoints
		}
		if in.ClickRate < w.LowClickRate {
			risk += w.LowClickPoints
		}
	}

	if in.TotalSpent < w.LowSpend {
		risk += w.LowSpendPoints
	} else if in.TotalSpent < w.MidSpend {
		risk += w.MidSpendPoints
	}

	return clamp(risk)
}

// PredictChurn reports whether a risk score predicts churn. Strictly
// greater than the threshold; a score exactly at the threshold does not.
func (w Weights) PredictChurn(risk int) bool {
	return risk > w.ChurnRiskThreshold
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
