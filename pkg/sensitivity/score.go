package sensitivity

import "fmt"

// Score factor weights. Magnitude dominates: a target needing a tiny
// nudge is achievable almost regardless of how the nudge is spread.
const (
	weightMagnitude = 0.5
	weightFocus     = 0.2
	weightHeadroom  = 0.3
)

// ScoreFactor is one weighted component of the achievability score.
type ScoreFactor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`

	// Value is the factor's raw contribution in [0, 100].
	Value float64 `json:"value"`

	Explanation string `json:"explanation"`
}

// score fills in Realistic, Score and ScoreFactors for a searched
// scenario. Three factors feed the score: how large the required move
// is, how many levers the cheapest path touches, and how much headroom
// remains inside the realistic band.
func score(sc *TargetScenario, o options) {
	minAdj, hasSingle := singleLeverMin(sc)
	best := sc.Best

	var magnitude float64
	var magExpl string
	switch {
	case best == nil:
		magExpl = fmt.Sprintf("nothing within the %.0f%% search bound reaches %.2fx", o.maxAdj, sc.TargetMultiple)
	case best.Total == 0:
		magnitude = 100
		magExpl = "the baseline already meets the target with no changes"
	case hasSingle:
		magnitude = clampUnit(1-minAdj/o.maxAdj) * 100
		magExpl = fmt.Sprintf("a %.0f%% move in %s reaches the target within the %.0f%% bound",
			minAdj, minSingleName(sc), o.maxAdj)
	default:
		magnitude = clampUnit(1-best.Total/(4*o.maxAdj)) * 100
		magExpl = fmt.Sprintf("only combined changes totalling %.0f%% reach the target", best.Total)
	}

	var focus float64
	var focusExpl string
	switch {
	case best == nil:
		focusExpl = "no lever or combination reached the target"
	case best.Total == 0:
		focus = 100
		focusExpl = "no parameter needs to move"
	default:
		touched := best.Adjustments.Touched()
		focus = clampUnit(1-float64(touched-1)/4) * 100
		focusExpl = fmt.Sprintf("the cheapest path moves %d of 4 parameter groups", touched)
	}

	var headroom float64
	var headExpl string
	switch {
	case !hasSingle:
		headExpl = fmt.Sprintf("no single lever reaches the target inside the %.0f%% realistic band", float64(RealisticLimit))
	case minAdj <= RealisticLimit:
		headroom = clampUnit(1-minAdj/RealisticLimit) * 100
		headExpl = fmt.Sprintf("%.0f%% required against the %.0f%% realistic limit", minAdj, float64(RealisticLimit))
	default:
		headExpl = fmt.Sprintf("%.0f%% required exceeds the %.0f%% realistic limit", minAdj, float64(RealisticLimit))
	}

	sc.Realistic = hasSingle && minAdj <= RealisticLimit
	sc.ScoreFactors = []ScoreFactor{
		{Name: "magnitude", Weight: weightMagnitude, Value: magnitude, Explanation: magExpl},
		{Name: "focus", Weight: weightFocus, Value: focus, Explanation: focusExpl},
		{Name: "headroom", Weight: weightHeadroom, Value: headroom, Explanation: headExpl},
	}
	sc.Score = weightMagnitude*magnitude + weightFocus*focus + weightHeadroom*headroom
}

// minSingleName names the cheapest achievable single lever.
func minSingleName(sc *TargetScenario) Parameter {
	name := Parameter("")
	min := 0.0
	for _, pr := range sc.Parameters {
		if !pr.Achievable {
			continue
		}
		if name == "" || pr.Required < min {
			name = pr.Parameter
			min = pr.Required
		}
	}
	return name
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
