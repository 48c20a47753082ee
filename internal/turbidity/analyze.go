// Package turbidity scores how cloudy a rendered solution looks. The numbers
// are derived from colour and opacity only; nothing here is a measurement.
package turbidity

import "math"

type Class string

const (
	Clear    Class = "clear"
	Slight   Class = "slight"
	Moderate Class = "moderate"
	Heavy    Class = "heavy"
)

type Verdict string

const (
	Pass Verdict = "PASS"
	Fail Verdict = "FAIL"
)

const (
	// MaxDifference is the widest turbidity gap that still passes.
	MaxDifference = 15
	MinConfidence = 60
)

const (
	recommendPass   = "Chloride content is within acceptable limits. The test solution shows similar turbidity to the standard."
	recommendExcess = "Chloride content exceeds acceptable limits. Consider diluting the sample or investigating the source."
	recommendVerify = "Unusual result: Test solution shows less turbidity than standard. Verify sample preparation."
)

type Analysis struct {
	RGB            RGB     `json:"rgb"`
	Opacity        float64 `json:"opacity"`
	Turbidity      float64 `json:"turbidity"` // 0..100
	Classification Class   `json:"classification"`
	Score          int     `json:"score"`
}

type Comparison struct {
	Test           Analysis `json:"testAnalysis"`
	Standard       Analysis `json:"standardAnalysis"`
	Difference     float64  `json:"turbidityDifference"`
	Verdict        Verdict  `json:"result"`
	Confidence     float64  `json:"confidence"`
	Recommendation string   `json:"recommendation"`
}

func Analyze(color string) Analysis {
	return AnalyzeReading(ParseColor(color))
}

func AnalyzeReading(r Reading) Analysis {
	t := Turbidity(r)
	mean := float64(r.RGB.R+r.RGB.G+r.RGB.B) / 3
	score := t*0.4 + r.Opacity*30*0.3 + ((255-mean)/255)*30*0.3
	return Analysis{
		RGB:            r.RGB,
		Opacity:        r.Opacity,
		Turbidity:      t,
		Classification: Classify(t),
		Score:          int(math.Floor(score + 0.5)),
	}
}

// Turbidity weighs darkness 0.6 and opacity 0.4, scaled to 0..100.
func Turbidity(r Reading) float64 {
	brightness := (0.299*float64(r.RGB.R) + 0.587*float64(r.RGB.G) + 0.114*float64(r.RGB.B)) / 255
	fromColor := 1 - brightness
	return clamp((fromColor*0.6+r.Opacity*0.4)*100, 0, 100)
}

func Classify(turbidity float64) Class {
	switch {
	case turbidity < 10:
		return Clear
	case turbidity < 30:
		return Slight
	case turbidity < 60:
		return Moderate
	default:
		return Heavy
	}
}

// Compare judges a test solution against the standard.
func Compare(test, standard Analysis) Comparison {
	diff, verdict, conf := CompareTurbidity(test.Turbidity, standard.Turbidity)
	c := Comparison{
		Test:       test,
		Standard:   standard,
		Difference: diff,
		Verdict:    verdict,
		Confidence: conf,
	}
	switch {
	case verdict == Pass:
		c.Recommendation = recommendPass
	case test.Turbidity > standard.Turbidity:
		c.Recommendation = recommendExcess
	default:
		c.Recommendation = recommendVerify
	}
	return c
}

func CompareColors(testColor, standardColor string) Comparison {
	return Compare(Analyze(testColor), Analyze(standardColor))
}

func CompareTurbidity(test, standard float64) (difference float64, verdict Verdict, confidence float64) {
	difference = math.Abs(test - standard)
	verdict = Fail
	if difference <= MaxDifference {
		verdict = Pass
	}
	confidence = math.Max(MinConfidence, 100-difference*2)
	return difference, verdict, confidence
}
