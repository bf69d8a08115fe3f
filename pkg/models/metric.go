package models

// Metric names one field of EvaluationMetrics
type Metric string

const (
	MetricCoherence            Metric = "coherence"
	MetricCreativity           Metric = "creativity"
	MetricCharacterConsistency Metric = "characterConsistency"
	MetricStyleMatch           Metric = "styleMatch"
	MetricEndingStrength       Metric = "endingStrength"
	MetricAvg                  Metric = "avg"
)

// ScoredMetrics are the five rubric metrics, in display order
var ScoredMetrics = []Metric{
	MetricCoherence,
	MetricCreativity,
	MetricCharacterConsistency,
	MetricStyleMatch,
	MetricEndingStrength,
}

// AllMetrics are the scored metrics followed by the overall average
var AllMetrics = append(append([]Metric{}, ScoredMetrics...), MetricAvg)

// Label returns a human-readable name for the metric
func (m Metric) Label() string {
	switch m {
	case MetricCoherence:
		return "Coherence"
	case MetricCreativity:
		return "Creativity"
	case MetricCharacterConsistency:
		return "Consistency"
	case MetricStyleMatch:
		return "Style Match"
	case MetricEndingStrength:
		return "Ending"
	case MetricAvg:
		return "Overall Avg"
	default:
		return string(m)
	}
}

// Value returns the score for this metric. Unknown metrics score 0.
func (m Metric) Value(e EvaluationMetrics) float64 {
	switch m {
	case MetricCoherence:
		return e.Coherence
	case MetricCreativity:
		return e.Creativity
	case MetricCharacterConsistency:
		return e.CharacterConsistency
	case MetricStyleMatch:
		return e.StyleMatch
	case MetricEndingStrength:
		return e.EndingStrength
	case MetricAvg:
		return e.Avg
	default:
		return 0
	}
}
