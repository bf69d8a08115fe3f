package models

// ProgressStatus is the lifecycle stage of a variant inside a run
type ProgressStatus string

const (
	StatusGenerating ProgressStatus = "generating"
	StatusEvaluating ProgressStatus = "evaluating"
	StatusCompleted  ProgressStatus = "completed"
	StatusError      ProgressStatus = "error"
)

// Progress is a single status update for one variant
type Progress struct {
	VariantID VariantID
	Status    ProgressStatus
	Message   string // set for StatusError
}

func (p Progress) String() string {
	if p.Status == StatusError {
		return "error: " + p.Message
	}
	return string(p.Status)
}
