package domain

type BatchOutcome struct {
	SuccessCount  int      `json:"success_count"`
	FailedCount   int      `json:"failed_count"`
	TotalCount    int      `json:"total_count"`
	FailedItems   []string `json:"failed_items"`
	Aborted       bool     `json:"aborted"`
	CreatedGroups []string `json:"created_groups,omitempty"`
	Containers    []string `json:"containers,omitempty"`
	// Cleared counts destination items removed before restoring.
	Cleared int `json:"cleared,omitempty"`
}

func NewBatchOutcome(total int) BatchOutcome {
	return BatchOutcome{TotalCount: total, FailedItems: []string{}}
}

func (o *BatchOutcome) Succeed(n int) {
	o.SuccessCount += n
}

func (o *BatchOutcome) Fail(n int, description string) {
	o.FailedCount += n
	o.FailedItems = append(o.FailedItems, description)
}

// Untouched counts items never attempted because the run aborted.
func (o BatchOutcome) Untouched() int {
	return o.TotalCount - o.SuccessCount - o.FailedCount
}

type RestoreState int

const (
	StateIdle RestoreState = iota
	StateMappingGroups
	StateApplyingBatch
	StateAborted
	StateCompleted
)

func (s RestoreState) String() string {
	switch s {
	case StateMappingGroups:
		return "mapping groups"
	case StateApplyingBatch:
		return "applying batch"
	case StateAborted:
		return "aborted"
	case StateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

func (s RestoreState) Terminal() bool {
	return s == StateAborted || s == StateCompleted
}

type Progress struct {
	Domain string
	State  RestoreState
	Batch  int
	Done   int
	Total  int
}
