package domain

import "time"

const DefaultBatchSize = 20

type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

func (r DelayRange) Validate() error {
	if r.Min < 0 || r.Max < 0 {
		return ParamError("delay range must not be negative")
	}
	if r.Min > r.Max {
		return ParamError("delay min %s exceeds max %s", r.Min, r.Max)
	}
	return nil
}

type RestoreOptions struct {
	BatchSize       int
	ContinueOnError bool
	// ClearExisting empties the destination before anything is restored.
	ClearExisting bool
	// SkipGroupCreation maps source groups onto existing destination groups
	// only; groups missing on the destination are not created.
	SkipGroupCreation bool
	// Delay overrides the pause between mutations for this run only.
	Delay      *DelayRange
	OnProgress func(Progress)
}

func DefaultRestoreOptions() RestoreOptions {
	return RestoreOptions{BatchSize: DefaultBatchSize}
}

func (o RestoreOptions) Validate(maxBatch int) error {
	if o.BatchSize < 1 {
		return ParamError("batch size must be positive, got %d", o.BatchSize)
	}
	if maxBatch > 0 && o.BatchSize > maxBatch {
		return ParamError("batch size %d exceeds limit %d", o.BatchSize, maxBatch)
	}
	if o.Delay != nil {
		return o.Delay.Validate()
	}
	return nil
}

func (o RestoreOptions) Report(p Progress) {
	if o.OnProgress != nil {
		o.OnProgress(p)
	}
}
