package domain

import "fmt"

// ConflictResolutionStrategy is the configured policy for records whose
// identifier matches an existing asset.
type ConflictResolutionStrategy string

const (
	ConflictStrategySkip      ConflictResolutionStrategy = "SKIP"
	ConflictStrategyOverwrite ConflictResolutionStrategy = "OVERWRITE"
	ConflictStrategyMerge     ConflictResolutionStrategy = "MERGE"
)

// Strategy resolves the configured value. Empty means SKIP.
func (s ConflictResolutionStrategy) Strategy() (ConflictStrategy, error) {
	switch s {
	case ConflictStrategySkip, "":
		return skipStrategy{}, nil
	case ConflictStrategyOverwrite:
		return overwriteStrategy{}, nil
	case ConflictStrategyMerge:
		return mergeStrategy{}, nil
	}
	return nil, fmt.Errorf("%w: conflict resolution strategy %q", ErrInvalidInput, s)
}

// ResolutionAction is what the sync pipeline does with one record.
type ResolutionAction int

const (
	ActionCreate ResolutionAction = iota
	ActionUpdate
	ActionSkip
)

func (a ResolutionAction) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionSkip:
		return "skip"
	}
	return "unknown"
}

// Resolution is the decision for one mapped record. Fields is the data to
// persist for create and update; it is nil for skip.
type Resolution struct {
	Action ResolutionAction
	Fields Record
}

// ConflictStrategy decides what to do when a record matches an existing asset.
type ConflictStrategy interface {
	onConflict(existing Record, incoming Record) Resolution
}

type skipStrategy struct{}
type overwriteStrategy struct{}
type mergeStrategy struct{}

func (skipStrategy) onConflict(Record, Record) Resolution {
	return Resolution{Action: ActionSkip}
}

// The update carries only the mapped fields, so fields absent from the
// incoming record stay as they are on the asset.
func (overwriteStrategy) onConflict(_ Record, incoming Record) Resolution {
	return Resolution{Action: ActionUpdate, Fields: incoming.Clone()}
}

func (mergeStrategy) onConflict(existing Record, incoming Record) Resolution {
	return Resolution{Action: ActionUpdate, Fields: MergeRecords(existing, incoming)}
}

// Resolve decides the action for a mapped record. A nil existing asset always
// yields a create.
func Resolve(strategy ConflictStrategy, existing *Asset, incoming Record) Resolution {
	if existing == nil {
		return Resolution{Action: ActionCreate, Fields: incoming.Clone()}
	}
	if strategy == nil {
		strategy = skipStrategy{}
	}
	return strategy.onConflict(existing.Record(), incoming)
}

// MergeRecords keeps each incoming value unless it is nil or "", in which case
// the existing value is used. Keys only present on the existing record are
// carried forward. 0 and false count as real values.
func MergeRecords(existing Record, incoming Record) Record {
	merged := make(Record, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		if isBlank(v) {
			if old, ok := existing[k]; ok {
				merged[k] = old
			}
			continue
		}
		merged[k] = v
	}
	return merged
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
