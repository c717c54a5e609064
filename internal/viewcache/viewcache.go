// Package viewcache keeps task comment threads in two named partitions, one
// for views opened normally and one for views opened from a notification.
// Both partitions hold the same underlying data; writers merge into every
// partition so reads from either path converge.
package viewcache

import (
	"context"
	"sort"

	"trialwatch.app/engine/internal/model"
)

type Partition string

const (
	PartitionStandard     Partition = "standard"
	PartitionNotification Partition = "notification"
)

// Partitions lists every partition a writer must update.
var Partitions = []Partition{PartitionStandard, PartitionNotification}

// ParsePartition maps the `from` request parameter onto a partition. An empty
// value selects the standard partition.
func ParsePartition(from string) (Partition, bool) {
	switch Partition(from) {
	case "", PartitionStandard:
		return PartitionStandard, true
	case PartitionNotification:
		return PartitionNotification, true
	}
	return "", false
}

type Cache interface {
	// Get returns the cached thread. ok is false on a miss.
	Get(ctx context.Context, p Partition, taskID int64) (comments []model.TaskComment, ok bool, err error)
	// MergeInto unions comments into the partition's entry, creating it when
	// absent, and returns the resulting thread.
	MergeInto(ctx context.Context, p Partition, taskID int64, comments []model.TaskComment) ([]model.TaskComment, error)
	// Append adds one comment to an existing entry. A partition without an
	// entry is left alone so a lone comment is never served as the full thread.
	Append(ctx context.Context, p Partition, taskID int64, comment model.TaskComment) error
	// Invalidate drops the task's entry from every partition.
	Invalidate(ctx context.Context, taskID int64) error
}

// MergeAll merges comments into every partition and returns the thread as
// held by the standard partition.
func MergeAll(ctx context.Context, c Cache, taskID int64, comments []model.TaskComment) ([]model.TaskComment, error) {
	var out []model.TaskComment
	for _, p := range Partitions {
		merged, err := c.MergeInto(ctx, p, taskID, comments)
		if err != nil {
			return nil, err
		}
		if p == PartitionStandard {
			out = merged
		}
	}
	return out, nil
}

// AppendAll appends comment to every partition that already holds the thread.
func AppendAll(ctx context.Context, c Cache, taskID int64, comment model.TaskComment) error {
	for _, p := range Partitions {
		if err := c.Append(ctx, p, taskID, comment); err != nil {
			return err
		}
	}
	return nil
}

// Merge returns the union of existing and incoming keyed by comment ID,
// ordered by creation time then ID. Comments are append-only, so a later copy
// of the same ID replaces the earlier one without losing information.
func Merge(existing, incoming []model.TaskComment) []model.TaskComment {
	byID := make(map[int64]model.TaskComment, len(existing)+len(incoming))
	for _, c := range existing {
		byID[c.ID] = c
	}
	for _, c := range incoming {
		byID[c.ID] = c
	}

	out := make([]model.TaskComment, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
