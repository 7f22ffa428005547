package tree

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	RBTreeStatsName = "xrbmap/rbtree"
)

// rbTreeStats is nil safe, a tree without stats holds a nil pointer.
type rbTreeStats struct {
	size          metric.Int64UpDownCounter
	insertedCount metric.Int64Counter
	erasedCount   metric.Int64Counter
	rotatedCount  metric.Int64Counter
}

func (stats *rbTreeStats) recordInsert() {
	if stats == nil {
		return
	}
	stats.size.Add(context.Background(), 1)
	stats.insertedCount.Add(context.Background(), 1)
}

func (stats *rbTreeStats) recordErase() {
	if stats == nil {
		return
	}
	stats.size.Add(context.Background(), -1)
	stats.erasedCount.Add(context.Background(), 1)
}

func (stats *rbTreeStats) recordRelease(n int64) {
	if stats == nil || n <= 0 {
		return
	}
	stats.size.Add(context.Background(), -n)
}

func (stats *rbTreeStats) recordRotation() {
	if stats == nil {
		return
	}
	stats.rotatedCount.Add(context.Background(), 1)
}

// WithRBTreeStats records the tree size and the insert, erase and rotation
// counters into the global otel meter provider.
func WithRBTreeStats[K any, V any](name string) RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.stats = newRBTreeStats(name)
	}
}

func newRBTreeStats(name string) *rbTreeStats {
	meterName := RBTreeStatsName
	if len(name) > 0 {
		meterName = fmt.Sprintf("%s/%s", RBTreeStatsName, name)
	}
	meter := otel.Meter(meterName)
	return &rbTreeStats{
		size: lo.Must[metric.Int64UpDownCounter](meter.Int64UpDownCounter(
			"xrbmap.rbtree.size",
			metric.WithDescription("The number of entries in the rbtree."),
		)),
		insertedCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xrbmap.rbtree.inserted",
			metric.WithDescription("The number of entries inserted into the rbtree."),
		)),
		erasedCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xrbmap.rbtree.erased",
			metric.WithDescription("The number of entries erased from the rbtree."),
		)),
		rotatedCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xrbmap.rbtree.rotations",
			metric.WithDescription("The number of rotations done by the rbtree rebalancing."),
		)),
	}
}
