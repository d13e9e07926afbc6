package grouping

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/linnemanlabs/warden/internal/vuln"
)

var tracer = otel.Tracer("github.com/linnemanlabs/warden/internal/grouping")

// Hooks are optional callbacks fired while a run progresses.
type Hooks struct {
	OnBucket   func(size, subgroups, noise int)
	OnComplete func(records, groups int, duration float64)
}

// Grouper runs the full pipeline. It holds no per-run state and is safe for
// concurrent use.
type Grouper struct {
	clusterer *TextClusterer
	hooks     Hooks
}

// New creates a Grouper. A nil clusterer selects NewTextClusterer(nil, nil).
func New(clusterer *TextClusterer, hooks Hooks) *Grouper {
	if clusterer == nil {
		clusterer = NewTextClusterer(nil, nil)
	}
	return &Grouper{clusterer: clusterer, hooks: hooks}
}

// Group implements vuln.Grouper. Every input record appears in exactly one
// output row; groups never span two exact-key buckets.
func (g *Grouper) Group(ctx context.Context, records []vuln.Record) []vuln.TaggedRecord {
	_, span := tracer.Start(ctx, "grouping.Group")
	defer span.End()

	start := time.Now()
	buckets := Partition(records)

	var subgroups [][]vuln.Record
	for _, b := range buckets {
		split, noise := g.clusterer.Split(b.Records)
		subgroups = append(subgroups, split...)
		if g.hooks.OnBucket != nil {
			g.hooks.OnBucket(len(b.Records), len(split), noise)
		}
	}

	rows, next := Assign(1, subgroups)
	groups := next - 1

	span.SetAttributes(
		attribute.Int("warden.records", len(records)),
		attribute.Int("warden.buckets", len(buckets)),
		attribute.Int("warden.groups", groups),
	)
	if g.hooks.OnComplete != nil {
		g.hooks.OnComplete(len(records), groups, time.Since(start).Seconds())
	}
	return rows
}
