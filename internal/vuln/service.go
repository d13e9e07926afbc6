package vuln

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/oklog/ulid/v2"
)

var tracer = otel.Tracer("github.com/linnemanlabs/warden/internal/vuln")

// Service is the business boundary for vulnerability records and their grouped view.
type Service struct {
	store   Store
	grouper Grouper
	logger  log.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewService creates a new vulnerability service. metrics may be nil.
func NewService(store Store, grouper Grouper, logger log.Logger, metrics *Metrics) *Service {
	if store == nil {
		panic(xerrors.New("vulnerability store is required"))
	}
	if grouper == nil {
		panic(xerrors.New("grouper is required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:   store,
		grouper: grouper,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Create validates in and stores it as a new record.
func (s *Service) Create(ctx context.Context, in Input) (*Record, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		s.metrics.observe("create", "invalid")
		return nil, err
	}

	now := s.now().UTC()
	r := &Record{
		ID:        ulid.Make().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.apply(in)

	if err := s.store.Put(ctx, r); err != nil {
		s.metrics.observe("create", "error")
		return nil, fmt.Errorf("put record: %w", err)
	}
	s.metrics.observe("create", "ok")
	return r, nil
}

// Update replaces the client-supplied fields of an existing record.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Record, bool, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		s.metrics.observe("update", "invalid")
		return nil, false, err
	}

	r, ok, err := s.store.Get(ctx, id)
	if err != nil {
		s.metrics.observe("update", "error")
		return nil, false, fmt.Errorf("get record: %w", err)
	}
	if !ok {
		s.metrics.observe("update", "not_found")
		return nil, false, nil
	}

	r.apply(in)
	r.UpdatedAt = s.now().UTC()
	if err := s.store.Put(ctx, r); err != nil {
		s.metrics.observe("update", "error")
		return nil, false, fmt.Errorf("put record: %w", err)
	}
	s.metrics.observe("update", "ok")
	return r, true, nil
}

// Get retrieves a record by ID.
func (s *Service) Get(ctx context.Context, id string) (*Record, bool, error) {
	return s.store.Get(ctx, id)
}

// Delete removes a record by ID, reporting whether it existed.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.Delete(ctx, id)
	switch {
	case err != nil:
		s.metrics.observe("delete", "error")
	case !ok:
		s.metrics.observe("delete", "not_found")
	default:
		s.metrics.observe("delete", "ok")
	}
	return ok, err
}

// List returns every stored record in store order.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.store.List(ctx)
}

// Groups fetches the full record set and returns it partitioned into tagged groups.
func (s *Service) Groups(ctx context.Context) ([]TaggedRecord, error) {
	ctx, span := tracer.Start(ctx, "vuln.Service.Groups")
	defer span.End()

	records, err := s.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list records: %w", err)
	}

	start := time.Now()
	rows := s.grouper.Group(ctx, records)

	groups := make(map[string]struct{}, len(rows))
	for i := range rows {
		groups[rows[i].Tag] = struct{}{}
	}

	span.SetAttributes(
		attribute.Int("warden.records", len(records)),
		attribute.Int("warden.groups", len(groups)),
	)
	s.logger.Info(ctx, "grouped vulnerabilities",
		"records", len(records),
		"groups", len(groups),
		"duration", time.Since(start).Seconds(),
	)
	return rows, nil
}
