package vuln

import "context"

// Store is the persistence interface for vulnerability records.
type Store interface {
	// List returns every record, oldest first.
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (*Record, bool, error)
	Put(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Grouper partitions a record set into tagged groups.
type Grouper interface {
	Group(ctx context.Context, records []Record) []TaggedRecord
}
