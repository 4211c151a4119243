package health

import "context"

// DBPinger checks storage backend availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexCounter reports the number of live indexed documents.
type IndexCounter interface {
	Count(ctx context.Context) (int, error)
}
