package ports

import "context"

// FileStore persists upload bytes under flat storage names. Save must be
// atomic at the byte level: a name is only addressable once its content is
// fully written.
type FileStore interface {
	Save(ctx context.Context, name string, content []byte) error
	Remove(ctx context.Context, name string) error
}
