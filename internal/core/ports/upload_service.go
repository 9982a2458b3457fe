package ports

import (
	"context"

	"github.com/plateshare/accountcore/internal/core/domain"
)

// UploadService validates file submissions and derives safe storage names.
type UploadService interface {
	// Accept validates rawFilename against the allow-list for role, persists
	// content under a freshly generated storage name, and returns the pair.
	Accept(ctx context.Context, role domain.Role, rawFilename string, content []byte) (*domain.StoredUpload, error)
}
