package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/plateshare/accountcore/internal/core/domain"
	"github.com/plateshare/accountcore/internal/core/ports"
	"github.com/plateshare/accountcore/internal/metrics"
)

const storedNameTokenBytes = 16

// UploadConfig carries the role-scoped extension allow-lists. Extensions are
// compared lowercase, without the leading dot.
type UploadConfig struct {
	// AllowedExtensions applies to every accepted role except employee.
	AllowedExtensions []string
	// EmployeeExtensions applies to the employee role only.
	EmployeeExtensions []string
}

// UploadService validates file submissions against a role-scoped extension
// allow-list and persists accepted content under a random storage name.
type UploadService struct {
	store    ports.FileStore
	allowed  map[string]struct{}
	employee map[string]struct{}
	random   io.Reader
	logger   zerolog.Logger
}

func NewUploadService(store ports.FileStore, cfg UploadConfig, logger zerolog.Logger) *UploadService {
	return &UploadService{
		store:    store,
		allowed:  extensionSet(cfg.AllowedExtensions, []string{"png", "jpg", "jpeg", "gif"}),
		employee: extensionSet(cfg.EmployeeExtensions, []string{"pdf"}),
		random:   rand.Reader,
		logger:   logger,
	}
}

// Accept validates rawFilename for the given role, writes content under a
// freshly generated storage name, and returns the stored/original pair. The
// storage name is hex(16 random bytes) plus the validated extension; it is
// never derived from rawFilename, so it cannot carry traversal sequences.
func (s *UploadService) Accept(ctx context.Context, role domain.Role, rawFilename string, content []byte) (*domain.StoredUpload, error) {
	if rawFilename == "" {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrNoFile
	}

	ext, ok := extension(rawFilename)
	if !ok || !s.extensionAllowed(role, ext) {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidFileType, rawFilename)
	}

	token := make([]byte, storedNameTokenBytes)
	if _, err := io.ReadFull(s.random, token); err != nil {
		return nil, fmt.Errorf("generate storage token: %w", err)
	}
	storedName := hex.EncodeToString(token) + "." + ext

	if err := s.store.Save(ctx, storedName, content); err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("persist upload: %w", err)
	}

	metrics.UploadsTotal.WithLabelValues("stored").Inc()
	s.logger.Info().
		Str("stored_name", storedName).
		Str("role", string(role)).
		Int("size_bytes", len(content)).
		Msg("upload accepted")

	return &domain.StoredUpload{
		StoredName:   storedName,
		OriginalName: rawFilename,
		SizeBytes:    int64(len(content)),
	}, nil
}

func (s *UploadService) extensionAllowed(role domain.Role, ext string) bool {
	set := s.allowed
	if role == domain.RoleEmployee {
		set = s.employee
	}
	_, ok := set[ext]
	return ok
}

// extension returns the lowercased substring after the last dot. A name
// without a dot, or ending in one, has no extension.
func extension(name string) (string, bool) {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return "", false
	}
	return strings.ToLower(name[idx+1:]), true
}

func extensionSet(exts, fallback []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = fallback
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))] = struct{}{}
	}
	return set
}
