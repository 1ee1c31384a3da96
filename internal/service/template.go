package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"elysium/internal/model"
	"elysium/internal/pdf"
	"elysium/internal/repository"
	"elysium/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("template not found")
	ErrReaderNil  = errors.New("reader is nil")
)

// TemplateListResult is the service-level DTO for paginated templates.
type TemplateListResult struct {
	Items []model.SheetTemplate `json:"data"`
	Total int                   `json:"total"`
}

// TemplateService manages the registry of uploaded sheet templates.
type TemplateService interface {
	// Upload validates that the content is a form-bearing PDF, stores it in
	// object storage and records its metadata. Rolls back storage if the
	// metadata save fails.
	Upload(ctx context.Context, r io.Reader, originalFilename string) (*model.SheetTemplate, error)

	// List returns templates using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*TemplateListResult, error)

	// Get returns a single template by its ID.
	Get(ctx context.Context, id string) (*model.SheetTemplate, error)

	// Delete removes a template from both storage and the repository.
	Delete(ctx context.Context, id string) error

	// PresignDownload returns a time-limited URL for the template asset.
	PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error)
}

type templateService struct {
	store storage.Storage
	repo  repository.TemplateRepository
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(store storage.Storage, repo repository.TemplateRepository) TemplateService {
	return &templateService{store: store, repo: repo}
}

func (s *templateService) Upload(ctx context.Context, r io.Reader, originalFilename string) (*model.SheetTemplate, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	// The whole document is needed up front to count its form fields; a
	// template without fields is useless to the filler and gets rejected.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	fieldCount, err := pdf.Inspect(data)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(originalFilename)
	if ext == "" {
		ext = ".pdf"
	}
	key := filepath.ToSlash(filepath.Join("templates", uuid.New().String()+ext))

	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.UploadOptions{
		Size:        int64(len(data)),
		ContentType: "application/pdf",
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	tpl := &model.SheetTemplate{
		ID:          uuid.New().String(),
		Name:        originalFilename,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		FieldCount:  fieldCount,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, tpl)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *templateService) List(ctx context.Context, limit, offset int) (*TemplateListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &TemplateListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*model.SheetTemplate, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func (s *templateService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Storage first; a failed delete keeps the DB row so the reference is
	// not lost.
	if err := s.store.Delete(ctx, tpl.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *templateService) PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return s.store.PresignGet(ctx, tpl.StoragePath, expiry)
}
