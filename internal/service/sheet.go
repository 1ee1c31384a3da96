package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"elysium/internal/model"
	"elysium/internal/pdf"
	"elysium/internal/repository"
	"elysium/internal/sheet"
	"elysium/internal/storage"
	"elysium/internal/template"
)

var (
	// ErrRegistryDisabled is returned when a registry template is requested
	// but the service runs without database/object storage.
	ErrRegistryDisabled = errors.New("template registry is not configured")
)

// SheetService fills character sheets.
type SheetService interface {
	// Generate maps the character onto the sheet template and returns the
	// filled PDF bytes. templateID selects a registry template; empty means
	// the bundled default.
	Generate(ctx context.Context, c model.CharacterSheet, templateID string) ([]byte, error)
}

type sheetService struct {
	mapper     *sheet.Mapper
	defaultTpl template.Provider
	store      storage.Storage               // nil without registry
	templates  repository.TemplateRepository // nil without registry
}

// NewSheetService constructs the sheet generation pipeline. store and
// templates may be nil when the registry is disabled.
func NewSheetService(mapper *sheet.Mapper, defaultTpl template.Provider, store storage.Storage, templates repository.TemplateRepository) SheetService {
	return &sheetService{
		mapper:     mapper,
		defaultTpl: defaultTpl,
		store:      store,
		templates:  templates,
	}
}

func (s *sheetService) Generate(ctx context.Context, c model.CharacterSheet, templateID string) ([]byte, error) {
	// The mapper runs first and aborts the request before any PDF work when
	// a derivation fails. No partial mapping reaches the filler.
	mapping, err := s.mapper.Map(c)
	if err != nil {
		return nil, err
	}

	tpl, err := s.templateBytes(ctx, templateID)
	if err != nil {
		return nil, err
	}

	out, missing, err := pdf.Fill(tpl, mapping)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		// Template revisions add and drop fields; absent ones are logged and
		// skipped rather than failing the document.
		logJSON(map[string]any{
			"component":      "sheet",
			"event":          "fields_missing_in_template",
			"template_id":    templateID,
			"missing_count":  len(missing),
			"missing_fields": missing,
		})
	}
	return out, nil
}

// templateBytes resolves the working copy of the template for one request.
func (s *sheetService) templateBytes(ctx context.Context, templateID string) ([]byte, error) {
	if templateID == "" {
		return s.defaultTpl.Bytes(ctx)
	}
	if s.templates == nil || s.store == nil {
		return nil, ErrRegistryDisabled
	}

	tpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	obj, _, err := s.store.Get(ctx, tpl.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", pdf.ErrTemplateLoad, tpl.StoragePath, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", pdf.ErrTemplateLoad, tpl.StoragePath, err)
	}
	return data, nil
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		data["level"] = "info"
	}
	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
