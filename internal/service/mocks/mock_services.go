package mocks

import (
	"context"
	"io"
	"time"

	"elysium/internal/model"
	"elysium/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockSheetService struct {
	mock.Mock
}

func (m *MockSheetService) Generate(ctx context.Context, c model.CharacterSheet, templateID string) ([]byte, error) {
	args := m.Called(ctx, c, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) Upload(ctx context.Context, r io.Reader, originalFilename string) (*model.SheetTemplate, error) {
	args := m.Called(ctx, r, originalFilename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SheetTemplate), args.Error(1)
}

func (m *MockTemplateService) List(ctx context.Context, limit, offset int) (*service.TemplateListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TemplateListResult), args.Error(1)
}

func (m *MockTemplateService) Get(ctx context.Context, id string) (*model.SheetTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SheetTemplate), args.Error(1)
}

func (m *MockTemplateService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTemplateService) PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}
