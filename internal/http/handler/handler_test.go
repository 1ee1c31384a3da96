package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"elysium/internal/model"
	"elysium/internal/pdf"
	"elysium/internal/service"
	serviceMocks "elysium/internal/service/mocks"
	"elysium/internal/sheet"
)

func characterBody(t *testing.T, c model.CharacterSheet) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(c)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestRoot(t *testing.T) {
	app := fiber.New()
	app.Get("/", Root())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "elysium", body["service"])
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "enabled", body["registry"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})

	t.Run("no registry", func(t *testing.T) {
		noDB := fiber.New()
		noDB.Get("/health", HealthCheck(nil))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := noDB.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "disabled", body["registry"])
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGenerateSheet(t *testing.T) {
	mockSvc := new(serviceMocks.MockSheetService)
	app := fiber.New()
	app.Post("/sheets", GenerateSheet(mockSvc))

	character := model.CharacterSheet{
		Name:            "Lucian Markov",
		Clan:            &model.Ref{Name: "Tzimisce"},
		Generation:      10,
		TotalExperience: 20,
		Attributes:      map[string]int{"strength": 3},
	}

	post := func(t *testing.T, c model.CharacterSheet, query string) *http.Response {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/sheets"+query, characterBody(t, c))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		filled := []byte("%PDF-1.4 filled")
		mockSvc.On("Generate", mock.Anything, mock.Anything, "").Return(filled, nil).Once()

		resp := post(t, character, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="Lucian_Markov.pdf"`, resp.Header.Get("Content-Disposition"))

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, filled, body)
		mockSvc.AssertExpectations(t)
	})

	t.Run("template id passthrough", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Generate", mock.Anything, mock.Anything, id).Return([]byte("%PDF"), nil).Once()

		resp := post(t, character, "?template_id="+id)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sheets", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_BODY", res.Error.Code)
	})

	t.Run("mapping error", func(t *testing.T) {
		mockSvc.On("Generate", mock.Anything, mock.Anything, "").
			Return(nil, fmt.Errorf("%w: spent experience exceeds total", sheet.ErrMapping)).Once()

		resp := post(t, character, "")

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_CHARACTER", res.Error.Code)
		assert.Contains(t, res.Error.Message, "spent experience")
		mockSvc.AssertExpectations(t)
	})

	t.Run("template unavailable", func(t *testing.T) {
		mockSvc.On("Generate", mock.Anything, mock.Anything, "").
			Return(nil, pdf.ErrTemplateLoad).Once()

		resp := post(t, character, "")

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "TEMPLATE_UNAVAILABLE", res.Error.Code)
	})

	t.Run("registry disabled", func(t *testing.T) {
		mockSvc.On("Generate", mock.Anything, mock.Anything, "").
			Return(nil, service.ErrRegistryDisabled).Once()

		resp := post(t, character, "")

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "TEMPLATE_UNAVAILABLE", res.Error.Code)
	})

	t.Run("unknown template", func(t *testing.T) {
		mockSvc.On("Generate", mock.Anything, mock.Anything, "").
			Return(nil, service.ErrNotFound).Once()

		resp := post(t, character, "")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("render failure", func(t *testing.T) {
		mockSvc.On("Generate", mock.Anything, mock.Anything, "").
			Return(nil, pdf.ErrRender).Once()

		resp := post(t, character, "")

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "RENDER_FAILED", res.Error.Code)
	})
}

func TestSheetFilename(t *testing.T) {
	assert.Equal(t, "Lucian_Markov.pdf", sheetFilename("Lucian Markov"))
	assert.Equal(t, "character_sheet.pdf", sheetFilename(""))
	assert.Equal(t, "character_sheet.pdf", sheetFilename("!!!"))
	assert.Equal(t, "Dr_Netchurch.pdf", sheetFilename("Dr. Netchurch"))
}

func TestUploadTemplate(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Post("/templates", UploadTemplate(mockSvc))

	multipartReq := func(t *testing.T, filename string, content []byte) *http.Request {
		t.Helper()
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		part.Write(content)
		writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/templates", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req
	}

	t.Run("success", func(t *testing.T) {
		expected := &model.SheetTemplate{ID: uuid.New().String(), Name: "v20.pdf", FieldCount: 600}
		mockSvc.On("Upload", mock.Anything, mock.Anything, "v20.pdf").Return(expected, nil).Once()

		resp, _ := app.Test(multipartReq(t, "v20.pdf", []byte("%PDF-1.4 ...")))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.SheetTemplate
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/templates", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("not a form pdf", func(t *testing.T) {
		mockSvc.On("Upload", mock.Anything, mock.Anything, "junk.pdf").
			Return(nil, pdf.ErrTemplateLoad).Once()

		resp, _ := app.Test(multipartReq(t, "junk.pdf", []byte("plain text")))

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_TEMPLATE", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Upload", mock.Anything, mock.Anything, "v20.pdf").
			Return(nil, errors.New("upload failed")).Once()

		resp, _ := app.Test(multipartReq(t, "v20.pdf", []byte("%PDF-1.4")))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestListTemplates(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Get("/templates", ListTemplates(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &service.TemplateListResult{
			Items: []model.SheetTemplate{{ID: uuid.New().String(), Name: "v20.pdf"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, 10, 0).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.TemplateListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/templates?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_LIMIT", res.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetTemplate(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Get("/templates/:id", GetTemplate(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(&model.SheetTemplate{ID: id}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.SheetTemplate
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/templates/invalid-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})
}

func TestDeleteTemplate(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Delete("/templates/:id", DeleteTemplate(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/templates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/templates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDownloadTemplate(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Get("/templates/:id/download", DownloadTemplate(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("PresignDownload", mock.Anything, id, 15*time.Minute).
			Return("https://storage.test/signed", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://storage.test/signed", body["url"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("PresignDownload", mock.Anything, id, 15*time.Minute).
			Return("", service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSheet := new(serviceMocks.MockSheetService)
	mockTpl := new(serviceMocks.MockTemplateService)
	RegisterRoutes(app, nil, mockSheet, mockTpl)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("registry routes hidden when disabled", func(t *testing.T) {
		minimal := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		RegisterRoutes(minimal, nil, mockSheet, nil)

		req := httptest.NewRequest(http.MethodGet, "/templates", nil)
		resp, _ := minimal.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
