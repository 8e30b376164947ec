package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"papertrail/internal/auth"
	"papertrail/internal/config"
	"papertrail/internal/http/middleware"
	"papertrail/internal/model"
	"papertrail/internal/repository/memory"
	"papertrail/internal/service"
	serviceMocks "papertrail/internal/service/mocks"
	"papertrail/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/api/health", HealthCheck(db, "1.2.3"))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[map[string]string](t, resp)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "1.2.3", body["version"])
		assert.NotEmpty(t, body["timestamp"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		body := decodeBody[errorPayload](t, resp)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})

	t.Run("no database configured", func(t *testing.T) {
		app := fiber.New()
		app.Get("/api/health", HealthCheck(nil, "dev"))

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestErrorHandler(t *testing.T) {
	t.Run("oversized body", func(t *testing.T) {
		app := fiber.New(fiber.Config{
			ErrorHandler: ErrorHandler(),
			BodyLimit:    16,
		})
		app.Post("/upload", func(c *fiber.Ctx) error {
			return c.SendStatus(http.StatusCreated)
		})

		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 64)))
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		body := decodeBody[errorPayload](t, resp)
		assert.Equal(t, "FILE_TOO_LARGE", body.Error.Code)
	})

	t.Run("plain errors are masked", func(t *testing.T) {
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		app.Get("/boom", func(c *fiber.Ctx) error {
			return errors.New("connection string with secrets")
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeBody[errorPayload](t, resp)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
		assert.Equal(t, "internal server error", body.Error.Message)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/api/auth/register", Register(mockSvc))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		user := &model.User{ID: uuid.New().String(), Email: "a@x.com"}
		mockSvc.On("Register", mock.Anything, service.RegisterInput{
			Email: "a@x.com", Password: "pw", FirstName: "A", LastName: "B",
		}).Return(user, "tok-123", nil).Once()

		resp := post(`{"email":"a@x.com","password":"pw","firstName":"A","lastName":"B"}`)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody[authResponse](t, resp)
		assert.Equal(t, "tok-123", body.Token)
		assert.Equal(t, "a@x.com", body.User.Email)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, mock.Anything).
			Return(nil, "", service.ErrFieldsRequired).Once()

		resp := post(`{"email":"a@x.com"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[errorPayload](t, resp)
		assert.Equal(t, "FIELDS_REQUIRED", body.Error.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, mock.Anything).
			Return(nil, "", service.ErrEmailTaken).Once()

		resp := post(`{"email":"a@x.com","password":"pw","firstName":"A","lastName":"B"}`)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		body := decodeBody[errorPayload](t, resp)
		assert.Equal(t, "EMAIL_TAKEN", body.Error.Code)
	})
}

func TestLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/api/auth/login", Login(mockSvc))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		user := &model.User{ID: uuid.New().String(), Email: "a@x.com"}
		mockSvc.On("Login", mock.Anything, "a@x.com", "pw").Return(user, "tok-123", nil).Once()

		resp := post(`{"email":"a@x.com","password":"pw"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[authResponse](t, resp)
		assert.Equal(t, "tok-123", body.Token)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "a@x.com", "wrong").
			Return(nil, "", service.ErrInvalidCredentials).Once()

		resp := post(`{"email":"a@x.com","password":"wrong"}`)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body := decodeBody[errorPayload](t, resp)
		assert.Equal(t, "INVALID_CREDENTIALS", body.Error.Code)
		assert.Equal(t, "Invalid credentials", body.Error.Message)
	})
}

// fakeAuthed stands in for BearerAuth in single-handler tests.
func fakeAuthed(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDLocalKey, userID)
		return c.Next()
	}
}

func multipartUpload(t *testing.T, field, filename, content string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.Copy(fw, strings.NewReader(content))
	require.NoError(t, err)
	for k, v := range extra {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/api/documents/upload", fakeAuthed("user-1"), UploadDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &model.Document{ID: uuid.New().String(), OriginalName: "w2_2023.pdf"}
		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.OwnerID == "user-1" && in.OriginalFilename == "w2_2023.pdf" &&
				in.Description == "my W-2"
		})).Return(expected, nil).Once()

		body, ct := multipartUpload(t, "document", "w2_2023.pdf", "pdf bytes", map[string]string{
			"description": "my W-2",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
		req.Header.Set(fiber.HeaderContentType, ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		doc := decodeBody[model.Document](t, resp)
		assert.Equal(t, "w2_2023.pdf", doc.OriginalName)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", strings.NewReader(""))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[errorPayload](t, resp)
		assert.Equal(t, "FILE_REQUIRED", body.Error.Code)
	})

	t.Run("disallowed file type", func(t *testing.T) {
		mockSvc.On("Upload", mock.Anything, mock.Anything).
			Return(nil, service.ErrFileTypeNotAllowed).Once()

		body, ct := multipartUpload(t, "document", "tool.exe", "MZ", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
		req.Header.Set(fiber.HeaderContentType, ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		payload := decodeBody[errorPayload](t, resp)
		assert.Equal(t, "FILE_TYPE_NOT_ALLOWED", payload.Error.Code)
	})

	t.Run("invalid tax year", func(t *testing.T) {
		body, ct := multipartUpload(t, "document", "w2.pdf", "x", map[string]string{
			"taxYear": "twenty23",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
		req.Header.Set(fiber.HeaderContentType, ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		payload := decodeBody[errorPayload](t, resp)
		assert.Equal(t, "INVALID_TAX_YEAR", payload.Error.Code)
	})
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents", fakeAuthed("user-1"), ListDocuments(mockSvc))

	views := []service.DocumentView{
		{
			Document:   model.Document{ID: "doc-1", OriginalName: "w2.pdf"},
			SharedWith: []model.Permission{{ID: "perm-1", IsActive: true}},
		},
	}
	mockSvc.On("List", mock.Anything, "user-1").Return(views, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[[]service.DocumentView](t, resp)
	require.Len(t, got, 1)
	assert.Len(t, got[0].SharedWith, 1)
	mockSvc.AssertExpectations(t)
}

func TestShareDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/api/documents/:id/share", fakeAuthed("user-1"), ShareDocument(mockSvc))

	post := func(id, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/documents/"+id+"/share", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		perm := &model.Permission{ID: "perm-1", DocumentID: "doc-1", IsActive: true}
		mockSvc.On("Share", mock.Anything, mock.MatchedBy(func(in service.ShareInput) bool {
			return in.DocumentID == "doc-1" && in.OwnerID == "user-1" &&
				in.GrantedToEmail == "cpa@x.com" && in.Role == "cpa"
		})).Return(perm, nil).Once()

		resp := post("doc-1", `{"grantedToEmail":"cpa@x.com","grantedToName":"CPA","role":"cpa"}`)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		got := decodeBody[model.Permission](t, resp)
		assert.True(t, got.IsActive)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		mockSvc.On("Share", mock.Anything, mock.Anything).
			Return(nil, service.ErrFieldsRequired).Once()

		resp := post("doc-1", `{"grantedToEmail":"cpa@x.com"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		payload := decodeBody[errorPayload](t, resp)
		assert.Equal(t, "FIELDS_REQUIRED", payload.Error.Code)
	})

	t.Run("not owned", func(t *testing.T) {
		mockSvc.On("Share", mock.Anything, mock.Anything).
			Return(nil, service.ErrNotFound).Once()

		resp := post("doc-x", `{"grantedToEmail":"cpa@x.com","grantedToName":"CPA","role":"cpa"}`)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRevokeShare(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Delete("/api/documents/:id/share/:permissionId", fakeAuthed("user-1"), RevokeShare(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Revoke", mock.Anything, mock.MatchedBy(func(in service.RevokeInput) bool {
			return in.DocumentID == "doc-1" && in.PermissionID == "perm-1" && in.OwnerID == "user-1"
		})).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1/share/perm-1", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown grant", func(t *testing.T) {
		mockSvc.On("Revoke", mock.Anything, mock.Anything).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1/share/perm-x", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAuditTrail(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents/:id/audit", fakeAuthed("user-1"), AuditTrail(mockSvc))

	t.Run("success newest first", func(t *testing.T) {
		entries := []model.AuditLogEntry{
			{ID: "a2", Action: model.ActionShare},
			{ID: "a1", Action: model.ActionUpload},
		}
		mockSvc.On("AuditTrail", mock.Anything, "doc-1", "user-1").Return(entries, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents/doc-1/audit", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeBody[[]model.AuditLogEntry](t, resp)
		require.Len(t, got, 2)
		assert.Equal(t, model.ActionShare, got[0].Action)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not owned", func(t *testing.T) {
		mockSvc.On("AuditTrail", mock.Anything, "doc-1", "user-1").
			Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents/doc-1/audit", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDownloadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents/:id/download", fakeAuthed("user-1"), DownloadDocument(mockSvc))

	doc := &model.Document{ID: "doc-1", OriginalName: "w2.pdf", MimeType: "application/pdf"}
	mockSvc.On("Download", mock.Anything, "doc-1", "user-1", mock.Anything).
		Return(io.NopCloser(strings.NewReader("pdf bytes")), doc, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/documents/doc-1/download", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `"w2.pdf"`)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "pdf bytes", string(body))
	mockSvc.AssertExpectations(t)
}

// newTestApp wires real services over in-memory repositories and a temp-dir
// store, exactly as main does when no database is configured.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	authSvc := service.NewAuthService(
		memory.NewUserMemory(),
		auth.NewPasswordHasher(4),
		auth.NewTokenManager([]byte("test-secret"), time.Hour),
	)
	docSvc := service.NewDocumentService(
		store,
		memory.NewDocumentMemory(),
		memory.NewPermissionMemory(),
		memory.NewAuditLogMemory(),
		config.UploadConfig{
			MaxBytes:    10 * 1024 * 1024,
			AllowedExts: []string{".pdf", ".doc", ".docx", ".csv", ".txt"},
		},
		config.SharingConfig{},
	)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	RegisterRoutes(app, nil, "test", authSvc, docSvc)
	return app
}

func TestEndToEndScenario(t *testing.T) {
	app := newTestApp(t)

	jsonReq := func(method, path, token, body string) *http.Response {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if token != "" {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	// register
	resp := jsonReq(http.MethodPost, "/api/auth/register", "",
		`{"email":"a@x.com","password":"secret","firstName":"Alice","lastName":"Ax"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// login
	resp = jsonReq(http.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeBody[authResponse](t, resp)
	require.NotEmpty(t, login.Token)
	token := login.Token

	// upload w2_2023.pdf, expect auto category tax/w2
	body, ct := multipartUpload(t, "document", "w2_2023.pdf", "pdf bytes", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set(fiber.HeaderContentType, ct)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	doc := decodeBody[model.Document](t, resp)
	assert.Equal(t, "tax", doc.Category)
	assert.Equal(t, "w2", doc.Subcategory)

	// listing shows the document with no grants yet
	resp = jsonReq(http.MethodGet, "/api/documents", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	views := decodeBody[[]service.DocumentView](t, resp)
	require.Len(t, views, 1)
	assert.Empty(t, views[0].SharedWith)

	// share with the accountant
	resp = jsonReq(http.MethodPost, "/api/documents/"+doc.ID+"/share", token,
		`{"grantedToEmail":"cpa@x.com","grantedToName":"CPA","role":"cpa"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	perm := decodeBody[model.Permission](t, resp)
	assert.True(t, perm.IsActive)

	// listing now shows one active grant
	resp = jsonReq(http.MethodGet, "/api/documents", token, "")
	views = decodeBody[[]service.DocumentView](t, resp)
	require.Len(t, views, 1)
	require.Len(t, views[0].SharedWith, 1)
	assert.True(t, views[0].SharedWith[0].IsActive)

	// audit trail is newest first: share then upload
	resp = jsonReq(http.MethodGet, "/api/documents/"+doc.ID+"/audit", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decodeBody[[]model.AuditLogEntry](t, resp)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionShare, entries[0].Action)
	assert.Equal(t, model.ActionUpload, entries[1].Action)

	// a second user cannot see the document
	resp = jsonReq(http.MethodPost, "/api/auth/register", "",
		`{"email":"b@x.com","password":"secret","firstName":"Bob","lastName":"Bx"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	other := decodeBody[authResponse](t, resp)

	resp = jsonReq(http.MethodGet, "/api/documents/"+doc.ID+"/audit", other.Token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// nor share it; an incomplete body must not downgrade the 404 to a 400
	resp = jsonReq(http.MethodPost, "/api/documents/"+doc.ID+"/share", other.Token, `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// no token at all
	resp = jsonReq(http.MethodGet, "/api/documents", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// unmatched route falls through to the JSON 404
	resp = jsonReq(http.MethodGet, "/api/unknown", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	payload := decodeBody[errorPayload](t, resp)
	assert.Equal(t, "NOT_FOUND", payload.Error.Code)
}
