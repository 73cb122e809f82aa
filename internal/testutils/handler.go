package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"studykit/internal/agent"
	"studykit/internal/chat"
	"studykit/internal/contract"
	"studykit/internal/db"
	"studykit/internal/docs"
	"studykit/internal/handler"
	"studykit/internal/middleware"
	"studykit/internal/pipeline"
	"studykit/internal/prompt"
	"studykit/internal/storage"
	"studykit/internal/vectorstore"
	"studykit/internal/youtube"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// CustomValidator implements the echo.Validator interface
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the provided struct
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

const (
	TestDBPath     = ":memory:" // Use in-memory SQLite for tests
	TestJWTSecret  = "test-jwt-secret"
	TestYouTubeURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
)

type Options struct {
	JWTSecret string
	// WithoutStorage leaves the object store unset.
	WithoutStorage bool
}

// Dependencies exposes the fakes behind a test server.
type Dependencies struct {
	Completer   *FakeCompleter
	Embedder    *FakeEmbedder
	Storage     *MockStorageProvider
	Transcripts *FakeTranscripts
	OCR         *FakeOCR
	DB          *db.Storage
	Memory      *agent.InMemory
}

func setupTestDB(t *testing.T) *db.Storage {
	t.Helper()

	storage, err := db.ConnectDB(TestDBPath)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		if err := storage.Close(); err != nil {
			fmt.Printf("Warning: Failed to close test database: %v\n", err)
		}
	})

	return storage
}

func SetupHandlerDependencies(t *testing.T, opts ...Options) (*echo.Echo, *Dependencies) {
	t.Helper()

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	deps := &Dependencies{
		Completer:   &FakeCompleter{},
		Embedder:    &FakeEmbedder{},
		Storage:     NewMockStorageProvider(),
		Transcripts: &FakeTranscripts{},
		OCR:         &FakeOCR{Text: "recognized text"},
		DB:          setupTestDB(t),
		Memory:      agent.NewInMemory(20),
	}

	logr := slog.New(slog.NewTextHandler(io.Discard, nil))

	selector, err := prompt.NewSelector()
	if err != nil {
		t.Fatalf("Failed to load prompt templates: %v", err)
	}

	invoker := agent.NewInvoker(deps.Completer, selector, agent.Config{MaxSteps: 3, Timeout: 5 * time.Second}, logr)
	sessions := agent.NewSessions(deps.Memory)
	service := pipeline.NewService(invoker, selector, sessions, pipeline.Config{}, logr)

	store := vectorstore.NewSQLite(deps.DB)
	bot := chat.NewBot(deps.Completer, deps.Embedder, store, selector, chat.DefaultConfig(), logr)

	var storageProvider storage.Provider = deps.Storage
	if o.WithoutStorage {
		storageProvider = nil
	}

	h := handler.New(
		service,
		bot,
		docs.NewRegistry(deps.OCR),
		deps.Transcripts,
		storageProvider,
		deps.DB,
		o.JWTSecret,
		youtube.DefaultLanguages,
		logr,
	)

	e := echo.New()

	middleware.Setup(e, logr)

	// Add validator to Echo
	e.Validator = &CustomValidator{validator: validator.New()}

	h.RegisterRoutes(e)

	return e, deps
}

func PerformRequest(t *testing.T, e *echo.Echo, method, path, body, token string, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	return serve(t, e, req, expectedStatus)
}

// PerformRequestWithHeaders is PerformRequest for callers that need to set
// Accept-Language or a multipart content type.
func PerformRequestWithHeaders(t *testing.T, e *echo.Echo, method, path string, body io.Reader, headers map[string]string, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return serve(t, e, req, expectedStatus)
}

func serve(t *testing.T, e *echo.Echo, req *http.Request, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != expectedStatus {
		t.Errorf("Expected status %d, got %d, body: %s", expectedStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func ParseResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var result T
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return result
}

// GenerateToken signs a bearer token the way the /agent guard expects.
func GenerateToken(t *testing.T, secret, uid string) string {
	t.Helper()

	claims := &contract.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UID: uid,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

// MultipartBody builds a form with the given fields and, when filename is
// set, one file part named "file".
func MultipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (io.Reader, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field %s: %v", k, err)
		}
	}

	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	return body, w.FormDataContentType()
}
