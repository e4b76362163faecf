package downloads_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vidar-app/vidar/internal/api/downloads"
	"github.com/vidar-app/vidar/internal/download"
	"github.com/vidar-app/vidar/pkg/logger"
)

func init() {
	logger.SetMinLoggingLevel(logger.ERROR)
}

type mockService struct {
	mock.Mock
}

func (m *mockService) Submit(url string, kind download.JobKind, formatSelector string, collectionKind download.CollectionKind) (uuid.UUID, error) {
	args := m.Called(url, kind, formatSelector, collectionKind)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockService) Status(id uuid.UUID) (download.Job, error) {
	args := m.Called(id)
	return args.Get(0).(download.Job), args.Error(1)
}

func (m *mockService) ClaimArtifact(id uuid.UUID) (*download.Artifact, error) {
	args := m.Called(id)
	if artifact := args.Get(0); artifact != nil {
		return artifact.(*download.Artifact), args.Error(1)
	}
	return nil, args.Error(1)
}

func serveRequest(service downloads.Service, method string, target string, body string) *httptest.ResponseRecorder {
	server := echo.New()
	downloads.New(service).SetRoutes(server.Group("/api/vidar/v1/downloads"))

	request := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)

	return recorder
}

func TestCreateAcceptsJobAndReturnsItsID(t *testing.T) {
	jobID := uuid.New()
	service := new(mockService)
	service.On("Submit", "https://x/watch?v=abc", download.KindVideo, "", download.CollectionVideo).
		Return(jobID, nil).Once()

	recorder := serveRequest(service, http.MethodPost, "/api/vidar/v1/downloads",
		`{"url": "https://x/watch?v=abc"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), jobID.String())
	service.AssertExpectations(t)
}

func TestCreateMapsModesToJobKinds(t *testing.T) {
	tests := []struct {
		summary                string
		body                   string
		expectedKind           download.JobKind
		expectedFormat         string
		expectedCollectionKind download.CollectionKind
	}{
		{"default mode is video", `{"url": "https://x/v"}`, download.KindVideo, "", download.CollectionVideo},
		{"audio mode", `{"url": "https://x/v", "mode": "audio"}`, download.KindAudio, "", download.CollectionVideo},
		{"explicit format", `{"url": "https://x/v", "mode": "video", "formatId": "137+140"}`, download.KindVideo, "137+140", download.CollectionVideo},
		{"collection of audio", `{"url": "https://x/p", "mode": "collection", "collectionMode": "audio"}`, download.KindCollection, "", download.CollectionAudio},
		{"collection defaults to video items", `{"url": "https://x/p", "mode": "collection"}`, download.KindCollection, "", download.CollectionVideo},
	}

	for _, test := range tests {
		t.Run(test.summary, func(t *testing.T) {
			service := new(mockService)
			service.On("Submit", mock.Anything, test.expectedKind, test.expectedFormat, test.expectedCollectionKind).
				Return(uuid.New(), nil).Once()

			recorder := serveRequest(service, http.MethodPost, "/api/vidar/v1/downloads", test.body)

			assert.Equal(t, http.StatusOK, recorder.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestCreateRejectsMissingURL(t *testing.T) {
	service := new(mockService)

	recorder := serveRequest(service, http.MethodPost, "/api/vidar/v1/downloads", `{"mode": "video"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "missing url")
	service.AssertNotCalled(t, "Submit")
}

func TestCreateRejectsUnknownMode(t *testing.T) {
	service := new(mockService)

	recorder := serveRequest(service, http.MethodPost, "/api/vidar/v1/downloads",
		`{"url": "https://x/v", "mode": "hologram"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	service.AssertNotCalled(t, "Submit")
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	service := new(mockService)

	recorder := serveRequest(service, http.MethodPost, "/api/vidar/v1/downloads", `{"url": `)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	service.AssertNotCalled(t, "Submit")
}

func TestStatusReportsJobLifecycleState(t *testing.T) {
	jobID := uuid.New()
	service := new(mockService)
	service.On("Status", jobID).Return(download.Job{
		ID:     jobID,
		Status: download.Processing,
	}, nil).Once()

	recorder := serveRequest(service, http.MethodGet, "/api/vidar/v1/downloads/"+jobID.String()+"/status", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status": "processing"}`, recorder.Body.String())
}

func TestStatusIncludesFailureMessage(t *testing.T) {
	jobID := uuid.New()
	service := new(mockService)
	service.On("Status", jobID).Return(download.Job{
		ID:           jobID,
		Status:       download.Failed,
		ErrorMessage: "This is a private video.",
	}, nil).Once()

	recorder := serveRequest(service, http.MethodGet, "/api/vidar/v1/downloads/"+jobID.String()+"/status", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status": "failed", "errorMessage": "This is a private video."}`, recorder.Body.String())
}

func TestStatusRejectsUnknownAndMalformedIDs(t *testing.T) {
	service := new(mockService)
	service.On("Status", mock.Anything).Return(download.Job{}, download.ErrJobNotFound)

	recorder := serveRequest(service, http.MethodGet, "/api/vidar/v1/downloads/"+uuid.NewString()+"/status", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = serveRequest(service, http.MethodGet, "/api/vidar/v1/downloads/not-a-uuid/status", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestFileStreamsArtifactAndReleasesIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.mp4")
	assert.Nil(t, os.WriteFile(path, []byte("media bytes"), 0o644))

	jobID := uuid.New()
	service := new(mockService)
	service.On("ClaimArtifact", jobID).
		Return(&download.Artifact{Path: path, Name: "abc.mp4"}, nil).Once()

	recorder := serveRequest(service, http.MethodGet, "/api/vidar/v1/downloads/"+jobID.String()+"/file", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "media bytes", recorder.Body.String())
	assert.Contains(t, recorder.Header().Get(echo.HeaderContentDisposition), "abc.mp4")

	// The handler released the artifact once the response was written.
	assert.NoFileExists(t, path)
	service.AssertExpectations(t)
}

func TestFileUnavailableForUnclaimableJobs(t *testing.T) {
	service := new(mockService)
	service.On("ClaimArtifact", mock.Anything).Return(nil, download.ErrJobNotFound)

	recorder := serveRequest(service, http.MethodGet, "/api/vidar/v1/downloads/"+uuid.NewString()+"/file", "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "file not available")
}
