package medias_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vidar-app/vidar/internal/api/medias"
	"github.com/vidar-app/vidar/internal/ytdlp"
	"github.com/vidar-app/vidar/pkg/logger"
)

func init() {
	logger.SetMinLoggingLevel(logger.ERROR)
}

type mockProber struct {
	mock.Mock
}

func (m *mockProber) Probe(ctx context.Context, url string) (*ytdlp.Metadata, error) {
	args := m.Called(ctx, url)
	if metadata := args.Get(0); metadata != nil {
		return metadata.(*ytdlp.Metadata), args.Error(1)
	}
	return nil, args.Error(1)
}

func serveInfoRequest(prober medias.Prober, body string) *httptest.ResponseRecorder {
	server := echo.New()
	medias.New(prober).SetRoutes(server.Group("/api/vidar/v1/media"))

	request := httptest.NewRequest(http.MethodPost, "/api/vidar/v1/media/info", strings.NewReader(body))
	request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)

	return recorder
}

func TestInfoReturnsMediaSummaryWithFormats(t *testing.T) {
	prober := new(mockProber)
	prober.On("Probe", mock.Anything, "https://x/watch?v=abc").Return(&ytdlp.Metadata{
		ID:        "abc",
		Title:     "Example",
		Uploader:  "Someone",
		Thumbnail: "https://x/thumb.jpg",
		Formats: []ytdlp.Format{
			{ID: "137", Ext: "mp4", VCodec: "avc1", ACodec: "none", Filesize: 2048, Height: 1080},
			{ID: "140", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2", FilesizeApprox: 1024.7, ABR: 128},
		},
	}, nil).Once()

	recorder := serveInfoRequest(prober, `{"url": "https://x/watch?v=abc"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{
		"type": "media",
		"id": "abc",
		"title": "Example",
		"uploader": "Someone",
		"thumbnail": "https://x/thumb.jpg",
		"formats": [
			{"id": "137", "container": "mp4", "videoCodec": "avc1", "audioCodec": "none", "sizeBytes": 2048, "height": 1080},
			{"id": "140", "container": "m4a", "videoCodec": "none", "audioCodec": "mp4a.40.2", "sizeBytes": 1024, "audioBitrate": 128}
		]
	}`, recorder.Body.String())
	prober.AssertExpectations(t)
}

func TestInfoReturnsCollectionSummaryWithCappedEntries(t *testing.T) {
	entries := make([]ytdlp.Entry, 0, 12)
	for i := 0; i < 12; i++ {
		entries = append(entries, ytdlp.Entry{ID: string(rune('a' + i)), Title: "Item"})
	}
	// Placeholder entries for hidden items carry no id or title and must not
	// appear in the sample.
	entries[3] = ytdlp.Entry{}

	prober := new(mockProber)
	prober.On("Probe", mock.Anything, mock.Anything).Return(&ytdlp.Metadata{
		Type:    "playlist",
		ID:      "pl1",
		Title:   "Mix",
		Entries: entries,
	}, nil).Once()

	recorder := serveInfoRequest(prober, `{"url": "https://x/playlist?list=pl1"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	assert.Contains(t, body, `"type":"collection"`)
	assert.Contains(t, body, `"totalItems":12`)
	assert.Equal(t, 10, strings.Count(body, `"title":"Item"`))
}

func TestInfoRejectsMissingURL(t *testing.T) {
	prober := new(mockProber)

	recorder := serveInfoRequest(prober, `{}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "missing url")
	prober.AssertNotCalled(t, "Probe")
}

func TestInfoSurfacesClassifiedProbeFailure(t *testing.T) {
	prober := new(mockProber)
	prober.On("Probe", mock.Anything, mock.Anything).
		Return(nil, ytdlp.Classify("ERROR: [youtube] abc: Video unavailable")).Once()

	recorder := serveInfoRequest(prober, `{"url": "https://x/watch?v=abc"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "This video is unavailable.")
	assert.NotContains(t, recorder.Body.String(), "ERROR:")
}

func TestInfoMasksUnclassifiedProbeFailure(t *testing.T) {
	prober := new(mockProber)
	prober.On("Probe", mock.Anything, mock.Anything).
		Return(nil, context.DeadlineExceeded).Once()

	recorder := serveInfoRequest(prober, `{"url": "https://x/watch?v=abc"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "An error occurred while processing your request.")
}
