package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmongo"
)

type MockImageSource struct {
	mock.Mock
}

func (m *MockImageSource) Download(ctx context.Context, fileID string) (io.ReadCloser, *dbmongo.ImageFile, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*dbmongo.ImageFile), args.Error(2)
}

func TestHTTPServer_ServeFile(t *testing.T) {
	source := new(MockImageSource)
	body := "png-bytes"
	source.On("Download", mock.Anything, "abc").Return(
		io.NopCloser(strings.NewReader(body)),
		&dbmongo.ImageFile{ID: "abc", Filename: "bike.png", Size: int64(len(body)), ImageType: common.ImageTypePNG},
		nil,
	)

	server := NewHTTPServer(source)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/abc", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, body, rr.Body.String())
	source.AssertExpectations(t)
}

func TestHTTPServer_ContentTypeFromFilename(t *testing.T) {
	source := new(MockImageSource)
	source.On("Download", mock.Anything, "legacy").Return(
		io.NopCloser(strings.NewReader("x")),
		&dbmongo.ImageFile{ID: "legacy", Filename: "old.gif", Size: 1},
		nil,
	)

	rr := httptest.NewRecorder()
	NewHTTPServer(source).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/legacy", nil))

	assert.Equal(t, "image/gif", rr.Header().Get("Content-Type"))
}

func TestHTTPServer_NotFound(t *testing.T) {
	source := new(MockImageSource)
	source.On("Download", mock.Anything, "missing").Return(nil, nil, fmt.Errorf("image missing: %w", common.ErrNotFound))

	rr := httptest.NewRecorder()
	NewHTTPServer(source).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/missing", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHTTPServer_Health(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHTTPServer(new(MockImageSource)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
