package media

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmongo"
	"thriftstore/internal/logger"
)

// ImageSource is the read side of dbmongo.ImageStorage.
type ImageSource interface {
	Download(ctx context.Context, fileID string) (io.ReadCloser, *dbmongo.ImageFile, error)
}

type HTTPServer struct {
	storage ImageSource
	router  *mux.Router
}

func NewHTTPServer(storage ImageSource) *HTTPServer {
	s := &HTTPServer{storage: storage, router: mux.NewRouter()}

	// GET /media/{fileId}
	s.router.HandleFunc("/media/{fileId}", s.serveFile).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)

	return s
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRoutes mounts the image route on another router, used when the
// API server serves media itself.
func (s *HTTPServer) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/media/{fileId}", s.serveFile).Methods(http.MethodGet)
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileId"]

	reader, image, err := s.storage.Download(r.Context(), fileID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType(image))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", image.Size))
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if _, err := io.Copy(w, reader); err != nil {
		logger.Log.WithError(err).WithField("file_id", fileID).Warn("error streaming image")
	}
}

func contentType(image *dbmongo.ImageFile) string {
	if image.ImageType.IsValid() {
		return image.ImageType.MimeType()
	}
	return common.ImageTypeFromFilename(image.Filename).MimeType()
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
