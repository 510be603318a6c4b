package listing

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"thriftstore/internal/common"
)

const maxImageSize = 10 << 20

type ListingService interface {
	List(ctx context.Context) ([]Response, error)
	ListByUser(ctx context.Context, userID uint) ([]Response, error)
	Create(ctx context.Context, ownerID uint, in Input) (*Response, error)
	Update(ctx context.Context, callerID, id uint, in Input) (*Response, error)
	Delete(ctx context.Context, callerID, id uint) error
	AddImage(ctx context.Context, callerID, id uint, filename, mimeType string, content io.Reader) (*Response, error)
}

type Handler struct {
	service ListingService
}

func NewHandler(service ListingService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.HandleFunc("/listings", h.List).Methods(http.MethodGet)
	r.HandleFunc("/listings/user/{id}", h.ListByUser).Methods(http.MethodGet)

	r.Handle("/listings", auth(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	r.Handle("/listings/{id}", auth(http.HandlerFunc(h.Update))).Methods(http.MethodPut)
	r.Handle("/listings/{id}", auth(http.HandlerFunc(h.Delete))).Methods(http.MethodDelete)
	r.Handle("/listings/{id}/images", auth(http.HandlerFunc(h.UploadImage))).Methods(http.MethodPost)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string][]Response{"listings": listings})
}

func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := common.PathID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	listings, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string][]Response{"listings": listings})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, _ := common.UserIDFromContext(r.Context())

	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}

	listing, err := h.service.Create(r.Context(), callerID, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, map[string]*Response{"listing": listing})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, _ := common.UserIDFromContext(r.Context())
	id, err := common.PathID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}

	listing, err := h.service.Update(r.Context(), callerID, id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]*Response{"listing": listing})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, _ := common.UserIDFromContext(r.Context())
	id, err := common.PathID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), callerID, id); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "Listing deleted"})
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	callerID, _ := common.UserIDFromContext(r.Context())
	id, err := common.PathID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		common.WriteError(w, common.NewValidationError("image", "invalid multipart upload"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		common.WriteError(w, common.NewValidationError("image", "image file is required"))
		return
	}
	defer file.Close()

	listing, err := h.service.AddImage(r.Context(), callerID, id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, ErrImagesDisabled) {
			common.WriteErrorMessage(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, map[string]*Response{"listing": listing})
}
