package wishlist

import (
	"net/http"

	"github.com/gorilla/mux"

	"thriftstore/internal/common"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type extractRequest struct {
	WishlistItems []string `json:"wishlistItems"`
}

func (h *Handler) RegisterRoutes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.HandleFunc("/extract-keywords", h.ExtractKeywords).Methods(http.MethodPost)
	r.Handle("/api/wishlist", auth(http.HandlerFunc(h.Get))).Methods(http.MethodGet)
	r.Handle("/api/wishlist", auth(http.HandlerFunc(h.Save))).Methods(http.MethodPut)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserIDFromContext(r.Context())

	wishlist, err := h.service.Get(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"wishlist": wishlist})
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserIDFromContext(r.Context())

	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}

	wishlist, err := h.service.Save(r.Context(), userID, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"wishlist": wishlist})
}

func (h *Handler) ExtractKeywords(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if len(req.WishlistItems) == 0 {
		common.WriteError(w, common.NewValidationError("wishlistItems", "wishlistItems must be a non-empty array"))
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"keywords": h.service.ExtractAll(req.WishlistItems)})
}
