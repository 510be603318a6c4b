package notif

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"thriftstore/internal/common"
)

type NotificationServiceInterface interface {
	RecordMatches(ctx context.Context, userID uint, listingIDs []uint) (int, error)
	UserNotifications(ctx context.Context, userID uint, limit, offset int) ([]common.NotificationResponse, error)
	DeleteNotification(ctx context.Context, notificationID, userID uint) error
}

type NotificationHandler struct {
	service NotificationServiceInterface
}

func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

type recordRequest struct {
	ListingIDs []uint `json:"listing_ids"`
}

func (h *NotificationHandler) RegisterRoutes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.Handle("/api/notifications", auth(http.HandlerFunc(h.RecordMatches))).Methods(http.MethodPost)
	r.Handle("/api/notifications", auth(http.HandlerFunc(h.GetNotifications))).Methods(http.MethodGet)
	r.Handle("/api/notifications/{id}", auth(http.HandlerFunc(h.DeleteNotification))).Methods(http.MethodDelete)
}

// RecordMatches stores proximity matches asynchronously and answers 202.
func (h *NotificationHandler) RecordMatches(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserIDFromContext(r.Context())

	var req recordRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	accepted, err := h.service.RecordMatches(r.Context(), userID, req.ListingIDs)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusAccepted, map[string]int{"accepted": accepted})
}

func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserIDFromContext(r.Context())

	limit, err := queryInt(r, "limit")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	notifications, err := h.service.UserNotifications(r.Context(), userID, limit, offset)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserIDFromContext(r.Context())

	id, err := common.PathID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.DeleteNotification(r.Context(), id, userID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "notification deleted"})
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.NewValidationError(name, "must be a number")
	}
	return v, nil
}
