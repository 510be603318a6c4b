package user

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmysql"
)

type Handler struct {
	userService UserService
}

func NewHandler(userService UserService) *Handler {
	return &Handler{userService: userService}
}

type authResponse struct {
	Token string        `json:"token"`
	User  *dbmysql.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type locationRequest struct {
	Location string `json:"location"`
}

func (h *Handler) RegisterRoutes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	r.Handle("/updateLocation/{userId}", auth(http.HandlerFunc(h.UpdateLocation))).Methods(http.MethodPut)
	r.Handle("/api/getUserProfile", auth(http.HandlerFunc(h.GetProfile))).Methods(http.MethodGet)
	r.Handle("/api/profile", auth(http.HandlerFunc(h.UpdateProfile))).Methods(http.MethodPut)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	user, token, err := h.userService.Signup(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// GetProfile serves any user's public profile; without user_id it is the caller's.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteErrorMessage(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	userID := callerID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			common.WriteError(w, common.NewValidationError("user_id", "invalid user id"))
			return
		}
		userID = uint(id)
	}

	user, err := h.userService.Profile(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]*dbmysql.User{"user": user})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteErrorMessage(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req ProfileUpdate
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), callerID, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]*dbmysql.User{"user": user})
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteErrorMessage(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	userID, err := common.PathID(r, "userId")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req locationRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	user, err := h.userService.UpdateLocation(r.Context(), callerID, userID, req.Location)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]*dbmysql.User{"user": user})
}
