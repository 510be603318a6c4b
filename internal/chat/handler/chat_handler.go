// Package handler exposes the chat REST endpoints.
package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"thriftstore/internal/chat/service"
	"thriftstore/internal/common"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type startConversationRequest struct {
	SellerID uint `json:"seller_id"`
}

func (h *ChatHandler) RegisterRoutes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.Handle("/api/conversations", auth(http.HandlerFunc(h.ListConversations))).Methods(http.MethodGet)
	r.Handle("/api/conversations", auth(http.HandlerFunc(h.StartConversation))).Methods(http.MethodPost)
	r.Handle("/api/messages/{conversationId}", auth(http.HandlerFunc(h.GetChatHistory))).Methods(http.MethodGet)
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteErrorMessage(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	convs, err := h.chatService.ListConversations(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, convs)
}

// StartConversation answers 201 for a new thread and 200 when the pair already had one.
func (h *ChatHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteErrorMessage(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req startConversationRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	conv, created, err := h.chatService.StartConversation(r.Context(), buyerID, req.SellerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	common.WriteJSON(w, status, conv)
}

func (h *ChatHandler) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteErrorMessage(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	conversationID, err := common.PathID(r, "conversationId")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	messages, err := h.chatService.History(r.Context(), userID, conversationID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, messages)
}
