package di

import (
	"net/http"

	"github.com/google/wire"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	chathandler "thriftstore/internal/chat/handler"
	chatrepo "thriftstore/internal/chat/repository"
	chatservice "thriftstore/internal/chat/service"
	"thriftstore/internal/common"
	"thriftstore/internal/config"
	"thriftstore/internal/listing"
	"thriftstore/internal/notif"
	"thriftstore/internal/realtime"
	"thriftstore/internal/user"
	"thriftstore/internal/wishlist"
)

// Application is everything cmd/api-server needs to serve and shut down.
type Application struct {
	Config        *config.Config
	DB            *gorm.DB
	Router        *mux.Router
	Hub           *realtime.Hub
	Notifications *notif.NotificationService
}

// Shutdown disconnects websocket clients and drains the notification workers.
func (a *Application) Shutdown() {
	a.Hub.Close()
	a.Notifications.Shutdown()
}

var ProviderSet = wire.NewSet(
	ProvideTokenManager,
	ProvideAuthMiddleware,
	user.NewUserRepository,
	user.NewUserService,
	user.NewHandler,
	listing.NewRepository,
	ProvideOwnerLookup,
	ProvideListingService,
	wire.Bind(new(listing.ListingService), new(*listing.Service)),
	listing.NewHandler,
	wishlist.NewRepository,
	wishlist.NewService,
	wishlist.NewHandler,
	notif.NewNotificationRepository,
	notif.NewNotificationService,
	wire.Bind(new(notif.NotificationServiceInterface), new(*notif.NotificationService)),
	notif.NewNotificationHandler,
	chatrepo.NewChatRepository,
	ProvideChatService,
	chathandler.NewChatHandler,
	ProvideHub,
	realtime.NewHandler,
	ProvideRouter,
	wire.Struct(new(Application), "*"),
)

func ProvideTokenManager(cfg *config.Config) *common.TokenManager {
	return common.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
}

func ProvideAuthMiddleware(tokens *common.TokenManager) mux.MiddlewareFunc {
	return common.AuthMiddleware(tokens)
}

func ProvideOwnerLookup(repo user.UserRepository) listing.OwnerLookup {
	return repo
}

// ProvideListingService accepts a nil image store when MongoDB is disabled.
func ProvideListingService(cfg *config.Config, repo listing.Repository, owners listing.OwnerLookup, images listing.ImageStore) *listing.Service {
	return listing.NewService(repo, owners, images, cfg.Server.MediaBaseURL)
}

func ProvideChatService(repo chatrepo.ChatRepository, notifications *notif.NotificationService) chatservice.ChatService {
	return chatservice.NewChatService(repo, notifications.Manager())
}

// ProvideHub builds the websocket hub and hooks it into notification delivery.
func ProvideHub(cfg *config.Config, chat chatservice.ChatService, notifications *notif.NotificationService) *realtime.Hub {
	hub := realtime.NewHub(chat, cfg.Realtime)
	notifications.AttachPusher(hub)
	return hub
}

func ProvideRouter(
	auth mux.MiddlewareFunc,
	users *user.Handler,
	listings *listing.Handler,
	wishlists *wishlist.Handler,
	chats *chathandler.ChatHandler,
	notifications *notif.NotificationHandler,
	ws *realtime.Handler,
) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	users.RegisterRoutes(r, auth)
	listings.RegisterRoutes(r, auth)
	wishlists.RegisterRoutes(r, auth)
	chats.RegisterRoutes(r, auth)
	notifications.RegisterRoutes(r, auth)
	ws.RegisterRoutes(r)
	return r
}
