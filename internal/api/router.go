package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/ampline/ampline/internal/api/recovery"
	"github.com/ampline/ampline/internal/brand"
	"github.com/ampline/ampline/internal/services"
	"github.com/ampline/ampline/internal/store"
	"github.com/ampline/ampline/internal/token"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Store     store.Store
	Brands    *brand.Loader
	Campaigns *services.CampaignService
	Chat      *services.ChatService
	Verifier  *token.Signer
	Logger    zerolog.Logger
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)
	router.Use(RequestIDMiddleware)

	healthHandler := NewHealthHandler(d.Store)
	brandHandler := NewBrandHandler(d.Brands, d.Store)
	campaignHandler := NewCampaignHandler(d.Campaigns)
	chatHandler := NewChatHandler(d.Chat, d.Store, d.Verifier, d.Logger)
	conversationHandler := NewConversationHandler(d.Chat)

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStorageHealth).Methods("GET")

	// Brand endpoints
	router.HandleFunc("/api/v1/brands/sync", brandHandler.SyncBrands).Methods("POST")
	router.HandleFunc("/api/v1/brands", brandHandler.ListBrands).Methods("GET")

	// Campaign endpoints
	router.HandleFunc("/api/v1/campaigns", campaignHandler.CreateCampaign).Methods("POST")
	router.HandleFunc("/api/v1/campaigns", campaignHandler.ListCampaigns).Methods("GET")
	router.HandleFunc("/api/v1/campaigns/{campaignId}/send", campaignHandler.SendCampaign).Methods("POST")

	// Preview endpoints
	router.HandleFunc("/api/v1/preview/{brandId}", campaignHandler.PreviewBrand).Methods("GET")
	router.HandleFunc("/demo/preview-page/{brandId}", campaignHandler.PreviewPage).Methods("GET")

	// Chat endpoint posted to by AMP action-xhr; needs the AMP CORS headers.
	chat := router.PathPrefix("/api/v1/chat/message").Subrouter()
	chat.Use(AMPCORSMiddleware)
	chat.HandleFunc("", chatHandler.HandleMessage).Methods("POST", "OPTIONS")

	// Conversation views
	router.HandleFunc("/api/v1/conversations", conversationHandler.ListConversations).Methods("GET")
	router.HandleFunc("/api/v1/conversations/{convoId}", conversationHandler.ConversationDetail).Methods("GET")

	return router
}
