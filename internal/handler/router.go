package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	conversationHandler "github.com/voxlane/callpilot/backend/internal/handler/conversation"
	speechHandler "github.com/voxlane/callpilot/backend/internal/handler/speech"
	streamHandler "github.com/voxlane/callpilot/backend/internal/handler/stream"
	middlewarePkg "github.com/voxlane/callpilot/backend/internal/middleware"
	conversationService "github.com/voxlane/callpilot/backend/internal/service/conversation"
	"github.com/voxlane/callpilot/backend/internal/service/session"
	speechService "github.com/voxlane/callpilot/backend/internal/service/speech"
	"github.com/voxlane/callpilot/backend/internal/service/transcript"
	"github.com/voxlane/callpilot/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(
	store session.Store,
	orchestrator *conversationService.Service,
	accumulator *transcript.Accumulator,
	speechSvc *speechService.Service,
	aiEnabled bool,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middlewarePkg.Recover)
	r.Use(middlewarePkg.CORS)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "Not found")
	})

	r.Route("/api", func(api chi.Router) {
		conversationHandler.New(orchestrator, store).RegisterRoutes(api)

		sh := streamHandler.New(accumulator)
		sh.RegisterRoutes(api)
		streamHandler.NewWebSocketHandler(accumulator).RegisterRoutes(api)

		speechHandler.New(speechSvc, aiEnabled).RegisterRoutes(api)
	})

	return r
}
