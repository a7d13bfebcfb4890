package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/fitquest/fitquest-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса FitQuest.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/fitness/activity", h.ReportActivity)
		r.Get("/fitness/tokens/{email}", h.GetTokens)

		r.Get("/leaderboard", h.Leaderboard)

		r.Post("/location", h.UpdateLocation)
		r.Get("/players/location", h.PlayersLocation)
		r.Post("/avatar", h.UpdateAvatar)

		r.Route("/challenges", func(r chi.Router) {
			r.Post("/", h.CreateChallenge)
			r.Get("/pending/{email}", h.ListPendingChallenges)
			r.Get("/incoming/{email}", h.ListIncomingChallenges)
			r.Get("/upcoming/{email}", h.ListUpcomingChallenges)
			r.Get("/challenger/{email}", h.ListChallengerChallenges)
			r.Post("/decline-accepted", h.DeclineAcceptedChallenge)
			r.Delete("/completed/{email}", h.DeleteAllCompleted)
			r.Post("/{id}/accept", h.AcceptChallenge)
			r.Post("/{id}/decline", h.DeclineChallenge)
			r.Post("/{id}/progress", h.ReportChallengeProgress)
			r.Delete("/{id}/{email}", h.DeleteChallenge)
		})

		r.Post("/cashout", h.Cashout)
		r.Get("/payments/{email}", h.PaymentHistory)

		r.Post("/oauth/exchange", h.ExchangeCode)
		r.Post("/oauth/refresh", h.RefreshToken)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
