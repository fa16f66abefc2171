package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerAuthRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.HandleFunc("GET /v1/auth/login", handler.Login)
	mux.HandleFunc("GET /v1/auth/callback", handler.Callback)
	mux.Handle("GET /v1/me", RequireAuth(verifier, http.HandlerFunc(handler.Me)))
}

func registerCatalogRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/seasons/current", handler.GetCurrentSeason)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/slates", handler.ListSlates)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/slates/{ordinal}/games", handler.ListSlateGames)
}

func registerPoolRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/pools", RequireAuth(verifier, http.HandlerFunc(handler.CreatePool)))
	mux.Handle("GET /v1/pools", RequireAuth(verifier, http.HandlerFunc(handler.ListMyPools)))
	mux.Handle("GET /v1/pools/{poolID}", RequireAuth(verifier, http.HandlerFunc(handler.GetPool)))
	mux.Handle("PUT /v1/pools/{poolID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdatePool)))
	mux.Handle("GET /v1/pools/{poolID}/invite-code", RequireAuth(verifier, http.HandlerFunc(handler.GetInviteCode)))
	mux.Handle("POST /v1/pools/{poolID}/entries", RequireAuth(verifier, http.HandlerFunc(handler.JoinPool)))
	mux.Handle("GET /v1/pools/{poolID}/entries", RequireAuth(verifier, http.HandlerFunc(handler.ListEntries)))
	mux.Handle("PATCH /v1/pools/{poolID}/entries/{entryID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdateEntry)))
	mux.Handle("GET /v1/pools/{poolID}/standings", RequireAuth(verifier, http.HandlerFunc(handler.ListStandings)))
	mux.Handle("GET /v1/pools/{poolID}/entries/{entryID}/picks", RequireAuth(verifier, http.HandlerFunc(handler.ListPicks)))
	mux.Handle("PUT /v1/pools/{poolID}/entries/{entryID}/picks/{slateID}", RequireAuth(verifier, http.HandlerFunc(handler.SubmitPick)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/import/teams", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ImportTeams)))
	mux.Handle("POST /v1/internal/import/schedule", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ImportSchedule)))
	mux.Handle("POST /v1/internal/import/odds", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ImportOdds)))
	mux.Handle("POST /v1/internal/import/scores", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ImportScores)))
	mux.Handle("POST /v1/internal/evaluate/games/{gameID}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.EvaluateGame)))
}
