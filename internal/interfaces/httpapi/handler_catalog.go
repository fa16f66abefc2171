package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	items, err := h.teamService.List(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]teamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, teamToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	slug := strings.TrimSpace(r.PathValue("teamID"))
	item, err := h.teamService.Get(ctx, slug)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", slug, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(item))
}

func (h *Handler) GetCurrentSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentSeason")
	defer span.End()

	current, err := h.seasonService.Current(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve current season failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := currentSeasonDTO{Season: seasonToDTO(current.Season)}
	if current.HasSlate {
		slate := slateToDTO(current.Slate, h.now())
		out.Slate = &slate
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListSlates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSlates")
	defer span.End()

	seasonID := strings.TrimSpace(r.PathValue("seasonID"))
	items, err := h.seasonService.ListSlates(ctx, seasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "list slates failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	now := h.now()
	out := make([]slateDTO, 0, len(items))
	for _, item := range items {
		out = append(out, slateToDTO(item, now))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListSlateGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSlateGames")
	defer span.End()

	ordinal, ok := requireOrdinal(ctx, w, r)
	if !ok {
		return
	}
	seasonID := strings.TrimSpace(r.PathValue("seasonID"))

	slate, games, err := h.seasonService.ListGames(ctx, seasonID, ordinal)
	if err != nil {
		h.logger.WarnContext(ctx, "list slate games failed", "season_id", seasonID, "ordinal", ordinal, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := slateGamesDTO{
		Slate: slateToDTO(slate, h.now()),
		Games: make([]gameDTO, 0, len(games)),
	}
	for _, item := range games {
		out.Games = append(out.Games, gameToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
