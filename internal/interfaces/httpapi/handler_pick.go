package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/pickem/internal/usecase"
)

type submitPickRequest struct {
	TeamID string `json:"team_id" validate:"required,max=32"`
}

func (h *Handler) ListPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPicks")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}
	item, ok := h.requireMemberPool(ctx, w, r, principal)
	if !ok {
		return
	}
	entry, ok := h.requireEntry(ctx, w, r, item)
	if !ok {
		return
	}

	picks, err := h.pickService.ListPicks(ctx, usecase.ListPicksInput{
		PoolID:    item.ID,
		EntryID:   entry.ID,
		AccountID: principal.AccountID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list picks failed", "pool_id", item.ID, "entry_id", entry.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]pickDTO, 0, len(picks))
	for _, p := range picks {
		out = append(out, pickToDTO(p))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPick")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}
	item, ok := h.requirePool(ctx, w, r)
	if !ok {
		return
	}
	entry, ok := h.requireEntry(ctx, w, r, item)
	if !ok {
		return
	}

	var req submitPickRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	slateID := strings.TrimSpace(r.PathValue("slateID"))
	saved, err := h.pickService.SubmitPick(ctx, usecase.SubmitPickInput{
		PoolID:    item.ID,
		EntryID:   entry.ID,
		AccountID: principal.AccountID,
		SlateID:   slateID,
		TeamID:    req.TeamID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit pick failed", "pool_id", item.ID, "entry_id", entry.ID, "slate_id", slateID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pickToDTO(saved))
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}
	item, ok := h.requireMemberPool(ctx, w, r, principal)
	if !ok {
		return
	}

	standings, err := h.pickService.Standings(ctx, item.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "list standings failed", "pool_id", item.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]standingDTO, 0, len(standings))
	for _, s := range standings {
		out = append(out, standingToDTO(s))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
