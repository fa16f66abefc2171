package httpapi

import (
	"net/http"

	"github.com/riskibarqy/pickem/internal/usecase"
)

type createPoolRequest struct {
	SeasonID      string  `json:"season_id" validate:"omitempty,max=32"`
	Name          string  `json:"name" validate:"required,max=120"`
	Description   string  `json:"description" validate:"max=2000"`
	InviteOnly    *bool   `json:"invite_only"`
	EntryFee      float64 `json:"entry_fee" validate:"gte=0"`
	AgainstSpread bool    `json:"against_spread"`
	DefaultTeamID string  `json:"default_team_id" validate:"max=32"`
	EmailUpdates  bool    `json:"email_updates"`
	ManagerPlays  bool    `json:"manager_plays"`
}

type updatePoolRequest struct {
	Name          string  `json:"name" validate:"required,max=120"`
	Description   string  `json:"description" validate:"max=2000"`
	InviteOnly    bool    `json:"invite_only"`
	EntryFee      float64 `json:"entry_fee" validate:"gte=0"`
	AgainstSpread bool    `json:"against_spread"`
	DefaultTeamID string  `json:"default_team_id" validate:"max=32"`
	EmailUpdates  bool    `json:"email_updates"`
}

type joinPoolRequest struct {
	InviteCode string `json:"invite_code" validate:"max=64"`
}

type updateEntryRequest struct {
	Paid   *bool `json:"paid"`
	Active *bool `json:"active"`
}

func (h *Handler) CreatePool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreatePool")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req createPoolRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.poolService.CreatePool(ctx, usecase.CreatePoolInput{
		ManagerID:     principal.AccountID,
		SeasonID:      req.SeasonID,
		Name:          req.Name,
		Description:   req.Description,
		InviteOnly:    req.InviteOnly,
		EntryFee:      req.EntryFee,
		AgainstSpread: req.AgainstSpread,
		DefaultTeamID: req.DefaultTeamID,
		EmailUpdates:  req.EmailUpdates,
		ManagerPlays:  req.ManagerPlays,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create pool failed", "account_id", principal.AccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, poolToDTO(item))
}

func (h *Handler) ListMyPools(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPools")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	items, err := h.poolService.ListMyPools(ctx, principal.AccountID)
	if err != nil {
		h.logger.WarnContext(ctx, "list my pools failed", "account_id", principal.AccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]poolDTO, 0, len(items))
	for _, item := range items {
		out = append(out, poolToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

// GetPool answers 403 with a preview body for non-members of invite-only pools.
func (h *Handler) GetPool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPool")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}
	item, ok := h.requirePool(ctx, w, r)
	if !ok {
		return
	}

	view, err := h.poolService.ViewPool(ctx, item.ID, principal.AccountID)
	if usecase.IsForbiddenPreview(view, err) {
		writeErrorWithData(ctx, w, err, poolViewToDTO(view))
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "view pool failed", "pool_id", item.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, poolViewToDTO(view))
}

func (h *Handler) UpdatePool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdatePool")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}
	item, ok := h.requireManagedPool(ctx, w, r, principal)
	if !ok {
		return
	}

	var req updatePoolRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.poolService.UpdatePool(ctx, usecase.UpdatePoolInput{
		PoolID:        item.ID,
		AccountID:     principal.AccountID,
		Name:          req.Name,
		Description:   req.Description,
		InviteOnly:    req.InviteOnly,
		EntryFee:      req.EntryFee,
		AgainstSpread: req.AgainstSpread,
		DefaultTeamID: req.DefaultTeamID,
		EmailUpdates:  req.EmailUpdates,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update pool failed", "pool_id", item.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, poolToDTO(updated))
}

func (h *Handler) GetInviteCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetInviteCode")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}
	item, ok := h.requireManagedPool(ctx, w, r, principal)
	if !ok {
		return
	}

	code, err := h.poolService.InviteCode(ctx, item.ID, principal.AccountID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"pool_id": item.ID, "invite_code": code})
}

func (h *Handler) JoinPool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinPool")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}
	item, ok := h.requirePool(ctx, w, r)
	if !ok {
		return
	}

	var req joinPoolRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	entry, created, err := h.poolService.JoinPool(ctx, usecase.JoinPoolInput{
		PoolID:     item.ID,
		AccountID:  principal.AccountID,
		InviteCode: req.InviteCode,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "join pool failed", "pool_id", item.ID, "account_id", principal.AccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeSuccess(ctx, w, status, joinResultDTO{Entry: entryToDTO(entry, ""), Created: created})
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEntries")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}
	item, ok := h.requireMemberPool(ctx, w, r, principal)
	if !ok {
		return
	}

	entries, err := h.poolService.ListEntries(ctx, item.ID, principal.AccountID)
	if err != nil {
		h.logger.WarnContext(ctx, "list pool entries failed", "pool_id", item.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToDTO(e.Entry, e.DisplayName))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateEntry")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}
	item, ok := h.requireManagedPool(ctx, w, r, principal)
	if !ok {
		return
	}
	entry, ok := h.requireEntry(ctx, w, r, item)
	if !ok {
		return
	}

	var req updateEntryRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.poolService.UpdateEntryStatus(ctx, usecase.UpdateEntryStatusInput{
		PoolID:    item.ID,
		EntryID:   entry.ID,
		AccountID: principal.AccountID,
		Paid:      req.Paid,
		Active:    req.Active,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update entry failed", "pool_id", item.ID, "entry_id", entry.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryToDTO(updated, ""))
}
