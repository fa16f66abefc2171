package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/pickem/internal/domain/account"
	"github.com/riskibarqy/pickem/internal/domain/pool"
	"github.com/riskibarqy/pickem/internal/usecase"
)

// Guards resolve the entities named in a route before the handler body runs.
// On failure they write the error response and return ok=false.

func (h *Handler) requirePrincipal(ctx context.Context, w http.ResponseWriter) (account.Principal, bool) {
	principal, ok := principalFromContext(ctx)
	if !ok || strings.TrimSpace(principal.AccountID) == "" {
		writeError(ctx, w, fmt.Errorf("%w: missing auth principal", usecase.ErrUnauthorized))
		return account.Principal{}, false
	}
	return principal, true
}

func (h *Handler) requirePool(ctx context.Context, w http.ResponseWriter, r *http.Request) (pool.Pool, bool) {
	item, err := h.poolService.GetPool(ctx, r.PathValue("poolID"))
	if err != nil {
		writeError(ctx, w, err)
		return pool.Pool{}, false
	}
	return item, true
}

// requireMemberPool admits the pool manager and accounts holding an entry.
func (h *Handler) requireMemberPool(ctx context.Context, w http.ResponseWriter, r *http.Request, principal account.Principal) (pool.Pool, bool) {
	item, ok := h.requirePool(ctx, w, r)
	if !ok {
		return pool.Pool{}, false
	}
	if item.IsManager(principal.AccountID) {
		return item, true
	}

	member, err := h.poolService.IsMember(ctx, item.ID, principal.AccountID)
	if err != nil {
		h.logger.WarnContext(ctx, "check pool membership failed", "pool_id", item.ID, "error", err)
		writeError(ctx, w, err)
		return pool.Pool{}, false
	}
	if !member {
		writeError(ctx, w, fmt.Errorf("%w: account is not a member of pool=%s", usecase.ErrForbidden, item.ID))
		return pool.Pool{}, false
	}
	return item, true
}

func (h *Handler) requireManagedPool(ctx context.Context, w http.ResponseWriter, r *http.Request, principal account.Principal) (pool.Pool, bool) {
	item, ok := h.requirePool(ctx, w, r)
	if !ok {
		return pool.Pool{}, false
	}
	if !item.IsManager(principal.AccountID) {
		writeError(ctx, w, fmt.Errorf("%w: only the pool manager can do this", usecase.ErrForbidden))
		return pool.Pool{}, false
	}
	return item, true
}

func (h *Handler) requireEntry(ctx context.Context, w http.ResponseWriter, r *http.Request, item pool.Pool) (pool.Entry, bool) {
	_, entry, err := h.poolService.ResolveEntry(ctx, item.ID, r.PathValue("entryID"))
	if err != nil {
		writeError(ctx, w, err)
		return pool.Entry{}, false
	}
	return entry, true
}

func requireOrdinal(ctx context.Context, w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.PathValue("ordinal"))
	ordinal, err := strconv.Atoi(raw)
	if err != nil || ordinal <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: slate ordinal must be a positive integer, got %q", usecase.ErrInvalidInput, raw))
		return 0, false
	}
	return ordinal, true
}
