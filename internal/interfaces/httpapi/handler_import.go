package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/riskibarqy/pickem/internal/usecase"
)

type importTeamsRequest struct {
	Records []usecase.TeamRecord `json:"records" validate:"required"`
}

type importScoresRequest struct {
	Records []usecase.ScoreRecord `json:"records" validate:"required"`
}

func (h *Handler) ImportTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportTeams")
	defer span.End()

	var req importTeamsRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.importService.ImportTeams(ctx, req.Records)
	if err != nil {
		h.logger.ErrorContext(ctx, "import teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, importReportToDTO(report))
}

// ImportSchedule accepts the raw schedule CSV as the request body.
func (h *Handler) ImportSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportSchedule")
	defer span.End()

	if h.schedule == nil {
		writeError(ctx, w, fmt.Errorf("%w: schedule parser is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	records, rowErrors, err := h.schedule.Parse(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid schedule file: %v", usecase.ErrInvalidInput, err))
		return
	}

	report, err := h.importService.ImportSchedule(ctx, records)
	if err != nil {
		h.logger.ErrorContext(ctx, "import schedule failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, importReportToDTO(usecase.WithDecodeErrors(report, rowErrors)))
}

// ImportOdds pulls the odds feed and applies the spreads.
func (h *Handler) ImportOdds(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportOdds")
	defer span.End()

	if h.odds == nil {
		writeError(ctx, w, fmt.Errorf("%w: odds feed is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	records, rowErrors, err := h.odds.FetchOdds(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "fetch odds failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	report, err := h.importService.ImportOdds(ctx, records)
	if err != nil {
		h.logger.ErrorContext(ctx, "import odds failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, importReportToDTO(usecase.WithDecodeErrors(report, rowErrors)))
}

func (h *Handler) ImportScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportScores")
	defer span.End()

	var req importScoresRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.importService.ImportScores(ctx, req.Records)
	if err != nil {
		h.logger.ErrorContext(ctx, "import scores failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, importReportToDTO(report))
}

func (h *Handler) EvaluateGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EvaluateGame")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	report, err := h.pickService.EvaluateGame(ctx, gameID)
	if err != nil {
		h.logger.WarnContext(ctx, "evaluate game failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, evaluationReportToDTO(report))
}
