package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/pickem/internal/platform/logging"
	"github.com/riskibarqy/pickem/internal/usecase"
)

const maxRequestBody = 8 << 20

// ScheduleParser turns an uploaded schedule file into import records.
type ScheduleParser interface {
	Parse(r io.Reader) ([]usecase.ScheduleRecord, []usecase.RecordError, error)
}

// OddsSource fetches the current odds feed.
type OddsSource interface {
	FetchOdds(ctx context.Context) ([]usecase.OddsRecord, []usecase.RecordError, error)
}

type Services struct {
	Accounts *usecase.AccountService
	Teams    *usecase.TeamService
	Seasons  *usecase.SeasonService
	Pools    *usecase.PoolService
	Picks    *usecase.PickService
	Imports  *usecase.ImportService
	Schedule ScheduleParser
	Odds     OddsSource
}

type Handler struct {
	accountService *usecase.AccountService
	teamService    *usecase.TeamService
	seasonService  *usecase.SeasonService
	poolService    *usecase.PoolService
	pickService    *usecase.PickService
	importService  *usecase.ImportService
	schedule       ScheduleParser
	odds           OddsSource
	secureCookies  bool
	logger         *logging.Logger
	validator      *validator.Validate
	now            func() time.Time
}

func NewHandler(services Services, secureCookies bool, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		accountService: services.Accounts,
		teamService:    services.Teams,
		seasonService:  services.Seasons,
		poolService:    services.Pools,
		pickService:    services.Picks,
		importService:  services.Imports,
		schedule:       services.Schedule,
		odds:           services.Odds,
		secureCookies:  secureCookies,
		logger:         logger,
		validator:      validator.New(),
		now:            time.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest reads a JSON body into target and validates it.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, target)
}
