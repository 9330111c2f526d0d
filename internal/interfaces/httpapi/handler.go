package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
	"github.com/riskibarqy/fixture-reconciler/internal/usecase"
)

// CycleRunner triggers one sync cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (usecase.CycleResult, error)
}

type Handler struct {
	fixtureService *usecase.FixtureService
	syncRunner     CycleRunner
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(fixtureService *usecase.FixtureService, syncRunner CycleRunner, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		fixtureService: fixtureService,
		syncRunner:     syncRunner,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
