package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-reconciler/internal/usecase"
)

const maxJobRequestBytes = 16 << 10

var internalJobDispatchUnsafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

type internalJobSyncRequest struct {
	DispatchID string `json:"dispatch_id" validate:"omitempty,max=128,printascii"`
}

type internalJobSyncResponse struct {
	DispatchID string              `json:"dispatch_id"`
	Result     usecase.CycleResult `json:"result"`
}

func (h *Handler) RunSyncFixturesJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncFixturesJob")
	defer span.End()

	if h.syncRunner == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync runner is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeInternalJobSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	dispatchID := strings.TrimSpace(req.DispatchID)
	if dispatchID == "" {
		dispatchID = buildManualDispatchID("sync-fixtures", time.Now())
	}

	result, err := h.syncRunner.RunCycle(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run sync fixtures job failed",
			"dispatch_id", dispatchID,
			"cycle_id", result.CycleID,
			"upserted", result.Upserted,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "sync fixtures job completed",
		"dispatch_id", dispatchID,
		"cycle_id", result.CycleID,
		"upserted", result.Upserted,
		"rejected", result.Rejected,
	)
	writeSuccess(ctx, w, http.StatusOK, internalJobSyncResponse{
		DispatchID: dispatchID,
		Result:     result,
	})
}

func decodeInternalJobSyncRequest(r *http.Request) (internalJobSyncRequest, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxJobRequestBytes))
	if err != nil {
		return internalJobSyncRequest{}, fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return internalJobSyncRequest{}, nil
	}

	var req internalJobSyncRequest
	decoder := sonic.ConfigDefault.NewDecoder(strings.NewReader(string(raw)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return internalJobSyncRequest{}, nil
		}
		return internalJobSyncRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return req, nil
}

func buildManualDispatchID(jobName string, now time.Time) string {
	jobName = internalJobDispatchUnsafeRegex.ReplaceAllString(strings.TrimSpace(jobName), "-")
	return "manual-" + jobName + "-" + now.UTC().Format("20060102T150405.000000000Z")
}
