package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stockroom-app/stockroom/internal/auth"
	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// Handler wires HTTP endpoints for the stock ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authMW    auth.Middleware
	validator *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service, authMW auth.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		authMW:    authMW,
		validator: validator.New(),
	}
}

// MountRoutes registers ledger routes under /products.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/stock-ledger", h.handleHistory)
	r.Group(func(r chi.Router) {
		r.Use(h.authMW.RequireActor)
		r.Post("/{id}/stock-adjustments", h.handleAdjust)
	})
}

type adjustStockRequest struct {
	Delta      int64  `json:"delta"`
	ChangeType string `json:"change_type" validate:"required"`
	Note       string `json:"note" validate:"omitempty,max=500"`
	OrderRef   string `json:"order_ref"`
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid product id")
		return
	}

	var req adjustStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.OrderRef != "" {
		if _, err := uuid.Parse(req.OrderRef); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "order_ref must be a UUID")
			return
		}
	}

	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
		return
	}

	result, err := h.service.ApplyDelta(r.Context(), AdjustmentInput{
		ProductID: productID,
		Delta:     req.Delta,
		Type:      ChangeType(req.ChangeType),
		ActorID:   actor.ID,
		Note:      req.Note,
		OrderRef:  req.OrderRef,
	})
	if err != nil {
		h.respondAdjustError(w, r, err)
		return
	}

	h.logger.Info("stock adjusted",
		slog.Int64("product_id", productID),
		slog.Int64("delta", req.Delta),
		slog.String("change_type", req.ChangeType),
		slog.Int64("actor_id", actor.ID))
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) respondAdjustError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", "adjustment would drive quantity negative")
	case errors.Is(err, ErrInvalidDelta), errors.Is(err, ErrInvalidChangeType):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", "concurrent update, retry the adjustment")
	default:
		h.logger.Error("apply delta failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid product id")
		return
	}

	filter := HistoryFilter{}
	q := r.URL.Query()
	if sinceStr := q.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "since must be RFC3339")
			return
		}
		filter.Since = since
	}
	if changeType := q.Get("change_type"); changeType != "" {
		ct := ChangeType(changeType)
		if !ct.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown change type")
			return
		}
		filter.Type = ct
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("per_page"))

	page, err := h.service.History(r.Context(), productID, filter)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
			return
		}
		h.logger.Error("ledger history failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}
