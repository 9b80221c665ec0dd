// Package handler exposes the marketplace ledger over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nftmarket/internal/marketplace/models"
	"nftmarket/internal/marketplace/service"
	dErrors "nftmarket/pkg/domain-errors"
	"nftmarket/pkg/platform/httputil"
	"nftmarket/pkg/requestcontext"
)

// Service is the ledger surface the handler drives.
type Service interface {
	List(ctx context.Context, req service.ListRequest) (*models.Listing, error)
	CancelListing(ctx context.Context, caller models.Address, collection models.Collection, itemID models.ItemID) error
	UpdateListing(ctx context.Context, req service.UpdateListingRequest) (*models.Listing, error)
	BuyItem(ctx context.Context, req service.BuyRequest) (*service.Receipt, error)
	WithdrawProceeds(ctx context.Context, caller models.Address) (models.Amount, error)
	GetListing(ctx context.Context, collection models.Collection, itemID models.ItemID) (models.Listing, error)
	GetProceeds(ctx context.Context, account models.Address) (models.Amount, error)
}

// Handler wires marketplace endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read routes on r. Mutating routes go on the router
// returned by the mutating callback so callers can add idempotency and rate
// limiting to them alone.
func (h *Handler) Register(r chi.Router, mutating func(chi.Router) chi.Router) {
	r.Get("/v1/listings/{collection}/{itemID}", h.HandleGetListing)
	r.Get("/v1/proceeds/{account}", h.HandleGetProceeds)

	w := r
	if mutating != nil {
		w = mutating(r)
	}
	w.Post("/v1/listings", h.HandleList)
	w.Put("/v1/listings/{collection}/{itemID}", h.HandleUpdateListing)
	w.Delete("/v1/listings/{collection}/{itemID}", h.HandleCancelListing)
	w.Post("/v1/listings/{collection}/{itemID}/purchase", h.HandleBuyItem)
	w.Post("/v1/proceeds/withdraw", h.HandleWithdrawProceeds)
}

// HandleList handles POST /v1/listings.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ListRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	listing, err := h.service.List(ctx, service.ListRequest{
		Caller:     caller,
		Collection: req.key.Collection,
		ItemID:     req.key.ItemID,
		Price:      *req.Price,
	})
	if err != nil {
		h.writeError(w, ctx, "list", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toListingResponse(*listing))
}

// HandleUpdateListing handles PUT /v1/listings/{collection}/{itemID}.
func (h *Handler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	key, ok := h.itemKey(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[PriceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	listing, err := h.service.UpdateListing(ctx, service.UpdateListingRequest{
		Caller:     caller,
		Collection: key.Collection,
		ItemID:     key.ItemID,
		NewPrice:   *req.Price,
	})
	if err != nil {
		h.writeError(w, ctx, "update_listing", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListingResponse(*listing))
}

// HandleCancelListing handles DELETE /v1/listings/{collection}/{itemID}.
func (h *Handler) HandleCancelListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	key, ok := h.itemKey(w, r)
	if !ok {
		return
	}

	if err := h.service.CancelListing(ctx, caller, key.Collection, key.ItemID); err != nil {
		h.writeError(w, ctx, "cancel_listing", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBuyItem handles POST /v1/listings/{collection}/{itemID}/purchase.
func (h *Handler) HandleBuyItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	key, ok := h.itemKey(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[PurchaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	receipt, err := h.service.BuyItem(ctx, service.BuyRequest{
		Caller:     caller,
		Collection: key.Collection,
		ItemID:     key.ItemID,
		Value:      *req.Value,
	})
	if err != nil {
		h.writeError(w, ctx, "buy_item", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

// HandleWithdrawProceeds handles POST /v1/proceeds/withdraw.
func (h *Handler) HandleWithdrawProceeds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	amount, err := h.service.WithdrawProceeds(ctx, caller)
	if err != nil {
		h.writeError(w, ctx, "withdraw_proceeds", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WithdrawResponse{Amount: amount})
}

// HandleGetListing handles GET /v1/listings/{collection}/{itemID}.
func (h *Handler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := h.itemKey(w, r)
	if !ok {
		return
	}

	listing, err := h.service.GetListing(ctx, key.Collection, key.ItemID)
	if err != nil {
		h.writeError(w, ctx, "get_listing", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListingResponse(listing))
}

// HandleGetProceeds handles GET /v1/proceeds/{account}.
func (h *Handler) HandleGetProceeds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account := models.NormalizeAddress(chi.URLParam(r, "account"))

	amount, err := h.service.GetProceeds(ctx, account)
	if err != nil {
		h.writeError(w, ctx, "get_proceeds", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProceedsResponse{Account: account, Amount: amount})
}

func (h *Handler) requireCaller(w http.ResponseWriter, ctx context.Context) (models.Address, bool) {
	caller := models.NormalizeAddress(requestcontext.Caller(ctx))
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return caller, true
}

func (h *Handler) itemKey(w http.ResponseWriter, r *http.Request) (models.ItemKey, bool) {
	key, err := parseItemKey(chi.URLParam(r, "collection"), chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return models.ItemKey{}, false
	}
	return key, true
}

// writeError renders ledger conditions with their own status and code and
// everything else through the shared coded-error mapping.
func (h *Handler) writeError(w http.ResponseWriter, ctx context.Context, op string, err error) {
	var condErr *models.Error
	if errors.As(err, &condErr) {
		h.logger.InfoContext(ctx, "marketplace request rejected",
			"operation", op,
			"condition", condErr.Condition,
			"request_id", requestcontext.RequestID(ctx),
		)
		description := condErr.Error()
		if condErr.Condition == models.CondTransferFailed {
			// Capability failures can carry upstream detail; keep it in logs.
			description = "transfer failed"
		}
		httputil.WriteErrorCode(w, StatusForCondition(condErr.Condition), string(condErr.Condition), description)
		return
	}

	level := slog.LevelWarn
	if httputil.StatusForCode(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "marketplace request failed",
		"operation", op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}

// StatusForCondition maps a ledger condition to its HTTP status.
func StatusForCondition(c models.Condition) int {
	switch c {
	case models.CondAlreadyListed, models.CondNoProceeds, models.CondReentrant:
		return http.StatusConflict
	case models.CondNotListed:
		return http.StatusNotFound
	case models.CondNotOwner:
		return http.StatusForbidden
	case models.CondPriceMustBeAboveZero:
		return http.StatusBadRequest
	case models.CondNotApprovedForMarketplace:
		return http.StatusPreconditionFailed
	case models.CondPriceNotMet:
		return http.StatusPaymentRequired
	case models.CondTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
