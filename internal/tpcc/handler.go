package tpcc

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tpcbench/tpcbench/internal/platform/httpx"
)

// Handler exposes one endpoint per transaction profile. Input is decoded
// and validated here, before any statement reaches the engine.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the transaction gateway.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) NewOrder(w http.ResponseWriter, r *http.Request) {
	var req NewOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	data, err := h.service.NewOrder(r.Context(), req)
	h.respond(w, TxNewOrder, data, err)
}

func (h *Handler) Payment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	data, err := h.service.Payment(r.Context(), req)
	h.respond(w, TxPayment, data, err)
}

func (h *Handler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	var req OrderStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	data, err := h.service.OrderStatus(r.Context(), req)
	h.respond(w, TxOrderStatus, data, err)
}

func (h *Handler) Delivery(w http.ResponseWriter, r *http.Request) {
	var req DeliveryRequest
	if !h.decode(w, r, &req) {
		return
	}
	data, err := h.service.Delivery(r.Context(), req)
	h.respond(w, TxDelivery, data, err)
}

func (h *Handler) StockLevel(w http.ResponseWriter, r *http.Request) {
	var req StockLevelRequest
	if !h.decode(w, r, &req) {
		return
	}
	data, err := h.service.StockLevel(r.Context(), req)
	h.respond(w, TxStockLevel, data, err)
}

// MaxOrderIDRequest identifies one district.
type MaxOrderIDRequest struct {
	WarehouseID int `json:"w_id" validate:"required,gt=0"`
	DistrictID  int `json:"d_id" validate:"required,gt=0"`
}

func (h *Handler) MaxOrderID(w http.ResponseWriter, r *http.Request) {
	var req MaxOrderIDRequest
	if !h.decode(w, r, &req) {
		return
	}
	max, err := h.service.MaxOrderID(r.Context(), req.WarehouseID, req.DistrictID)
	if err != nil {
		h.logger.Error("max order id", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, Fail(err))
		return
	}
	httpx.JSON(w, http.StatusOK, OK(map[string]int{"max_order_id": max}))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.JSON(w, http.StatusBadRequest, Fail(fmt.Errorf("%w: %v", ErrValidation, err)))
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.JSON(w, http.StatusBadRequest, Fail(fmt.Errorf("%w: %v", ErrValidation, err)))
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, txType TxType, data any, err error) {
	if err == nil {
		httpx.JSON(w, http.StatusOK, OK(data))
		return
	}

	status := http.StatusInternalServerError
	switch FailureClass(err) {
	case ClassNotFound:
		status = http.StatusNotFound
	case ClassConflict:
		status = http.StatusConflict
	case ClassValidation:
		status = http.StatusBadRequest
	default:
		h.logger.Error("transaction failed",
			slog.String("type", string(txType)), slog.Any("error", err))
	}
	httpx.JSON(w, status, Fail(err))
}
