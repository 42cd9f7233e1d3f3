package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	service "github.com/minthive/nft-market/internal/services"
	pkgerrors "github.com/minthive/nft-market/pkg/errors"
)

type Handler struct {
	service service.PurchaseService
}

func NewHandler(s service.PurchaseService) *Handler {
	return &Handler{service: s}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/purchase", h.InitiatePurchase).Methods("POST")
	r.HandleFunc("/transactions/{id}", h.GetTransaction).Methods("GET")
	r.HandleFunc("/admin/transactions/{id}/verify", h.VerifyTransaction).Methods("POST")
	r.HandleFunc("/healthz", h.Health).Methods("GET")
}

func (h *Handler) InitiatePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    int32  `json:"user_id"`
		NFTID     int32  `json:"nft_id"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.RequestID == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("request_id is required"))
		return
	}

	tx, link, err := h.service.InitiatePurchase(r.Context(), req.UserID, req.NFTID, req.RequestID)
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrRequestAlreadyProcessed):
			h.writeError(w, http.StatusConflict, err)
		case errors.Is(err, pkgerrors.ErrNFTLocked), errors.Is(err, pkgerrors.ErrNFTUnavailable):
			h.writeError(w, http.StatusConflict, err)
		case errors.Is(err, pkgerrors.ErrNFTNotFound), errors.Is(err, pkgerrors.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, pkgerrors.ErrInvalidInput):
			h.writeError(w, http.StatusBadRequest, err)
		default:
			h.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"transaction_id": tx.ID,
		"status":         tx.Status,
		"amount":         tx.Amount,
		"payment_link":   link,
	})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrTransactionNotFound) {
			h.writeError(w, http.StatusNotFound, err)
		} else {
			h.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

func (h *Handler) VerifyTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	tx, err := h.service.VerifyTransaction(r.Context(), id, req.Reference)
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrTransactionNotFound):
			h.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, pkgerrors.ErrTransactionNotSettleable):
			h.writeError(w, http.StatusConflict, err)
		default:
			h.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func parseID(r *http.Request) (int32, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, errors.New("invalid transaction id")
	}
	return int32(id), nil
}
