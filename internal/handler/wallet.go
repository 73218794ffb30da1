package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/najiyasheri/pawsome/internal/domain/wallet"
)

type walletResponse struct {
	Balance float64 `json:"balance"`
}

type walletTxResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Direction    string    `json:"direction"`
	Amount       float64   `json:"amount"`
	BalanceAfter float64   `json:"balanceAfter"`
	OrderID      string    `json:"orderId,omitempty"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GetWallet returns the wallet balance.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wlt, err := h.wallets.Balance(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Balance: wlt.Balance.InexactFloat64()})
}

// ListWalletTransactions returns a page of the ledger, newest first.
func (h *Handler) ListWalletTransactions(w http.ResponseWriter, r *http.Request) {
	page, perPage := queryInt(r, "page"), queryInt(r, "perPage")
	txns, total, err := h.wallets.Transactions(r.Context(), currentUser(r.Context()).ID, page, perPage)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]walletTxResponse, len(txns))
	for i, t := range txns {
		out[i] = walletTxResponse{
			ID:           t.ID,
			Type:         string(t.Type),
			Direction:    string(t.Direction),
			Amount:       t.Amount.InexactFloat64(),
			BalanceAfter: t.BalanceAfter.InexactFloat64(),
			OrderID:      t.OrderID,
			Description:  t.Description,
			CreatedAt:    t.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, struct {
		Transactions []walletTxResponse `json:"transactions"`
		pageInfo
	}{out, pageInfo{Page: page, PerPage: perPage, Total: total}})
}

type topupRequest struct {
	Amount float64 `json:"amount"`
}

// CreateTopup opens a gateway payment intent for adding money to the wallet.
func (h *Handler) CreateTopup(w http.ResponseWriter, r *http.Request) {
	var req topupRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	amount := decimal.NewFromFloat(req.Amount).Round(2)
	if !amount.IsPositive() {
		writeError(w, r, wallet.ErrInvalidAmount)
		return
	}

	intentID, err := h.wallets.CreateTopup(r.Context(), currentUser(r.Context()).ID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"intentId": intentID})
}

// VerifyTopup completes a top-up after the gateway capture.
func (h *Handler) VerifyTopup(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	wlt, err := h.wallets.VerifyTopup(r.Context(), currentUser(r.Context()).ID,
		req.IntentID, req.PaymentID, req.Signature)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Balance: wlt.Balance.InexactFloat64()})
}
