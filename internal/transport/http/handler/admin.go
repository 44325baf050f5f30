package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/clearlot-api/internal/application/invoice"
	"github.com/clearlot-api/internal/application/marketplace"
	"github.com/go-chi/chi/v5"
)

// StatusRequest is the body of every admin status change.
type StatusRequest struct {
	Status string `json:"status" validate:"required,max=40"`
}

// PriceRequest reprices an offer.
type PriceRequest struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

// AccountStatusRequest changes an account and tells the user. Verification
// selects the verification_status notification instead of account_status.
type AccountStatusRequest struct {
	Status       string `json:"status" validate:"required,oneof=pending verified rejected active blocked"`
	Verification bool   `json:"verification"`
}

// AnnounceEnvelope reports how many users an announcement reached.
type AnnounceEnvelope struct {
	Delivered int `json:"delivered"`
}

// AdminHandler serves the back-office endpoints. Routes are mounted behind the
// admin role gate.
type AdminHandler struct {
	market   marketplace.Service
	invoices invoice.Service
}

func NewAdminHandler(market marketplace.Service, invoices invoice.Service) *AdminHandler {
	return &AdminHandler{market: market, invoices: invoices}
}

func (h *AdminHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	var limit int32 = 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = int32(n)
	}
	page, err := h.market.ListPurchases(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Invoice streams the rendered invoice, or stores it and returns its URL when
// archive=true.
func (h *AdminHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	format, err := invoice.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		httpError(w, err)
		return
	}
	purchaseID := chi.URLParam(r, "id")

	if r.URL.Query().Get("archive") == "true" {
		url, err := h.invoices.Archive(r.Context(), purchaseID, format)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, URLEnvelope{URL: url})
		return
	}

	f, err := h.invoices.Generate(r.Context(), purchaseID, format)
	if err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}

func (h *AdminHandler) Announce(w http.ResponseWriter, r *http.Request) {
	var in marketplace.Announcement
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.market.Announce(r.Context(), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, AnnounceEnvelope{Delivered: n})
}

func (h *AdminHandler) UpdatePurchaseStatus(w http.ResponseWriter, r *http.Request) {
	var in StatusRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.market.UpdatePurchaseStatus(r.Context(), chi.URLParam(r, "id"), in.Status); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "purchase status updated"})
}

// NotifyPurchase re-sends the purchase notifications to buyer and seller.
func (h *AdminHandler) NotifyPurchase(w http.ResponseWriter, r *http.Request) {
	if err := h.market.NotifyPurchase(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "notifications sent"})
}

func (h *AdminHandler) UpdateOfferStatus(w http.ResponseWriter, r *http.Request) {
	var in StatusRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.market.UpdateOfferStatus(r.Context(), chi.URLParam(r, "id"), in.Status); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "offer status updated"})
}

func (h *AdminHandler) UpdateOfferPrice(w http.ResponseWriter, r *http.Request) {
	var in PriceRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.market.UpdateOfferPrice(r.Context(), chi.URLParam(r, "id"), in.Price); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "offer price updated"})
}

func (h *AdminHandler) UpdateAccountStatus(w http.ResponseWriter, r *http.Request) {
	var in AccountStatusRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.market.UpdateAccountStatus(r.Context(), chi.URLParam(r, "id"), in.Status, in.Verification); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "account status updated"})
}
