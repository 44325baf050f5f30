package handler

import (
	"errors"
	"net/http"

	"github.com/clearlot-api/internal/application/upload"
	"github.com/clearlot-api/internal/domain"
	"github.com/clearlot-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 10 << 20 // 10 MB

type UploadHandler struct {
	svc upload.Service
}

func NewUploadHandler(svc upload.Service) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// Upload accepts a multipart "file" field. Logos belong to the caller unless an
// administrator names owner_id; shipment photos are keyed by purchase_id.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	kind, err := upload.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large (max 10 MB)")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	var owner string
	switch kind {
	case upload.KindLogo:
		owner = claims.UserID
		if o := r.FormValue("owner_id"); o != "" && o != claims.UserID {
			if claims.Role != domain.RoleAdmin {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			owner = o
		}
	case upload.KindShipment:
		owner = r.FormValue("purchase_id")
		if owner == "" {
			writeError(w, http.StatusBadRequest, "purchase_id required")
			return
		}
	}

	res, err := h.svc.Upload(r.Context(), upload.Input{
		Kind:     kind,
		OwnerID:  owner,
		Filename: header.Filename,
		Reader:   file,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
