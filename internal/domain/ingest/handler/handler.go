// Package handler exposes the statement upload endpoint.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/trackr/internal/domain/common"
	"github.com/FACorreiaa/trackr/internal/domain/ingest/detector"
	"github.com/FACorreiaa/trackr/internal/domain/ingest/normalizer"
	"github.com/FACorreiaa/trackr/internal/domain/ingest/service"
	"github.com/FACorreiaa/trackr/internal/domain/ingest/tabular"
	"github.com/FACorreiaa/trackr/pkg/middleware"
)

// maxUploadBytes caps statement uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// IngestHandler serves the statement upload endpoint.
type IngestHandler struct {
	svc *service.Service
}

// NewIngestHandler constructs a new handler.
func NewIngestHandler(svc *service.Service) *IngestHandler {
	return &IngestHandler{svc: svc}
}

// Routes mounts the ingestion endpoints onto a router.
func (h *IngestHandler) Routes(r chi.Router) {
	r.Post("/upload", h.Upload)
}

// transactionDTO is the wire shape of one previewed transaction. Dates are
// rendered as ISO strings here rather than RFC 3339 timestamps.
type transactionDTO struct {
	Date         string               `json:"date"`
	Amount       decimal.Decimal      `json:"amount"`
	Direction    normalizer.Direction `json:"transaction_type"`
	Description  string               `json:"description"`
	CategoryID   *uuid.UUID           `json:"category,omitempty"`
	CategoryName *string              `json:"category_name,omitempty"`
}

type uploadResponse struct {
	Mapping      detector.Mapping        `json:"column_mapping"`
	Transactions []transactionDTO        `json:"transactions"`
	Rejected     service.RejectionCounts `json:"rejected"`
}

// Upload accepts a multipart statement file, runs the ingestion pipeline,
// and returns the transaction preview. Optional form fields date_column,
// amount_column, and description_column override role detection.
func (h *IngestHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.WriteBadRequest(w, "invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		common.WriteBadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	overrides := detector.Overrides{
		DateColumn:        r.FormValue("date_column"),
		AmountColumn:      r.FormValue("amount_column"),
		DescriptionColumn: r.FormValue("description_column"),
	}

	preview, err := h.svc.Ingest(r.Context(), userID, header.Filename, data, overrides)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	resp := uploadResponse{
		Mapping:      preview.Mapping,
		Transactions: make([]transactionDTO, 0, len(preview.Transactions)),
		Rejected:     preview.Rejected,
	}
	for i := range preview.Transactions {
		tx := &preview.Transactions[i]
		resp.Transactions = append(resp.Transactions, transactionDTO{
			Date:         tx.DateString(),
			Amount:       tx.Amount,
			Direction:    tx.Direction,
			Description:  tx.Description,
			CategoryID:   tx.CategoryID,
			CategoryName: tx.CategoryName,
		})
	}
	common.WriteJSON(w, http.StatusOK, resp)
}

// writeIngestError maps pipeline failures to client errors. Every failure
// mode here stems from the uploaded file, so internals are safe to expose.
func (h *IngestHandler) writeIngestError(w http.ResponseWriter, err error) {
	var noRows *service.NoSurvivingRowsError
	switch {
	case errors.Is(err, tabular.ErrUnsupportedOrEmpty):
		common.WriteBadRequest(w, err.Error())
	case detector.IsDetectionError(err):
		common.WriteBadRequest(w, err.Error())
	case errors.As(err, &noRows):
		common.WriteBadRequest(w, err.Error())
	default:
		common.WriteError(w, err)
	}
}
