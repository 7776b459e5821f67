package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/banking-transfer-saga/internal/api_gateway/service"
	"github.com/banking-transfer-saga/internal/domain/outbox"
	"github.com/banking-transfer-saga/internal/domain/transfer"
)

// TransferHandler handles HTTP requests for transfer operations
type TransferHandler struct {
	transferService service.TransferService
	logger          *slog.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(logger *slog.Logger, transferService service.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
	}
}

// Create accepts a new transfer. The response is the PENDING snapshot;
// validation and execution happen asynchronously in the pipeline, and the
// client polls GetByID for the outcome.
func (h *TransferHandler) Create(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	t, err := h.transferService.CreateTransfer(c.Request.Context(), req.FromAccount, req.ToAccount, req.Amount, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, transfer.ErrInvalidAmount),
			errors.Is(err, transfer.ErrMissingAccount):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create transfer", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapTransferToResponse(t))
}

// GetByID retrieves a transfer snapshot by its transfer ID
func (h *TransferHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	transferID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transfer ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transfer ID")
		return
	}

	t, err := h.transferService.GetTransferByID(c.Request.Context(), transferID)
	if err != nil {
		var notFoundErr transfer.ErrTransferNotFound
		if errors.As(err, &notFoundErr) {
			RespondNotFound(c, "Transfer not found")
			return
		}
		h.logger.Error("Failed to get transfer", "transfer_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapTransferToResponse(t))
}

// GetEvents lists the pipeline events recorded for a transfer
func (h *TransferHandler) GetEvents(c *gin.Context) {
	idParam := c.Param("id")
	transferID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transfer ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transfer ID")
		return
	}

	events, err := h.transferService.GetTransferEvents(c.Request.Context(), transferID)
	if err != nil {
		h.logger.Error("Failed to list transfer events", "transfer_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	response := TransferEventListResponse{
		TransferID: transferID.String(),
		Events:     make([]TransferEventResponse, 0, len(events)),
	}
	for _, evt := range events {
		response.Events = append(response.Events, mapEventToResponse(evt))
	}
	RespondOK(c, response)
}

// mapTransferToResponse maps a transfer entity to a transfer response DTO
func mapTransferToResponse(t *transfer.Transfer) TransferResponse {
	resp := TransferResponse{
		TransferID:    t.TransferID.String(),
		FromAccount:   t.FromAccount,
		ToAccount:     t.ToAccount,
		Amount:        t.Amount.String(),
		Description:   t.Description,
		Status:        string(t.Status),
		FailureReason: t.FailureReason,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
	if t.ProcessedAt != nil {
		resp.ProcessedAt = t.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

func mapEventToResponse(evt *outbox.Event) TransferEventResponse {
	resp := TransferEventResponse{
		EventType:        evt.EventType,
		DestinationTopic: evt.DestinationTopic,
		Processed:        evt.Processed,
		CreatedAt:        evt.CreatedAt.Format(time.RFC3339),
	}
	if evt.ProcessedAt != nil {
		resp.ProcessedAt = evt.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}
