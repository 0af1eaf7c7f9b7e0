package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/chiapei/trailgo/internal/helpers"
	"github.com/chiapei/trailgo/internal/models"
	"github.com/chiapei/trailgo/internal/service"
)

type TicketHandler struct {
	svc service.TicketService
}

func NewTicketHandler(svc service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

func generateTicketQRData(ticket *models.Ticket) string {
	secretKey := os.Getenv("JWT_SECRET")
	signature := generateTicketSignature(ticket.ID, ticket.PaymentID, ticket.OwnerID, secretKey)
	return fmt.Sprintf("ticket:%s;activity:%s;signature:%s",
		ticket.ID.String(),
		ticket.ActivityID.String(),
		signature,
	)
}

func generateTicketSignature(ticketID, paymentID, ownerID uuid.UUID, secretKey string) string {
	data := fmt.Sprintf("%s:%s:%s", ticketID.String(), paymentID.String(), ownerID.String())
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func extractTicketIDFromQRData(qrData string) (uuid.UUID, error) {
	parts := strings.Split(qrData, ";")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "ticket:") || !strings.HasPrefix(parts[2], "signature:") {
		return uuid.Nil, fmt.Errorf("invalid QR data format")
	}
	return uuid.Parse(strings.TrimPrefix(parts[0], "ticket:"))
}

func validateTicketQRSignature(ticket *models.Ticket, qrData string) bool {
	parts := strings.Split(qrData, ";")
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "signature:") {
		return false
	}

	secretKey := os.Getenv("JWT_SECRET")
	signature := strings.TrimPrefix(parts[2], "signature:")
	expected := generateTicketSignature(ticket.ID, ticket.PaymentID, ticket.OwnerID, secretKey)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func actorID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	if !ok {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID type.")
		return uuid.Nil, false
	}
	return id, true
}

func (h *TicketHandler) ListMyTickets(c *gin.Context) {
	ownerID, ok := actorID(c)
	if !ok {
		return
	}

	tickets, err := h.svc.ListOwned(c.Request.Context(), ownerID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	organizerID, ok := actorID(c)
	if !ok {
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	ticket, err := h.svc.GetForOrganizer(c.Request.Context(), organizerID, ticketID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) GetTicketQR(c *gin.Context) {
	ownerID, ok := actorID(c)
	if !ok {
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	ticket, err := h.svc.GetOwned(c.Request.Context(), ownerID, ticketID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	if ticket.TicketStatus == models.TicketStatusUsed {
		helpers.RespondWithError(c, http.StatusForbidden, "Ticket already used.")
		return
	}

	qrImage, err := qrcode.Encode(generateTicketQRData(ticket), qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

// ConfirmTicket checks a ticket in by ID, scoped to the organizer's own
// activities.
func (h *TicketHandler) ConfirmTicket(c *gin.Context) {
	organizerID, ok := actorID(c)
	if !ok {
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	ticket, err := h.svc.Confirm(c.Request.Context(), organizerID, ticketID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket confirmed successfully.",
		"ticket": gin.H{
			"id":             ticket.ID,
			"ticket_status":  ticket.TicketStatus,
			"activity_title": ticketActivityTitle(ticket),
		},
	})
}

// ValidateTicket checks a ticket in from scanned QR data, verifying the HMAC
// signature before touching anything.
func (h *TicketHandler) ValidateTicket(c *gin.Context) {
	organizerID, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		QRData string `json:"qr_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	ticketID, err := extractTicketIDFromQRData(req.QRData)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid QR code format.")
		return
	}

	ticket, err := h.svc.GetForOrganizer(c.Request.Context(), organizerID, ticketID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	if !validateTicketQRSignature(ticket, req.QRData) {
		helpers.RespondWithError(c, http.StatusForbidden, "Invalid QR code signature.")
		return
	}

	confirmed, err := h.svc.Confirm(c.Request.Context(), organizerID, ticketID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket validated successfully.",
		"ticket": gin.H{
			"id":             confirmed.ID,
			"ticket_status":  confirmed.TicketStatus,
			"activity_title": ticketActivityTitle(confirmed),
		},
	})
}

func (h *TicketHandler) ReassignTicket(c *gin.Context) {
	buyerID, ok := actorID(c)
	if !ok {
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	if err := h.svc.Reassign(c.Request.Context(), buyerID, ticketID, req.Email); err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket reassigned successfully."})
}

func (h *TicketHandler) UpdateTicketNote(c *gin.Context) {
	ownerID, ok := actorID(c)
	if !ok {
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	var req struct {
		Note string `json:"note" binding:"max=200"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	if err := h.svc.UpdateNote(c.Request.Context(), ownerID, ticketID, req.Note); err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note updated successfully."})
}

func ticketActivityTitle(ticket *models.Ticket) string {
	if ticket.Activity != nil {
		return ticket.Activity.Title
	}
	return ""
}
