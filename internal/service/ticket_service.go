package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chiapei/trailgo/internal/helpers"
	"github.com/chiapei/trailgo/internal/models"
	"github.com/chiapei/trailgo/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketService interface {
	ListOwned(ctx context.Context, ownerID uuid.UUID) ([]models.Ticket, error)
	GetForOrganizer(ctx context.Context, organizerID, ticketID uuid.UUID) (*models.Ticket, error)
	Confirm(ctx context.Context, organizerID, ticketID uuid.UUID) (*models.Ticket, error)
	Reassign(ctx context.Context, actorID, ticketID uuid.UUID, newOwnerEmail string) error
	UpdateNote(ctx context.Context, ownerID, ticketID uuid.UUID, note string) error
	GetOwned(ctx context.Context, ownerID, ticketID uuid.UUID) (*models.Ticket, error)
}

type ticketService struct {
	tickets  repository.TicketRepository
	payments repository.PaymentRepository
	users    repository.UserRepository
	now      func() time.Time
}

func NewTicketService(
	tickets repository.TicketRepository,
	payments repository.PaymentRepository,
	users repository.UserRepository,
) TicketService {
	return &ticketService{
		tickets:  tickets,
		payments: payments,
		users:    users,
		now:      time.Now,
	}
}

func (s *ticketService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]models.Ticket, error) {
	return s.tickets.ListByOwner(ctx, ownerID)
}

func (s *ticketService) GetOwned(ctx context.Context, ownerID, ticketID uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundTicket, "Ticket not found.")
		}
		return nil, err
	}
	if ticket.OwnerID != ownerID {
		return nil, helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundTicket, "Ticket not found.")
	}
	return ticket, nil
}

func (s *ticketService) GetForOrganizer(ctx context.Context, organizerID, ticketID uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.tickets.FindByIDForOrganizer(ctx, ticketID, organizerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundTicket, "Ticket not found.")
		}
		return nil, err
	}
	return ticket, nil
}

// Confirm checks a ticket in at the venue. The conditional update in MarkUsed
// means a ticket presented twice fails the second time even under races.
func (s *ticketService) Confirm(ctx context.Context, organizerID, ticketID uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.GetForOrganizer(ctx, organizerID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.TicketStatus == models.TicketStatusUsed {
		return nil, helpers.NewAppError(http.StatusBadRequest, helpers.CodeTicketUsed, "Ticket has already been used.")
	}

	used, err := s.tickets.MarkUsed(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	if !used {
		return nil, helpers.NewAppError(http.StatusBadRequest, helpers.CodeTicketUsed, "Ticket has already been used.")
	}

	ticket.TicketStatus = models.TicketStatusUsed
	return ticket, nil
}

// Reassign transfers an unused ticket to another registered user. Only the
// original buyer may do this, even after a previous reassignment.
func (s *ticketService) Reassign(ctx context.Context, actorID, ticketID uuid.UUID, newOwnerEmail string) error {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundTicket, "Ticket not found.")
		}
		return err
	}

	payment, err := s.payments.FindByID(ctx, ticket.PaymentID)
	if err != nil {
		return err
	}
	if payment.BuyerID != actorID {
		return helpers.NewAppError(http.StatusForbidden, helpers.CodeForbidden, "Only the original buyer can reassign this ticket.")
	}
	if ticket.TicketStatus == models.TicketStatusUsed {
		return helpers.NewAppError(http.StatusBadRequest, helpers.CodeTicketUsed, "Used tickets cannot be reassigned.")
	}

	newOwner, err := s.users.FindByEmail(ctx, newOwnerEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundUser, "Recipient not found.")
		}
		return err
	}

	return s.tickets.Reassign(ctx, ticket.ID, newOwner.ID, s.now())
}

func (s *ticketService) UpdateNote(ctx context.Context, ownerID, ticketID uuid.UUID, note string) error {
	ticket, err := s.GetOwned(ctx, ownerID, ticketID)
	if err != nil {
		return err
	}
	return s.tickets.UpdateNote(ctx, ticket.ID, note)
}
