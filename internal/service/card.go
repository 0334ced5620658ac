package service

import (
	"fmt"
	"time"

	"github.com/openkanban/kanband/internal/domain"
	"github.com/openkanban/kanband/internal/errors"
	"github.com/openkanban/kanband/internal/logger"
	"github.com/openkanban/kanband/internal/utils"
)

// to mock service in tests
type CardService interface {
	Cards(boardId domain.BoardId, actor domain.User) ([]domain.Card, error)
	Add(boardId domain.BoardId, card domain.Card, actor domain.User) (domain.Card, error)
	Rename(cardId domain.CardId, text domain.CardText, actor domain.User) (domain.Card, error)
	Update(cardId domain.CardId, update CardUpdate, actor domain.User) (domain.Card, error)
	Move(cardId domain.CardId, move CardMove, actor domain.User) error
	Delete(cardId domain.CardId, actor domain.User) error
	Complete(cardId domain.CardId, actor domain.User) (domain.Card, error)
	SendReminder(cardId domain.CardId, actor domain.User) error
}

// CardUpdate carries partial updates; nil fields are left untouched.
type CardUpdate struct {
	Text              *string
	Description       *string
	AssignedTo        *string
	DueDate           *time.Time
	Recurrence        *domain.Recurrence
	RecurrenceEndDate *time.Time
}

type CardMove struct {
	SourceListId      string
	DestinationListId string
	SourceIndex       int
	DestinationIndex  int
}

type Cards struct {
	storage CardStorage
	boards  BoardGetter
	users   UserLookup
	email   EmailSender
}

type CardStorage interface {
	Card(id domain.CardId) (domain.Card, error)
	// CardsByBoard returns all cards ordered by (list_id, position).
	CardsByBoard(boardId domain.BoardId) ([]domain.Card, error)
	// CardsInList returns a single list's cards ordered by position.
	CardsInList(boardId domain.BoardId, listId string) ([]domain.Card, error)
	// NextPosition is max(position)+1 within the list, 0 when empty.
	NextPosition(boardId domain.BoardId, listId string) (int, error)
	SaveCard(card domain.Card) (domain.CardId, error)
	UpdateCard(card domain.Card) error
	SetPosition(id domain.CardId, position int) error
	SetListAndPosition(id domain.CardId, listId string, position int) error
	MarkReminderSent(id domain.CardId, at time.Time) error
	DeleteCard(id domain.CardId) error
}

type BoardGetter interface {
	Board(id domain.BoardId) (domain.Board, error)
}

func NewCards(storage CardStorage, boards BoardGetter, users UserLookup, email EmailSender) *Cards {
	return &Cards{storage, boards, users, email}
}

// accessibleBoard loads a board and gates it behind the shared-access rule.
func (c *Cards) accessibleBoard(boardId domain.BoardId, actor domain.User) (domain.Board, error) {
	board, err := c.boards.Board(boardId)
	if err != nil {
		return domain.Board{}, err
	}
	if !board.CanAccess(actor.Id) {
		return domain.Board{}, errors.Forbidden("Access denied")
	}
	return board, nil
}

// accessibleCard loads a card plus its board and gates both.
func (c *Cards) accessibleCard(cardId domain.CardId, actor domain.User) (domain.Card, domain.Board, error) {
	card, err := c.storage.Card(cardId)
	if err != nil {
		return domain.Card{}, domain.Board{}, err
	}
	board, err := c.accessibleBoard(card.BoardId, actor)
	if err != nil {
		return domain.Card{}, domain.Board{}, err
	}
	return card, board, nil
}

func (c *Cards) Cards(boardId domain.BoardId, actor domain.User) ([]domain.Card, error) {
	if _, err := c.accessibleBoard(boardId, actor); err != nil {
		return nil, err
	}
	return c.storage.CardsByBoard(boardId)
}

// Add appends a card at the end of its list. When the card is assigned to
// "@username", the assignee is notified by mail without blocking the request.
func (c *Cards) Add(boardId domain.BoardId, card domain.Card, actor domain.User) (domain.Card, error) {
	if _, err := c.accessibleBoard(boardId, actor); err != nil {
		return domain.Card{}, err
	}

	card.Text = utils.SanitizeText(card.Text)
	card.Description = utils.SanitizeText(card.Description)
	if card.Text == "" {
		return domain.Card{}, errors.BadRequest("Card text is required")
	}
	if card.ListId == "" {
		card.ListId = domain.ListTodo
	}
	if !domain.ValidListId(card.ListId) {
		return domain.Card{}, errors.BadRequest("Unknown list: " + card.ListId)
	}
	if card.Recurrence == "" {
		card.Recurrence = domain.RecurrenceNone
	}
	if !domain.ValidRecurrence(card.Recurrence) {
		return domain.Card{}, errors.BadRequest("Unknown recurrence: " + string(card.Recurrence))
	}
	if card.Recurrence != domain.RecurrenceNone && card.DueDate == nil {
		return domain.Card{}, errors.BadRequest("Recurring card requires a due date")
	}

	position, err := c.storage.NextPosition(boardId, card.ListId)
	if err != nil {
		return domain.Card{}, err
	}

	card.BoardId = boardId
	card.Position = position
	card.AssignedBy = "@" + actor.Username
	card.ReminderSent = false
	card.LastReminderSent = nil
	card.CompletedAt = nil
	card.CompletedBy = ""

	id, err := c.storage.SaveCard(card)
	if err != nil {
		return domain.Card{}, err
	}
	card.Id = id

	// Assignment notice is fire-and-forget: delivery failure is logged,
	// never surfaced to the creating request.
	if assignee := card.Assignee(); assignee != "" {
		go c.notifyAssignment(card, actor.Username, assignee)
	}

	return card, nil
}

func (c *Cards) notifyAssignment(card domain.Card, assigner, assignee domain.Username) {
	user, err := c.users.UserByUsername(assignee)
	if err != nil || user.Email == "" {
		logger.Log.Warn("assignee not notified", "card_id", card.Id, "assignee", assignee, "error", err)
		return
	}
	description := card.Description
	if description == "" {
		description = "No description"
	}
	body := fmt.Sprintf("Hi, you have been assigned a task by @%s.\n\nTask: %s\nDescription: %s",
		assigner, card.Text, description)
	if err := c.email.Send(user.Email, "Task Assigned: "+card.Text, body); err != nil {
		logger.Log.Error("assignment mail failed", "card_id", card.Id, "assignee", assignee, "error", err)
	}
}

func (c *Cards) Rename(cardId domain.CardId, text domain.CardText, actor domain.User) (domain.Card, error) {
	card, _, err := c.accessibleCard(cardId, actor)
	if err != nil {
		return domain.Card{}, err
	}
	text = utils.SanitizeText(text)
	if text == "" {
		return domain.Card{}, errors.BadRequest("Card text is required")
	}
	card.Text = text
	if err := c.storage.UpdateCard(card); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// Update applies a partial edit and always resets the reminder state, so a
// card whose due date moved becomes eligible for a fresh reminder.
func (c *Cards) Update(cardId domain.CardId, update CardUpdate, actor domain.User) (domain.Card, error) {
	card, _, err := c.accessibleCard(cardId, actor)
	if err != nil {
		return domain.Card{}, err
	}

	if update.Text != nil {
		text := utils.SanitizeText(*update.Text)
		if text == "" {
			return domain.Card{}, errors.BadRequest("Card text is required")
		}
		card.Text = text
	}
	if update.Description != nil {
		card.Description = utils.SanitizeText(*update.Description)
	}
	if update.AssignedTo != nil {
		card.AssignedTo = *update.AssignedTo
	}
	if update.DueDate != nil {
		card.DueDate = update.DueDate
	}
	if update.Recurrence != nil {
		if !domain.ValidRecurrence(*update.Recurrence) {
			return domain.Card{}, errors.BadRequest("Unknown recurrence: " + string(*update.Recurrence))
		}
		card.Recurrence = *update.Recurrence
	}
	if update.RecurrenceEndDate != nil {
		card.RecurrenceEndDate = update.RecurrenceEndDate
	}
	if card.Recurrence != domain.RecurrenceNone && card.DueDate == nil {
		return domain.Card{}, errors.BadRequest("Recurring card requires a due date")
	}

	card.ReminderSent = false
	card.LastReminderSent = nil

	if err := c.storage.UpdateCard(card); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// Move implements the splice-and-renumber ordering algorithm. The moved card
// is written first, then every displaced peer gets its position rewritten one
// row at a time. There is no transaction around the renumbering: a failure
// mid-sequence leaves a partially updated ordering.
func (c *Cards) Move(cardId domain.CardId, move CardMove, actor domain.User) error {
	card, _, err := c.accessibleCard(cardId, actor)
	if err != nil {
		return err
	}
	if !domain.ValidListId(move.DestinationListId) {
		return errors.BadRequest("Unknown list: " + move.DestinationListId)
	}
	if move.SourceIndex < 0 || move.DestinationIndex < 0 {
		return errors.BadRequest("Card index must not be negative")
	}

	if err := c.storage.SetListAndPosition(cardId, move.DestinationListId, move.DestinationIndex); err != nil {
		return err
	}

	if move.SourceListId == move.DestinationListId {
		// Same list: renumber every other card by its sorted rank, skipping
		// one slot at the destination index for the moved card.
		peers, err := c.listExcluding(card.BoardId, move.SourceListId, cardId)
		if err != nil {
			return err
		}
		for i, peer := range peers {
			position := i
			if i >= move.DestinationIndex {
				position = i + 1
			}
			if err := c.storage.SetPosition(peer.Id, position); err != nil {
				return err
			}
		}
		return nil
	}

	// Cross-list: close the gap in the source list...
	sourceCards, err := c.listExcluding(card.BoardId, move.SourceListId, cardId)
	if err != nil {
		return err
	}
	for i := move.SourceIndex; i < len(sourceCards); i++ {
		if err := c.storage.SetPosition(sourceCards[i].Id, i); err != nil {
			return err
		}
	}

	// ...and open a slot in the destination list.
	destCards, err := c.listExcluding(card.BoardId, move.DestinationListId, cardId)
	if err != nil {
		return err
	}
	for i := move.DestinationIndex; i < len(destCards); i++ {
		if err := c.storage.SetPosition(destCards[i].Id, i+1); err != nil {
			return err
		}
	}
	return nil
}

// listExcluding returns a list's cards in position order without the card
// being moved or deleted.
func (c *Cards) listExcluding(boardId domain.BoardId, listId string, exclude domain.CardId) ([]domain.Card, error) {
	cards, err := c.storage.CardsInList(boardId, listId)
	if err != nil {
		return nil, err
	}
	out := cards[:0]
	for _, card := range cards {
		if card.Id != exclude {
			out = append(out, card)
		}
	}
	return out, nil
}

// Delete removes the card and compacts the remaining list to 0..n-1.
func (c *Cards) Delete(cardId domain.CardId, actor domain.User) error {
	card, _, err := c.accessibleCard(cardId, actor)
	if err != nil {
		return err
	}
	if err := c.storage.DeleteCard(cardId); err != nil {
		return err
	}
	remaining, err := c.storage.CardsInList(card.BoardId, card.ListId)
	if err != nil {
		return err
	}
	for i, peer := range remaining {
		if err := c.storage.SetPosition(peer.Id, i); err != nil {
			return err
		}
	}
	return nil
}

// Complete moves a card to done and, for recurring cards, materializes the
// next occurrence in the card's original list. Only one occurrence is ever
// created ahead: the chain advances a single step per completion and stops
// once the next due date would pass the recurrence end date.
func (c *Cards) Complete(cardId domain.CardId, actor domain.User) (domain.Card, error) {
	card, board, err := c.accessibleCard(cardId, actor)
	if err != nil {
		return domain.Card{}, err
	}

	if !board.IsOwner(actor.Id) && !card.IsAssignedTo(actor.Username) {
		return domain.Card{}, errors.Forbidden("Only the assigned user or board owner can complete this task")
	}

	now := time.Now()
	completed := card
	completed.ListId = domain.ListDone
	completed.CompletedAt = &now
	completed.CompletedBy = actor.Username
	// Newest completed card goes to the front of done. The rest of done is
	// not renumbered, so that list's ordering is only approximately dense.
	completed.Position = 0
	if err := c.storage.UpdateCard(completed); err != nil {
		return domain.Card{}, err
	}

	if card.Recurrence != domain.RecurrenceNone && card.DueDate != nil {
		if err := c.spawnNextOccurrence(card); err != nil {
			return domain.Card{}, err
		}
	}

	return completed, nil
}

func (c *Cards) spawnNextOccurrence(card domain.Card) error {
	nextDue, ok := card.Recurrence.NextDue(*card.DueDate)
	if !ok {
		return nil
	}
	if card.RecurrenceEndDate != nil && nextDue.After(*card.RecurrenceEndDate) {
		return nil
	}

	// The successor lives in the pre-completion list.
	listId := card.ListId
	if listId == "" {
		listId = domain.ListTodo
	}
	position, err := c.storage.NextPosition(card.BoardId, listId)
	if err != nil {
		return err
	}

	successor := domain.Card{
		BoardId:           card.BoardId,
		ListId:            listId,
		Position:          position,
		Text:              card.Text,
		Description:       card.Description,
		AssignedTo:        card.AssignedTo,
		DueDate:           &nextDue,
		Recurrence:        card.Recurrence,
		RecurrenceEndDate: card.RecurrenceEndDate,
	}
	_, err = c.storage.SaveCard(successor)
	return err
}

// SendReminder is the manual reminder action. Unlike the scheduled sweep,
// a delivery failure here is surfaced to the caller.
func (c *Cards) SendReminder(cardId domain.CardId, actor domain.User) error {
	card, _, err := c.accessibleCard(cardId, actor)
	if err != nil {
		return err
	}
	if card.DueDate == nil {
		return errors.BadRequest("Card has no due date")
	}
	assignee := card.Assignee()
	if assignee == "" {
		return errors.BadRequest("Card is not assigned to anyone")
	}

	user, err := c.users.UserByUsername(assignee)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.NotFound("Assigned user not found or has no email")
		}
		return err
	}
	if user.Email == "" {
		return errors.NotFound("Assigned user not found or has no email")
	}

	body := fmt.Sprintf("Your task %q is due on %s. This is a manual reminder sent by %s. Please check your board for details.",
		card.Text, card.DueDate.Format("January 2, 2006"), actor.Username)
	if err := c.email.Send(user.Email, fmt.Sprintf("Manual Reminder: %s due date", card.Text), body); err != nil {
		logger.Log.Error("manual reminder mail failed", "card_id", card.Id, "error", err)
		return &errors.ErrorWithStatusCode{Message: "Failed to send reminder email", StatusCode: 500}
	}

	return c.storage.MarkReminderSent(cardId, time.Now())
}
