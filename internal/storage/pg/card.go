package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openkanban/kanband/internal/domain"
	internal_errors "github.com/openkanban/kanband/internal/errors"
)

const cardColumns = `id, board_id, list_id, position, text, description,
	assigned_to, assigned_by, due_date, recurrence, recurrence_end_date,
	reminder_sent, last_reminder_sent, completed_at, completed_by`

// =========================================================================
// Public Methods (satisfy the service.CardStorage and
// service.ReminderStorage interfaces)
// =========================================================================

func (s *Storage) Card(id domain.CardId) (domain.Card, error) {
	row := s.db.QueryRow("SELECT "+cardColumns+" FROM cards WHERE id = $1", id)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Card{}, internal_errors.NotFound("Card not found")
		}
		return domain.Card{}, fmt.Errorf("failed to query card: %w", err)
	}
	return card, nil
}

// CardsByBoard returns all of a board's cards ordered by (list_id, position).
func (s *Storage) CardsByBoard(boardId domain.BoardId) ([]domain.Card, error) {
	rows, err := s.db.Query(`
		SELECT `+cardColumns+` FROM cards
		WHERE board_id = $1 ORDER BY list_id, position, id`, boardId)
	if err != nil {
		return nil, fmt.Errorf("failed to query board cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// CardsInList returns a single list's cards ordered by position.
func (s *Storage) CardsInList(boardId domain.BoardId, listId string) ([]domain.Card, error) {
	rows, err := s.db.Query(`
		SELECT `+cardColumns+` FROM cards
		WHERE board_id = $1 AND list_id = $2 ORDER BY position, id`, boardId, listId)
	if err != nil {
		return nil, fmt.Errorf("failed to query list cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// NextPosition is max(position)+1 within the list, 0 when the list is empty.
func (s *Storage) NextPosition(boardId domain.BoardId, listId string) (int, error) {
	var position int
	err := s.db.QueryRow(`
		SELECT COALESCE(MAX(position) + 1, 0) FROM cards
		WHERE board_id = $1 AND list_id = $2`, boardId, listId).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next position: %w", err)
	}
	return position, nil
}

func (s *Storage) SaveCard(card domain.Card) (domain.CardId, error) {
	var id domain.CardId
	err := s.db.QueryRow(`
		INSERT INTO cards(board_id, list_id, position, text, description,
			assigned_to, assigned_by, due_date, recurrence, recurrence_end_date,
			reminder_sent, last_reminder_sent, completed_at, completed_by)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		card.BoardId, card.ListId, card.Position, card.Text, card.Description,
		card.AssignedTo, card.AssignedBy, card.DueDate, card.Recurrence, card.RecurrenceEndDate,
		card.ReminderSent, card.LastReminderSent, card.CompletedAt, card.CompletedBy).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("failed to insert card: %w", err)
	}
	return id, nil
}

func (s *Storage) UpdateCard(card domain.Card) error {
	return s.execOnCard(`
		UPDATE cards SET list_id = $2, position = $3, text = $4, description = $5,
			assigned_to = $6, assigned_by = $7, due_date = $8, recurrence = $9,
			recurrence_end_date = $10, reminder_sent = $11, last_reminder_sent = $12,
			completed_at = $13, completed_by = $14
		WHERE id = $1`,
		card.Id, card.ListId, card.Position, card.Text, card.Description,
		card.AssignedTo, card.AssignedBy, card.DueDate, card.Recurrence,
		card.RecurrenceEndDate, card.ReminderSent, card.LastReminderSent,
		card.CompletedAt, card.CompletedBy)
}

func (s *Storage) SetPosition(id domain.CardId, position int) error {
	return s.execOnCard("UPDATE cards SET position = $2 WHERE id = $1", id, position)
}

func (s *Storage) SetListAndPosition(id domain.CardId, listId string, position int) error {
	return s.execOnCard("UPDATE cards SET list_id = $2, position = $3 WHERE id = $1", id, listId, position)
}

func (s *Storage) MarkReminderSent(id domain.CardId, at time.Time) error {
	return s.execOnCard("UPDATE cards SET reminder_sent = TRUE, last_reminder_sent = $2 WHERE id = $1", id, at)
}

func (s *Storage) DeleteCard(id domain.CardId) error {
	return s.execOnCard("DELETE FROM cards WHERE id = $1", id)
}

// CardsDueBetween returns assigned, not-yet-reminded cards due in [from, to).
// Used by the scheduler's due-tomorrow pass.
func (s *Storage) CardsDueBetween(from, to time.Time) ([]domain.Card, error) {
	rows, err := s.db.Query(`
		SELECT `+cardColumns+` FROM cards
		WHERE due_date >= $1 AND due_date < $2
			AND reminder_sent = FALSE
			AND assigned_to != ''
		ORDER BY id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query due cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// OverdueCards returns assigned cards whose due date has already passed.
func (s *Storage) OverdueCards(now time.Time) ([]domain.Card, error) {
	rows, err := s.db.Query(`
		SELECT `+cardColumns+` FROM cards
		WHERE due_date < $1
			AND assigned_to != ''
		ORDER BY id`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) execOnCard(query string, args ...interface{}) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for card update: %w", err)
	}
	if rowsAffected == 0 {
		return internal_errors.NotFound("Card not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCard(row rowScanner) (domain.Card, error) {
	var card domain.Card
	err := row.Scan(&card.Id, &card.BoardId, &card.ListId, &card.Position,
		&card.Text, &card.Description, &card.AssignedTo, &card.AssignedBy,
		&card.DueDate, &card.Recurrence, &card.RecurrenceEndDate,
		&card.ReminderSent, &card.LastReminderSent, &card.CompletedAt, &card.CompletedBy)
	return card, err
}

func scanCards(rows *sql.Rows) ([]domain.Card, error) {
	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}
