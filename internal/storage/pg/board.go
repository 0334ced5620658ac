package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/openkanban/kanband/internal/domain"
	internal_errors "github.com/openkanban/kanband/internal/errors"
)

// int64Array adapts a slice of ids to the driver's array type.
func int64Array(ids []domain.UserId) pq.Int64Array {
	return pq.Int64Array(ids)
}

// =========================================================================
// Public Methods (satisfy the service.BoardStorage interface)
// =========================================================================

func (s *Storage) Board(id domain.BoardId) (domain.Board, error) {
	return s.board(s.db, id)
}

func (s *Storage) BoardsByOwner(owner domain.UserId) ([]domain.Board, error) {
	rows, err := s.db.Query(`
		SELECT id, title, owner_id, shared_with FROM boards
		WHERE owner_id = $1 ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query owned boards: %w", err)
	}
	defer rows.Close()

	return scanBoards(rows)
}

func (s *Storage) BoardsSharedWith(user domain.UserId) ([]domain.Board, error) {
	rows, err := s.db.Query(`
		SELECT id, title, owner_id, shared_with FROM boards
		WHERE $1 = ANY(shared_with) ORDER BY id`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to query shared boards: %w", err)
	}
	defer rows.Close()

	return scanBoards(rows)
}

func (s *Storage) SaveBoard(board domain.Board) (domain.BoardId, error) {
	var id domain.BoardId
	err := s.db.QueryRow(`
		INSERT INTO boards(title, owner_id, shared_with) VALUES($1, $2, $3)
		RETURNING id`,
		board.Title, board.Owner, int64Array(board.SharedWith)).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("failed to insert board: %w", err)
	}
	return id, nil
}

func (s *Storage) RenameBoard(id domain.BoardId, title domain.BoardTitle) error {
	return s.execOnBoard("UPDATE boards SET title = $2 WHERE id = $1", id, title)
}

// DeleteBoard removes the board. The cards table's ON DELETE CASCADE
// constraint cleans up the board's cards.
func (s *Storage) DeleteBoard(id domain.BoardId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM boards WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete board: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for board deletion: %w", err)
		}
		if rowsAffected == 0 {
			return internal_errors.NotFound("Board not found")
		}
		return nil
	})
}

func (s *Storage) AddSharedUser(boardId domain.BoardId, user domain.UserId) error {
	return s.execOnBoard(`
		UPDATE boards SET shared_with = array_append(shared_with, $2)
		WHERE id = $1 AND NOT ($2 = ANY(shared_with))`, boardId, user)
}

func (s *Storage) RemoveSharedUser(boardId domain.BoardId, user domain.UserId) error {
	return s.execOnBoard(`
		UPDATE boards SET shared_with = array_remove(shared_with, $2)
		WHERE id = $1`, boardId, user)
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) board(q Querier, id domain.BoardId) (domain.Board, error) {
	var board domain.Board
	var shared pq.Int64Array
	err := q.QueryRow("SELECT id, title, owner_id, shared_with FROM boards WHERE id = $1", id).
		Scan(&board.Id, &board.Title, &board.Owner, &shared)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Board{}, internal_errors.NotFound("Board not found")
		}
		return domain.Board{}, fmt.Errorf("failed to query board: %w", err)
	}
	board.SharedWith = shared
	return board, nil
}

func (s *Storage) execOnBoard(query string, id domain.BoardId, arg interface{}) error {
	result, err := s.db.Exec(query, id, arg)
	if err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for board update: %w", err)
	}
	if rowsAffected == 0 {
		return internal_errors.NotFound("Board not found")
	}
	return nil
}

func scanBoards(rows *sql.Rows) ([]domain.Board, error) {
	var boards []domain.Board
	for rows.Next() {
		var board domain.Board
		var shared pq.Int64Array
		if err := rows.Scan(&board.Id, &board.Title, &board.Owner, &shared); err != nil {
			return nil, fmt.Errorf("failed to scan board row: %w", err)
		}
		board.SharedWith = shared
		boards = append(boards, board)
	}
	return boards, rows.Err()
}
