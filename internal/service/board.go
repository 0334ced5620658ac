package service

import (
	"github.com/openkanban/kanband/internal/domain"
	"github.com/openkanban/kanband/internal/errors"
	"github.com/openkanban/kanband/internal/utils"
)

// to mock service in tests
type BoardService interface {
	GetAll(user domain.UserId) ([]domain.Board, error)
	Create(title domain.BoardTitle, owner domain.UserId) (domain.Board, error)
	Rename(boardId domain.BoardId, title domain.BoardTitle, actor domain.UserId) (domain.Board, error)
	Delete(boardId domain.BoardId, actor domain.UserId) error
	Share(boardId domain.BoardId, username domain.Username, actor domain.UserId) error
	SharedUsers(boardId domain.BoardId, actor domain.UserId) ([]domain.User, error)
	Revoke(boardId domain.BoardId, username domain.Username, actor domain.UserId) error
}

type Board struct {
	storage BoardStorage
	users   UserLookup
}

type BoardStorage interface {
	Board(id domain.BoardId) (domain.Board, error)
	BoardsByOwner(owner domain.UserId) ([]domain.Board, error)
	BoardsSharedWith(user domain.UserId) ([]domain.Board, error)
	SaveBoard(board domain.Board) (domain.BoardId, error)
	RenameBoard(id domain.BoardId, title domain.BoardTitle) error
	// DeleteBoard cascades to the board's cards.
	DeleteBoard(id domain.BoardId) error
	AddSharedUser(boardId domain.BoardId, user domain.UserId) error
	RemoveSharedUser(boardId domain.BoardId, user domain.UserId) error
	UsersByIds(ids []domain.UserId) ([]domain.User, error)
}

type UserLookup interface {
	UserByUsername(username domain.Username) (domain.User, error)
}

func NewBoard(storage BoardStorage, users UserLookup) *Board {
	return &Board{storage, users}
}

// GetAll returns boards the user owns followed by boards shared with them.
func (b *Board) GetAll(user domain.UserId) ([]domain.Board, error) {
	owned, err := b.storage.BoardsByOwner(user)
	if err != nil {
		return nil, err
	}
	shared, err := b.storage.BoardsSharedWith(user)
	if err != nil {
		return nil, err
	}
	return append(owned, shared...), nil
}

func (b *Board) Create(title domain.BoardTitle, owner domain.UserId) (domain.Board, error) {
	title = utils.SanitizeText(title)
	if title == "" {
		return domain.Board{}, errors.BadRequest("Board title is required")
	}
	board := domain.Board{Title: title, Owner: owner}
	id, err := b.storage.SaveBoard(board)
	if err != nil {
		return domain.Board{}, err
	}
	board.Id = id
	return board, nil
}

// ownedBoard loads a board and enforces the owner-only rule.
func (b *Board) ownedBoard(boardId domain.BoardId, actor domain.UserId, action string) (domain.Board, error) {
	board, err := b.storage.Board(boardId)
	if err != nil {
		return domain.Board{}, err
	}
	if !board.IsOwner(actor) {
		return domain.Board{}, errors.Forbidden("Only owner can " + action + " board")
	}
	return board, nil
}

func (b *Board) Rename(boardId domain.BoardId, title domain.BoardTitle, actor domain.UserId) (domain.Board, error) {
	board, err := b.ownedBoard(boardId, actor, "rename")
	if err != nil {
		return domain.Board{}, err
	}
	title = utils.SanitizeText(title)
	if title == "" {
		return domain.Board{}, errors.BadRequest("Board title is required")
	}
	if err := b.storage.RenameBoard(boardId, title); err != nil {
		return domain.Board{}, err
	}
	board.Title = title
	return board, nil
}

func (b *Board) Delete(boardId domain.BoardId, actor domain.UserId) error {
	if _, err := b.ownedBoard(boardId, actor, "delete"); err != nil {
		return err
	}
	return b.storage.DeleteBoard(boardId)
}

func (b *Board) Share(boardId domain.BoardId, username domain.Username, actor domain.UserId) error {
	board, err := b.ownedBoard(boardId, actor, "share")
	if err != nil {
		return err
	}

	user, err := b.users.UserByUsername(username)
	if err != nil {
		return err
	}
	if board.IsOwner(user.Id) {
		return errors.BadRequest("Cannot share board with its owner")
	}
	if board.IsSharedWith(user.Id) {
		return errors.Conflict("Board already shared with this user")
	}
	return b.storage.AddSharedUser(boardId, user.Id)
}

func (b *Board) SharedUsers(boardId domain.BoardId, actor domain.UserId) ([]domain.User, error) {
	board, err := b.ownedBoard(boardId, actor, "view shared users of")
	if err != nil {
		return nil, err
	}
	return b.storage.UsersByIds(board.SharedWith)
}

func (b *Board) Revoke(boardId domain.BoardId, username domain.Username, actor domain.UserId) error {
	board, err := b.ownedBoard(boardId, actor, "remove shared users from")
	if err != nil {
		return err
	}

	user, err := b.users.UserByUsername(username)
	if err != nil {
		return err
	}
	if !board.IsSharedWith(user.Id) {
		return errors.Conflict("Board is not shared with this user")
	}
	return b.storage.RemoveSharedUser(boardId, user.Id)
}
