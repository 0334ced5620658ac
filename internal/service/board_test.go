package service

import (
	"testing"

	"github.com/openkanban/kanband/internal/domain"
	internal_errors "github.com/openkanban/kanband/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boardFixture struct {
	storage *memStorage
	service *Board
	owner   domain.UserId
	shared  domain.UserId
	other   domain.UserId
}

func newBoardFixture(t *testing.T) *boardFixture {
	t.Helper()
	storage := newMemStorage()

	owner, err := storage.SaveUser(domain.User{Username: "alice", Email: "alice@example.com", EmailVerified: true})
	require.NoError(t, err)
	shared, err := storage.SaveUser(domain.User{Username: "bob", Email: "bob@example.com", EmailVerified: true})
	require.NoError(t, err)
	other, err := storage.SaveUser(domain.User{Username: "carol", Email: "carol@example.com", EmailVerified: true})
	require.NoError(t, err)

	return &boardFixture{
		storage: storage,
		service: NewBoard(storage, storage),
		owner:   owner,
		shared:  shared,
		other:   other,
	}
}

func (f *boardFixture) createShared(t *testing.T) domain.Board {
	t.Helper()
	board, err := f.service.Create("Project", f.owner)
	require.NoError(t, err)
	require.NoError(t, f.service.Share(board.Id, "bob", f.owner))
	return board
}

func assertStatusCode(t *testing.T, err error, want int) {
	t.Helper()
	require.Error(t, err)
	var statusErr *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, want, statusErr.StatusCode)
}

func TestCreateBoard(t *testing.T) {
	f := newBoardFixture(t)

	board, err := f.service.Create("  My Board  ", f.owner)
	require.NoError(t, err)
	assert.Equal(t, "My Board", board.Title)
	assert.Equal(t, f.owner, board.Owner)
	assert.Empty(t, board.SharedWith)

	_, err = f.service.Create("   ", f.owner)
	assertStatusCode(t, err, 400)
}

func TestGetAllReturnsOwnedAndShared(t *testing.T) {
	f := newBoardFixture(t)
	mine, err := f.service.Create("Mine", f.shared)
	require.NoError(t, err)
	theirs := f.createShared(t)

	boards, err := f.service.GetAll(f.shared)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, mine.Id, boards[0].Id)
	assert.Equal(t, theirs.Id, boards[1].Id)

	// carol has nothing.
	boards, err = f.service.GetAll(f.other)
	require.NoError(t, err)
	assert.Empty(t, boards)
}

func TestRenameBoardOwnerOnly(t *testing.T) {
	f := newBoardFixture(t)
	board := f.createShared(t)

	renamed, err := f.service.Rename(board.Id, "Renamed", f.owner)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Title)

	// Shared access grants card edits, never board administration.
	_, err = f.service.Rename(board.Id, "Hijacked", f.shared)
	assertStatusCode(t, err, 403)
	_, err = f.service.Rename(board.Id, "Hijacked", f.other)
	assertStatusCode(t, err, 403)

	got, err := f.storage.Board(board.Id)
	require.NoError(t, err)
	assert.Equal(t, domain.BoardTitle("Renamed"), got.Title)
}

func TestDeleteBoardCascadesToCards(t *testing.T) {
	f := newBoardFixture(t)
	board := f.createShared(t)
	_, err := f.storage.SaveCard(domain.Card{BoardId: board.Id, ListId: domain.ListTodo, Text: "orphan-to-be"})
	require.NoError(t, err)

	assertStatusCode(t, f.service.Delete(board.Id, f.shared), 403)

	require.NoError(t, f.service.Delete(board.Id, f.owner))
	_, err = f.storage.Board(board.Id)
	assert.True(t, internal_errors.IsNotFound(err))
	cards, err := f.storage.CardsByBoard(board.Id)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestShareBoard(t *testing.T) {
	f := newBoardFixture(t)
	board, err := f.service.Create("Project", f.owner)
	require.NoError(t, err)

	require.NoError(t, f.service.Share(board.Id, "bob", f.owner))
	got, err := f.storage.Board(board.Id)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserId{f.shared}, got.SharedWith)

	// Sharing twice with the same user conflicts.
	assertStatusCode(t, f.service.Share(board.Id, "bob", f.owner), 409)

	// The owner never appears in sharedWith.
	assertStatusCode(t, f.service.Share(board.Id, "alice", f.owner), 400)

	// Unknown users and non-owner actors are rejected.
	assertStatusCode(t, f.service.Share(board.Id, "nobody", f.owner), 404)
	assertStatusCode(t, f.service.Share(board.Id, "carol", f.shared), 403)
}

func TestSharedUsers(t *testing.T) {
	f := newBoardFixture(t)
	board := f.createShared(t)

	users, err := f.service.SharedUsers(board.Id, f.owner)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	_, err = f.service.SharedUsers(board.Id, f.shared)
	assertStatusCode(t, err, 403)
}

func TestRevokeShare(t *testing.T) {
	f := newBoardFixture(t)
	board := f.createShared(t)

	assertStatusCode(t, f.service.Revoke(board.Id, "bob", f.shared), 403)
	assertStatusCode(t, f.service.Revoke(board.Id, "carol", f.owner), 409)

	require.NoError(t, f.service.Revoke(board.Id, "bob", f.owner))
	got, err := f.storage.Board(board.Id)
	require.NoError(t, err)
	assert.Empty(t, got.SharedWith)

	// Revoking again conflicts.
	assertStatusCode(t, f.service.Revoke(board.Id, "bob", f.owner), 409)
}
