package service

import (
	"sort"
	"sync"
	"time"

	"github.com/openkanban/kanband/internal/domain"
	"github.com/openkanban/kanband/internal/errors"
)

// --- Shared in-memory mocks for service tests ---

type memStorage struct {
	mu     sync.Mutex
	users  map[domain.UserId]domain.User
	boards map[domain.BoardId]domain.Board
	cards  map[domain.CardId]domain.Card
	nextId int64

	// failure injection
	setPositionErr func(id domain.CardId) error
	saveCardErr    error
}

func newMemStorage() *memStorage {
	return &memStorage{
		users:  map[domain.UserId]domain.User{},
		boards: map[domain.BoardId]domain.Board{},
		cards:  map[domain.CardId]domain.Card{},
	}
}

func (m *memStorage) id() int64 {
	m.nextId++
	return m.nextId
}

// -- AuthStorage / UserLookup --

func (m *memStorage) SaveUser(user domain.User) (domain.UserId, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Id = m.id()
	m.users[user.Id] = user
	return user.Id, nil
}

func (m *memStorage) UserByUsername(username domain.Username) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, errors.NotFound("User not found")
}

func (m *memStorage) UserByEmail(email domain.Email) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, errors.NotFound("User not found")
}

func (m *memStorage) ConfirmUser(id domain.UserId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return errors.NotFound("User not found")
	}
	u.EmailVerified = true
	u.OtpHash = ""
	u.OtpExpires = time.Time{}
	m.users[id] = u
	return nil
}

func (m *memStorage) DeleteUser(id domain.UserId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return errors.NotFound("User not found")
	}
	delete(m.users, id)
	return nil
}

func (m *memStorage) SearchUsers(query string, exclude domain.UserId, limit int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if u.Id == exclude {
			continue
		}
		if containsFold(u.Username, query) {
			out = append(out, u)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func containsFold(s, substr string) bool {
	lower := func(b byte) byte {
		if b >= 'A' && b <= 'Z' {
			return b + 'a' - 'A'
		}
		return b
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		match := true
		for j := 0; j < len(substr); j++ {
			if lower(s[i+j]) != lower(substr[j]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// -- BoardStorage / BoardGetter --

func (m *memStorage) Board(id domain.BoardId) (domain.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok {
		return domain.Board{}, errors.NotFound("Board not found")
	}
	return b, nil
}

func (m *memStorage) BoardsByOwner(owner domain.UserId) ([]domain.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Board
	for _, b := range m.boards {
		if b.Owner == owner {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStorage) BoardsSharedWith(user domain.UserId) ([]domain.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Board
	for _, b := range m.boards {
		if b.IsSharedWith(user) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStorage) SaveBoard(board domain.Board) (domain.BoardId, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	board.Id = m.id()
	m.boards[board.Id] = board
	return board.Id, nil
}

func (m *memStorage) RenameBoard(id domain.BoardId, title domain.BoardTitle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok {
		return errors.NotFound("Board not found")
	}
	b.Title = title
	m.boards[id] = b
	return nil
}

func (m *memStorage) DeleteBoard(id domain.BoardId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards[id]; !ok {
		return errors.NotFound("Board not found")
	}
	delete(m.boards, id)
	for cardId, card := range m.cards {
		if card.BoardId == id {
			delete(m.cards, cardId)
		}
	}
	return nil
}

func (m *memStorage) AddSharedUser(boardId domain.BoardId, user domain.UserId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.boards[boardId]
	b.SharedWith = append(b.SharedWith, user)
	m.boards[boardId] = b
	return nil
}

func (m *memStorage) RemoveSharedUser(boardId domain.BoardId, user domain.UserId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.boards[boardId]
	var kept []domain.UserId
	for _, id := range b.SharedWith {
		if id != user {
			kept = append(kept, id)
		}
	}
	b.SharedWith = kept
	m.boards[boardId] = b
	return nil
}

func (m *memStorage) UsersByIds(ids []domain.UserId) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// -- CardStorage / ReminderStorage --

func (m *memStorage) Card(id domain.CardId) (domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return domain.Card{}, errors.NotFound("Card not found")
	}
	return c, nil
}

func (m *memStorage) CardsByBoard(boardId domain.BoardId) ([]domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Card
	for _, c := range m.cards {
		if c.BoardId == boardId {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ListId != out[j].ListId {
			return out[i].ListId < out[j].ListId
		}
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Id < out[j].Id
	})
	return out, nil
}

func (m *memStorage) CardsInList(boardId domain.BoardId, listId string) ([]domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Card
	for _, c := range m.cards {
		if c.BoardId == boardId && c.ListId == listId {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Id < out[j].Id
	})
	return out, nil
}

func (m *memStorage) NextPosition(boardId domain.BoardId, listId string) (int, error) {
	cards, _ := m.CardsInList(boardId, listId)
	next := 0
	for _, c := range cards {
		if c.Position >= next {
			next = c.Position + 1
		}
	}
	return next, nil
}

func (m *memStorage) SaveCard(card domain.Card) (domain.CardId, error) {
	if m.saveCardErr != nil {
		return 0, m.saveCardErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	card.Id = m.id()
	m.cards[card.Id] = card
	return card.Id, nil
}

func (m *memStorage) UpdateCard(card domain.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[card.Id]; !ok {
		return errors.NotFound("Card not found")
	}
	m.cards[card.Id] = card
	return nil
}

func (m *memStorage) SetPosition(id domain.CardId, position int) error {
	if m.setPositionErr != nil {
		if err := m.setPositionErr(id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return errors.NotFound("Card not found")
	}
	c.Position = position
	m.cards[id] = c
	return nil
}

func (m *memStorage) SetListAndPosition(id domain.CardId, listId string, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return errors.NotFound("Card not found")
	}
	c.ListId = listId
	c.Position = position
	m.cards[id] = c
	return nil
}

func (m *memStorage) MarkReminderSent(id domain.CardId, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return errors.NotFound("Card not found")
	}
	c.ReminderSent = true
	c.LastReminderSent = &at
	m.cards[id] = c
	return nil
}

func (m *memStorage) DeleteCard(id domain.CardId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return errors.NotFound("Card not found")
	}
	delete(m.cards, id)
	return nil
}

func (m *memStorage) CardsDueBetween(from, to time.Time) ([]domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Card
	for _, c := range m.cards {
		if c.DueDate == nil || c.ReminderSent || c.AssignedTo == "" {
			continue
		}
		if !c.DueDate.Before(from) && c.DueDate.Before(to) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (m *memStorage) OverdueCards(now time.Time) ([]domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Card
	for _, c := range m.cards {
		if c.DueDate == nil || c.AssignedTo == "" {
			continue
		}
		if c.DueDate.Before(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

// MockEmail records sends and optionally fails them.
type MockEmail struct {
	mu       sync.Mutex
	sent     []sentMail
	sendFunc func(to, subject, body string) error
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *MockEmail) Send(to, subject, body string) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(to, subject, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *MockEmail) IsCorrect(email domain.Email) error {
	if !containsFold(email, "@") {
		return errors.BadRequest("invalid email")
	}
	return nil
}

func (m *MockEmail) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMail, len(m.sent))
	copy(out, m.sent)
	return out
}

type MockJwt struct{}

func (MockJwt) NewToken(user domain.User) (string, error) {
	return "token-" + user.Username, nil
}
