package api

import "github.com/openkanban/kanband/internal/domain"

func NewCardResponse(c domain.Card) CardResponse {
	return CardResponse{
		Id:                c.Id,
		BoardId:           c.BoardId,
		ListId:            c.ListId,
		Position:          c.Position,
		Text:              c.Text,
		Description:       c.Description,
		AssignedTo:        c.AssignedTo,
		AssignedBy:        c.AssignedBy,
		DueDate:           c.DueDate,
		Recurrence:        string(c.Recurrence),
		RecurrenceEndDate: c.RecurrenceEndDate,
		ReminderSent:      c.ReminderSent,
		LastReminderSent:  c.LastReminderSent,
		CompletedAt:       c.CompletedAt,
		CompletedBy:       c.CompletedBy,
	}
}

func NewCardResponses(cards []domain.Card) []CardResponse {
	out := make([]CardResponse, len(cards))
	for i, c := range cards {
		out[i] = NewCardResponse(c)
	}
	return out
}

func NewBoardResponse(b domain.Board, viewer domain.UserId) BoardResponse {
	return BoardResponse{
		Id:      b.Id,
		Title:   b.Title,
		Owner:   b.Owner,
		IsOwner: b.IsOwner(viewer),
	}
}
