package api

import "time"

// Request and response DTOs exchanged with the HTTP layer.

type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyOtpRequest struct {
	Username string `json:"username" validate:"required"`
	Otp      string `json:"otp" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateBoardRequest struct {
	Title string `json:"title" validate:"required"`
}

type RenameBoardRequest struct {
	Title string `json:"title" validate:"required"`
}

type ShareBoardRequest struct {
	Username string `json:"username" validate:"required"`
}

type CreateCardRequest struct {
	Text              string     `json:"text" validate:"required"`
	Description       string     `json:"description,omitempty"`
	AssignedTo        string     `json:"assignedTo,omitempty"`
	ListId            string     `json:"listId,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	Recurrence        string     `json:"recurrence,omitempty"`
	RecurrenceEndDate *time.Time `json:"recurrenceEndDate,omitempty"`
}

type RenameCardRequest struct {
	Text string `json:"text" validate:"required"`
}

// UpdateCardRequest carries partial updates; nil pointer fields are left
// untouched. Any update resets the card's reminder state.
type UpdateCardRequest struct {
	Text              *string    `json:"text,omitempty"`
	Description       *string    `json:"description,omitempty"`
	AssignedTo        *string    `json:"assignedTo,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	Recurrence        *string    `json:"recurrence,omitempty"`
	RecurrenceEndDate *time.Time `json:"recurrenceEndDate,omitempty"`
}

type MoveCardRequest struct {
	SourceListId      string `json:"sourceListId" validate:"required"`
	DestinationListId string `json:"destinationListId" validate:"required"`
	SourceIndex       int    `json:"sourceIndex" validate:"gte=0"`
	DestinationIndex  int    `json:"destinationIndex" validate:"gte=0"`
}

type BoardResponse struct {
	Id      int64  `json:"id"`
	Title   string `json:"title"`
	Owner   int64  `json:"owner"`
	IsOwner bool   `json:"isOwner"`
}

type CardResponse struct {
	Id                int64      `json:"id"`
	BoardId           int64      `json:"boardId"`
	ListId            string     `json:"listId"`
	Position          int        `json:"position"`
	Text              string     `json:"text"`
	Description       string     `json:"description,omitempty"`
	AssignedTo        string     `json:"assignedTo,omitempty"`
	AssignedBy        string     `json:"assignedBy,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	Recurrence        string     `json:"recurrence"`
	RecurrenceEndDate *time.Time `json:"recurrenceEndDate,omitempty"`
	ReminderSent      bool       `json:"reminderSent"`
	LastReminderSent  *time.Time `json:"lastReminderSent,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	CompletedBy       string     `json:"completedBy,omitempty"`
}

type UserResponse struct {
	Username string `json:"username"`
}

type CompleteCardResponse struct {
	Success bool         `json:"success"`
	Card    CardResponse `json:"card"`
	Message string       `json:"message"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
