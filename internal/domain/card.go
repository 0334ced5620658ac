package domain

import (
	"strings"
	"time"
)

// Fixed lanes a card can occupy. Stored as plain text so custom lists can be
// introduced later without a schema change.
const (
	ListTodo  = "todo"
	ListDoing = "doing"
	ListDone  = "done"
)

func ValidListId(listId string) bool {
	switch listId {
	case ListTodo, ListDoing, ListDone:
		return true
	}
	return false
}

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

func ValidRecurrence(r Recurrence) bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// NextDue advances due by one recurrence step. Monthly uses time.AddDate
// normalization, so Jan 31 rolls over into early March.
func (r Recurrence) NextDue(due time.Time) (time.Time, bool) {
	switch r {
	case RecurrenceDaily:
		return due.AddDate(0, 0, 1), true
	case RecurrenceWeekly:
		return due.AddDate(0, 0, 7), true
	case RecurrenceMonthly:
		return due.AddDate(0, 1, 0), true
	}
	return time.Time{}, false
}

type Card struct {
	Id          CardId
	BoardId     BoardId
	ListId      string
	Position    int
	Text        CardText
	Description string

	// AssignedTo/AssignedBy hold "@username" handles, empty if unset.
	AssignedTo string
	AssignedBy string

	DueDate           *time.Time
	Recurrence        Recurrence
	RecurrenceEndDate *time.Time

	ReminderSent     bool
	LastReminderSent *time.Time

	CompletedAt *time.Time
	CompletedBy Username
}

// Assignee returns the assigned username without the "@" prefix,
// or "" if the card is unassigned.
func (c *Card) Assignee() Username {
	if strings.HasPrefix(c.AssignedTo, "@") {
		return c.AssignedTo[1:]
	}
	return ""
}

func (c *Card) IsAssignedTo(username Username) bool {
	return c.AssignedTo != "" && c.AssignedTo == "@"+username
}
