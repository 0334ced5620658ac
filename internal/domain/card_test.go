package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextDue(t *testing.T) {
	due := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	next, ok := RecurrenceDaily.NextDue(due)
	assert.True(t, ok)
	assert.Equal(t, due.AddDate(0, 0, 1), next)

	next, ok = RecurrenceWeekly.NextDue(due)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 17, 9, 0, 0, 0, time.UTC), next)

	next, ok = RecurrenceMonthly.NextDue(due)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, time.April, 10, 9, 0, 0, 0, time.UTC), next)

	_, ok = RecurrenceNone.NextDue(due)
	assert.False(t, ok)
}

func TestNextDueMonthlyNormalizes(t *testing.T) {
	jan31 := time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)
	next, ok := RecurrenceMonthly.NextDue(jan31)
	assert.True(t, ok)
	// AddDate rolls Jan 31 past February's end.
	assert.Equal(t, time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC), next)
}

func TestValidListId(t *testing.T) {
	assert.True(t, ValidListId(ListTodo))
	assert.True(t, ValidListId(ListDoing))
	assert.True(t, ValidListId(ListDone))
	assert.False(t, ValidListId("backlog"))
	assert.False(t, ValidListId(""))
}

func TestCardAssignee(t *testing.T) {
	card := Card{AssignedTo: "@bob"}
	assert.Equal(t, Username("bob"), card.Assignee())
	assert.True(t, card.IsAssignedTo("bob"))
	assert.False(t, card.IsAssignedTo("bo"))

	unassigned := Card{}
	assert.Equal(t, Username(""), unassigned.Assignee())
	assert.False(t, unassigned.IsAssignedTo(""))
}
