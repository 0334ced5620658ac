package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openkanban/kanband/internal/domain"
	"github.com/openkanban/kanband/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remindersSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kanband",
			Name:      "reminders_sent_total",
			Help:      "Total number of reminder emails dispatched by the scheduler",
		},
		[]string{"kind"},
	)

	reminderFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kanband",
			Name:      "reminder_failures_total",
			Help:      "Total number of reminder emails that failed to send",
		},
	)
)

// ReminderScheduler periodically notifies assignees about due-tomorrow and
// overdue cards. Due-tomorrow notices are sent once per due date (tracked by
// the card's reminderSent flag); overdue notices deliberately re-fire every
// sweep until the card is completed or its due date moves.
type ReminderScheduler struct {
	storage        ReminderStorage
	users          UserLookup
	email          EmailSender
	mu             sync.Mutex
	lastSweepStats SweepStats
}

// SweepStats tracks metrics from the last sweep.
type SweepStats struct {
	RunAt          time.Time
	DueScanned     int
	DueSent        int
	OverdueScanned int
	OverdueSent    int
	Failures       int
	DurationMs     int64
}

// ReminderStorage defines the card queries needed by the scheduler.
type ReminderStorage interface {
	// CardsDueBetween returns assigned cards due within [from, to) whose
	// reminder has not been sent yet.
	CardsDueBetween(from, to time.Time) ([]domain.Card, error)
	// OverdueCards returns assigned cards whose due date has passed.
	OverdueCards(now time.Time) ([]domain.Card, error)
	MarkReminderSent(id domain.CardId, at time.Time) error
}

func NewReminderScheduler(storage ReminderStorage, users UserLookup, email EmailSender) *ReminderScheduler {
	return &ReminderScheduler{storage: storage, users: users, email: email}
}

// Start runs one sweep immediately, then sweeps on every tick until ctx is
// cancelled. Sweeps never overlap: ticks are consumed sequentially and
// RunSweep itself is serialized for manual invocations.
func (s *ReminderScheduler) Start(ctx context.Context, interval time.Duration) {
	logger.Log.Info("started reminder scheduler",
		"component", "reminder",
		"interval", interval)

	go func() {
		if err := s.RunSweep(); err != nil {
			logger.Log.Error("reminder sweep failed", "component", "reminder", "error", err)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.RunSweep(); err != nil {
					logger.Log.Error("reminder sweep failed",
						"component", "reminder",
						"error", err)
				} else {
					stats := s.LastSweepStats()
					logger.Log.Info("reminder sweep completed",
						"component", "reminder",
						"due_scanned", stats.DueScanned,
						"due_sent", stats.DueSent,
						"overdue_scanned", stats.OverdueScanned,
						"overdue_sent", stats.OverdueSent,
						"failures", stats.Failures,
						"duration_ms", stats.DurationMs)
				}
			case <-ctx.Done():
				logger.Log.Info("reminder scheduler shutting down gracefully",
					"component", "reminder")
				return
			}
		}
	}()
}

// RunSweep executes a single due-tomorrow plus overdue pass.
// It can be called manually for testing or maintenance.
func (s *ReminderScheduler) RunSweep() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTime := time.Now()
	stats := SweepStats{RunAt: startTime}

	if err := s.sweepDueTomorrow(startTime, &stats); err != nil {
		return err
	}
	if err := s.sweepOverdue(startTime, &stats); err != nil {
		return err
	}

	stats.DurationMs = time.Since(startTime).Milliseconds()
	s.lastSweepStats = stats
	return nil
}

func (s *ReminderScheduler) LastSweepStats() SweepStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSweepStats
}

// sweepDueTomorrow notifies assignees of cards due within tomorrow's
// calendar day. A successful send flips the card's reminderSent flag; a
// failed send leaves the card untouched so the next sweep retries it.
func (s *ReminderScheduler) sweepDueTomorrow(now time.Time, stats *SweepStats) error {
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)

	cards, err := s.storage.CardsDueBetween(tomorrow, tomorrow.Add(24*time.Hour))
	if err != nil {
		return err
	}
	stats.DueScanned = len(cards)

	for _, card := range cards {
		email, ok := s.assigneeEmail(card)
		if !ok {
			continue
		}

		body := fmt.Sprintf("Your task %q is due tomorrow (%s). Please check your board and complete it on time.",
			card.Text, card.DueDate.Format("January 2, 2006"))
		if err := s.email.Send(email, fmt.Sprintf("Reminder: %s is due tomorrow!", card.Text), body); err != nil {
			logger.Log.Error("due-tomorrow reminder failed",
				"component", "reminder",
				"card_id", card.Id,
				"error", err)
			reminderFailuresTotal.Inc()
			stats.Failures++
			continue
		}

		if err := s.storage.MarkReminderSent(card.Id, time.Now()); err != nil {
			logger.Log.Error("failed to mark reminder sent",
				"component", "reminder",
				"card_id", card.Id,
				"error", err)
			stats.Failures++
			continue
		}
		remindersSentTotal.WithLabelValues("due_tomorrow").Inc()
		stats.DueSent++
	}
	return nil
}

// sweepOverdue nags assignees of every overdue card on every run. No state
// is recorded, so overdue notices are not deduplicated run-over-run.
func (s *ReminderScheduler) sweepOverdue(now time.Time, stats *SweepStats) error {
	cards, err := s.storage.OverdueCards(now)
	if err != nil {
		return err
	}
	stats.OverdueScanned = len(cards)

	for _, card := range cards {
		email, ok := s.assigneeEmail(card)
		if !ok {
			continue
		}

		daysOverdue := int(now.Sub(*card.DueDate).Hours() / 24)
		plural := ""
		if daysOverdue > 1 {
			plural = "s"
		}
		body := fmt.Sprintf("Your task %q was due on %s and is now %d day%s overdue. Please complete it immediately.",
			card.Text, card.DueDate.Format("January 2, 2006"), daysOverdue, plural)
		if err := s.email.Send(email, fmt.Sprintf("URGENT: %s is overdue!", card.Text), body); err != nil {
			logger.Log.Error("overdue reminder failed",
				"component", "reminder",
				"card_id", card.Id,
				"error", err)
			reminderFailuresTotal.Inc()
			stats.Failures++
			continue
		}
		remindersSentTotal.WithLabelValues("overdue").Inc()
		stats.OverdueSent++
	}
	return nil
}

// assigneeEmail resolves a card's "@username" assignee to their address.
// Unresolvable assignees are skipped, never fatal to the sweep.
func (s *ReminderScheduler) assigneeEmail(card domain.Card) (string, bool) {
	assignee := card.Assignee()
	if assignee == "" {
		return "", false
	}
	user, err := s.users.UserByUsername(assignee)
	if err != nil || user.Email == "" {
		logger.Log.Warn("skipping reminder, assignee unresolved",
			"component", "reminder",
			"card_id", card.Id,
			"assignee", assignee)
		return "", false
	}
	return user.Email, true
}
