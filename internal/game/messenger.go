package game

import (
	"context"
	"time"
)

type MessageRef string

// Recipient addresses a player through the transport. Address is empty until
// the transport has seen the player.
type Recipient struct {
	User    UserID
	Address string
}

type Button struct {
	Label  string
	Action string
}

// Menu is an interactive button layout; each button submits its Action token.
type Menu struct {
	Rows [][]Button
}

func (m *Menu) addRow(buttons ...Button) {
	if len(buttons) == 0 {
		return
	}
	m.Rows = append(m.Rows, buttons)
}

// Messenger delivers messages to players. Implementations must not call back
// into the Registry synchronously.
type Messenger interface {
	SendMessage(ctx context.Context, to Recipient, text string, menu *Menu) (MessageRef, error)
	DeleteMessage(ctx context.Context, to Recipient, ref MessageRef) error
	EditMessageText(ctx context.Context, to Recipient, ref MessageRef, text string) error
}

// ReportSink receives the end-of-game report.
type ReportSink interface {
	SaveReport(ctx context.Context, report Report) error
}

type PlayerSummary struct {
	ID         UserID
	Name       string
	Role       Role
	Status     LifeStatus
	TasksDone  int
	TasksTotal int
}

type Report struct {
	Code      string
	Winner    Winner
	Reason    string
	StartedAt time.Time
	EndedAt   time.Time
	Players   []PlayerSummary
	Events    []Event
}

type discardMessenger struct{}

func (discardMessenger) SendMessage(context.Context, Recipient, string, *Menu) (MessageRef, error) {
	return "", nil
}

func (discardMessenger) DeleteMessage(context.Context, Recipient, MessageRef) error {
	return nil
}

func (discardMessenger) EditMessageText(context.Context, Recipient, MessageRef, string) error {
	return nil
}
