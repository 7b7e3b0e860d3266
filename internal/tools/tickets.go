package tools

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/skondray/pmcopilot/internal/adapter/utils"
	"github.com/skondray/pmcopilot/internal/domain/commonModels"
)

var ErrEmptyTitle = errors.New("ticket title is required")

// TicketBook is an in-process ticket registry the assistant files follow-ups
// into. It stands in for the real issue tracker integration.
type TicketBook struct {
	mu      sync.RWMutex
	tickets map[string]commonModels.Ticket
}

func NewTicketBook() *TicketBook {
	return &TicketBook{
		tickets: make(map[string]commonModels.Ticket),
	}
}

func (b *TicketBook) Create(title string, description string, assignee string) (commonModels.Ticket, error) {
	if title == "" {
		return commonModels.Ticket{}, ErrEmptyTitle
	}

	ticket := commonModels.Ticket{
		Id:          utils.GetNewUUID(),
		Title:       title,
		Description: description,
		Assignee:    assignee,
		Status:      commonModels.TicketOpen,
		CreatedTime: time.Now(),
	}

	b.mu.Lock()
	b.tickets[ticket.Id] = ticket
	b.mu.Unlock()
	return ticket, nil
}

func (b *TicketBook) Get(id string) (commonModels.Ticket, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, found := b.tickets[id]
	return t, found
}

func (b *TicketBook) Close(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, found := b.tickets[id]
	if !found {
		return false
	}
	t.Status = commonModels.TicketClosed
	b.tickets[id] = t
	return true
}

func (b *TicketBook) List() []commonModels.Ticket {
	b.mu.RLock()
	defer b.mu.RUnlock()

	all := make([]commonModels.Ticket, 0, len(b.tickets))
	for _, t := range b.tickets {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedTime.Before(all[j].CreatedTime)
	})
	return all
}
