package tools

import (
	"testing"

	"github.com/skondray/pmcopilot/internal/domain/commonModels"
)

func TestTeamDirectory_Lookup(t *testing.T) {
	d := NewTeamDirectory()

	tests := []struct {
		name      string
		query     string
		wantCount int
	}{
		{name: "by area", query: "billing", wantCount: 2},
		{name: "by role", query: "qa lead", wantCount: 1},
		{name: "by partial name", query: "priya", wantCount: 1},
		{name: "case insensitive", query: "BILLING", wantCount: 2},
		{name: "no match", query: "astronaut", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Lookup(tt.query)
			if len(got) != tt.wantCount {
				t.Errorf("Lookup(%q) returned %d members, want %d", tt.query, len(got), tt.wantCount)
			}
		})
	}

	all := d.Lookup("")
	if len(all) != 7 {
		t.Errorf("empty query should return full roster, got %d", len(all))
	}
}

func TestTicketBook_Lifecycle(t *testing.T) {
	b := NewTicketBook()

	ticket, err := b.Create("Clarify travel policy", "KB has no answer for contractor travel", "sofia.ramos@company.test")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ticket.Id == "" {
		t.Error("ticket id not assigned")
	}
	if ticket.Status != commonModels.TicketOpen {
		t.Errorf("new ticket status got %s, want OPEN", ticket.Status)
	}

	got, found := b.Get(ticket.Id)
	if !found || got.Title != "Clarify travel policy" {
		t.Errorf("Get returned %+v, found=%v", got, found)
	}

	if !b.Close(ticket.Id) {
		t.Error("Close returned false for existing ticket")
	}
	got, _ = b.Get(ticket.Id)
	if got.Status != commonModels.TicketClosed {
		t.Errorf("status after close got %s, want CLOSED", got.Status)
	}

	if b.Close("ghost") {
		t.Error("Close returned true for unknown ticket")
	}
}

func TestTicketBook_RejectsEmptyTitle(t *testing.T) {
	b := NewTicketBook()
	if _, err := b.Create("", "desc", ""); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestTicketBook_ListOrdered(t *testing.T) {
	b := NewTicketBook()
	b.Create("first", "", "")
	b.Create("second", "", "")

	all := b.List()
	if len(all) != 2 {
		t.Fatalf("List returned %d tickets, want 2", len(all))
	}
	if all[0].CreatedTime.After(all[1].CreatedTime) {
		t.Error("tickets not in creation order")
	}
}
