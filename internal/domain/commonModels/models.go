package commonModels

import "time"

// TeamMember is one entry in the static team directory the assistant can look up.
type TeamMember struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Area  string `json:"area"`
	Email string `json:"email"`
}

type TicketStatus string

const (
	TicketOpen   TicketStatus = "OPEN"
	TicketClosed TicketStatus = "CLOSED"
)

type Ticket struct {
	Id          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Assignee    string       `json:"assignee,omitempty"`
	Status      TicketStatus `json:"status"`
	CreatedTime time.Time    `json:"created_time"`
}
