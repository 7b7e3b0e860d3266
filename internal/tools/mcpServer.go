package tools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skondray/pmcopilot/internal/config"
	"github.com/skondray/pmcopilot/internal/domain/commonModels"
	"github.com/skondray/pmcopilot/internal/rag"
	"github.com/skondray/pmcopilot/pkg/logger_i"
)

// MCPServer exposes the assistant's tools (knowledge search, team lookup,
// ticket filing) to MCP clients over streamable HTTP.
type MCPServer struct {
	server    *mcp.Server
	rag       rag.Service
	directory *TeamDirectory
	tickets   *TicketBook
	logger    *logger_i.Logger
}

type SearchPoliciesInput struct {
	Query string `json:"query" jsonschema:"the question to search the company knowledge base for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 3)"`
}

type PolicyMatch struct {
	Text   string  `json:"text"`
	Score  float32 `json:"score"`
	Source string  `json:"source,omitempty"`
}

type SearchPoliciesOutput struct {
	Matches []PolicyMatch `json:"matches"`
	Count   int           `json:"count"`
}

type LookupTeamInput struct {
	Query string `json:"query,omitempty" jsonschema:"area, role or name to look up; empty returns everyone"`
}

type LookupTeamOutput struct {
	Members []commonModels.TeamMember `json:"members"`
}

type CreateTicketInput struct {
	Title       string `json:"title" jsonschema:"short ticket title"`
	Description string `json:"description,omitempty" jsonschema:"what needs to happen"`
	Assignee    string `json:"assignee,omitempty" jsonschema:"email of the person to assign"`
}

type CreateTicketOutput struct {
	Ticket commonModels.Ticket `json:"ticket"`
}

func NewMCPServer(ragService rag.Service, directory *TeamDirectory, tickets *TicketBook) *MCPServer {
	s := &MCPServer{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "pmcopilot",
			Title:   "PM Copilot",
			Version: "1.0.0",
		}, nil),
		rag:       ragService,
		directory: directory,
		tickets:   tickets,
		logger:    logger_i.NewLogger("MCPServer"),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_policies",
		Description: "Search the company knowledge base for policy and process passages relevant to a question.",
	}, s.searchPoliciesTool)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "lookup_team",
		Description: "Look up team members by area, role or name from the company directory.",
	}, s.lookupTeamTool)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_ticket",
		Description: "File a follow-up ticket when a question cannot be answered from the knowledge base.",
	}, s.createTicketTool)

	return s
}

// Handler returns the streamable HTTP handler to mount on the main router.
func (s *MCPServer) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *MCPServer) searchPoliciesTool(ctx context.Context, _ *mcp.CallToolRequest, input SearchPoliciesInput) (*mcp.CallToolResult, SearchPoliciesOutput, error) {
	if input.Query == "" {
		return nil, SearchPoliciesOutput{}, errors.New("query is required")
	}
	topK := input.TopK
	if topK <= 0 {
		topK = config.DefaultSearchTopK
	}

	matches, err := s.rag.Search(ctx, input.Query, topK, config.DefaultSearchThreshold)
	if err != nil {
		s.logger.Error("search_policies failed", "error", err)
		return nil, SearchPoliciesOutput{}, err
	}

	output := SearchPoliciesOutput{
		Matches: make([]PolicyMatch, len(matches)),
		Count:   len(matches),
	}
	for i, m := range matches {
		name, _ := m.Metadata["originalName"].(string)
		output.Matches[i] = PolicyMatch{
			Text:   m.Text,
			Score:  m.Score,
			Source: name,
		}
	}
	return nil, output, nil
}

func (s *MCPServer) lookupTeamTool(ctx context.Context, _ *mcp.CallToolRequest, input LookupTeamInput) (*mcp.CallToolResult, LookupTeamOutput, error) {
	return nil, LookupTeamOutput{Members: s.directory.Lookup(input.Query)}, nil
}

func (s *MCPServer) createTicketTool(ctx context.Context, _ *mcp.CallToolRequest, input CreateTicketInput) (*mcp.CallToolResult, CreateTicketOutput, error) {
	ticket, err := s.tickets.Create(input.Title, input.Description, input.Assignee)
	if err != nil {
		return nil, CreateTicketOutput{}, err
	}
	s.logger.Info("Ticket filed", "ticketId", ticket.Id, "title", ticket.Title)
	return nil, CreateTicketOutput{Ticket: ticket}, nil
}
