package tools

import (
	"strings"

	"github.com/skondray/pmcopilot/internal/domain/commonModels"
)

// TeamDirectory answers "who owns X" lookups. The roster is static for now,
// matching how the org chart changes: rarely, and through a deploy anyway.
type TeamDirectory struct {
	members []commonModels.TeamMember
}

func NewTeamDirectory() *TeamDirectory {
	return &TeamDirectory{
		members: []commonModels.TeamMember{
			{Name: "Priya Sharma", Role: "Engineering Manager", Area: "platform", Email: "priya.sharma@company.test"},
			{Name: "Marcus Webb", Role: "Tech Lead", Area: "billing", Email: "marcus.webb@company.test"},
			{Name: "Elena Petrova", Role: "Product Manager", Area: "billing", Email: "elena.petrova@company.test"},
			{Name: "Devon Clarke", Role: "Staff Engineer", Area: "infrastructure", Email: "devon.clarke@company.test"},
			{Name: "Aisha Bello", Role: "Designer", Area: "mobile", Email: "aisha.bello@company.test"},
			{Name: "Tom Nguyen", Role: "QA Lead", Area: "mobile", Email: "tom.nguyen@company.test"},
			{Name: "Sofia Ramos", Role: "Program Manager", Area: "platform", Email: "sofia.ramos@company.test"},
		},
	}
}

// Lookup matches on area, role or name, case-insensitively. An empty query
// returns the whole roster.
func (d *TeamDirectory) Lookup(query string) []commonModels.TeamMember {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]commonModels.TeamMember(nil), d.members...)
	}

	var matches []commonModels.TeamMember
	for _, m := range d.members {
		if strings.Contains(strings.ToLower(m.Name), query) ||
			strings.Contains(strings.ToLower(m.Role), query) ||
			strings.Contains(strings.ToLower(m.Area), query) {
			matches = append(matches, m)
		}
	}
	return matches
}
