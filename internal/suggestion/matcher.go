package suggestion

import (
	"strings"
	"time"

	"github.com/dukerupert/homehq/internal/family"
	"github.com/dukerupert/homehq/internal/model"
)

// Suggestion is a proposed follow-up task. It is never persisted as its own
// entity; accepted ones become task rows.
type Suggestion struct {
	SuggestionID string    `json:"suggestion_id"`
	Title        string    `json:"title"`
	DueDate      time.Time `json:"due_date"`
	Description  string    `json:"description"`
	Accepted     bool      `json:"accepted"`
}

// Match returns every template suggestion matching the event title, in
// catalog order. It is deterministic and side-effect-free.
//
// Matching is a loose case-insensitive substring test with no word-boundary
// check; "urodziny" matches inside longer compound words too. That is
// intentional: the existing bilingual keyword lists depend on it.
//
// attendees are the event's resolved participants; children is the family's
// full set of account-less child members, which only the babysitter rule
// consults. Due dates are calendar-day subtraction from the start time and
// may land in the past; callers decide what to do with those.
func (c *Catalog) Match(title string, startTime time.Time, attendees []family.Participant, children []model.FamilyMember, requesterRole string) []Suggestion {
	normalized := normalizeTitle(title)

	var suggestions []Suggestion
	for _, t := range c.templates {
		if t.AdminOnly && requesterRole != model.RoleAdmin {
			continue
		}
		if !matchesAny(normalized, t.Keywords) {
			continue
		}
		if t.Babysitter && !babysitterApplies(attendees, children) {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			SuggestionID: t.ID,
			Title:        t.Title,
			DueDate:      startTime.AddDate(0, 0, -t.DaysBefore),
			Description:  t.Description,
		})
	}
	return suggestions
}

// normalizeTitle lowercases, collapses internal whitespace and trims.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

func matchesAny(normalizedTitle string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(normalizedTitle, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// babysitterApplies fires only when the family has at least one child member
// staying home and at least one adult is attending. A family with no child
// members never gets the suggestion.
func babysitterApplies(attendees []family.Participant, children []model.FamilyMember) bool {
	if len(children) == 0 {
		return false
	}

	attendingMembers := make(map[int64]bool)
	adultAttending := false
	for _, p := range attendees {
		switch p.Kind {
		case family.KindAccount:
			if p.Role == model.RoleAdmin {
				adultAttending = true
			}
		case family.KindMember:
			attendingMembers[p.ID] = true
			if p.IsAdult {
				adultAttending = true
			}
		}
	}
	if !adultAttending {
		return false
	}

	for _, child := range children {
		if !attendingMembers[child.ID] {
			return true
		}
	}
	return false
}
