// Package suggestion proposes follow-up tasks for a calendar event based on
// keyword rules. The catalog mixes Polish and English keywords on purpose;
// the households using this run bilingual.
package suggestion

// Template is a static rule mapping title keywords to a candidate task.
type Template struct {
	ID          string
	Keywords    []string
	Title       string
	DaysBefore  int
	Description string
	AdminOnly   bool
	Babysitter  bool
}

// Catalog is an immutable set of templates, fixed at construction and never
// mutated at runtime.
type Catalog struct {
	templates []Template
	byID      map[string]Template
}

func NewCatalog(templates []Template) *Catalog {
	byID := make(map[string]Template, len(templates))
	for _, t := range templates {
		byID[t.ID] = t
	}
	return &Catalog{templates: templates, byID: byID}
}

// Contains reports whether id names a known template. Input validation at
// the boundary uses this instead of a separate enum.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Templates returns the rule set in catalog order.
func (c *Catalog) Templates() []Template {
	return c.templates
}

// DefaultCatalog returns the built-in rule set. Adding a rule means
// appending an entry here; nothing else needs to change.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Template{
		{
			ID:          "birthday_gift",
			Keywords:    []string{"urodziny", "birthday"},
			Title:       "Buy a birthday gift",
			DaysBefore:  3,
			Description: "Pick out and wrap a present before the party.",
		},
		{
			ID:          "school_performance",
			Keywords:    []string{"jasełka", "przedstawienie", "school play", "recital", "nativity"},
			Title:       "Prepare the performance outfit",
			DaysBefore:  7,
			Description: "Check the costume list from school and get everything ready.",
		},
		{
			ID:          "doctor_visit",
			Keywords:    []string{"doctor", "lekarz", "dentist", "dentysta", "wizyta", "appointment"},
			Title:       "Gather medical records",
			DaysBefore:  1,
			Description: "Collect referral, test results and the insurance card.",
		},
		{
			ID:          "trip_packing",
			Keywords:    []string{"trip", "wyjazd", "wakacje", "vacation", "holiday"},
			Title:       "Pack the bags",
			DaysBefore:  2,
			Description: "Make a packing list and get the luggage ready.",
		},
		{
			ID:          "guest_prep",
			Keywords:    []string{"guests", "goście", "imieniny", "dinner party"},
			Title:       "Plan the menu and shop",
			DaysBefore:  2,
			Description: "Decide what to serve and buy the groceries.",
		},
		{
			ID:          "tuition_payment",
			Keywords:    []string{"tuition", "czesne", "opłata", "fees"},
			Title:       "Schedule the payment",
			DaysBefore:  5,
			Description: "Make the transfer before the due date.",
			AdminOnly:   true,
		},
		{
			ID:          "needs_babysitter",
			Keywords:    []string{"date night", "randka", "kino", "cinema", "concert", "koncert", "wesele", "wedding"},
			Title:       "Arrange a babysitter",
			DaysBefore:  3,
			Description: "Someone needs to stay with the kids that evening.",
			Babysitter:  true,
		},
	})
}
