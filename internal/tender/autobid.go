package tender

import (
	"fmt"
	"math"
)

// professionFactors drives deterministic agent pricing: the proposed
// amount is budget * factor, floored at 100.
var professionFactors = map[string]float64{
	"Software Developer": 0.85,
	"Designer":           0.80,
	"Engineer":           0.90,
	"Marketer":           0.75,
	"Data Scientist":     0.88,
	"Translator":         0.70,
	"Writer":             0.68,
	"Consultant":         0.92,
}

const defaultFactor = 0.80

// Professions lists the profession categories with an automated agent.
func Professions() []string {
	return []string{
		"Software Developer", "Designer", "Engineer", "Marketer",
		"Data Scientist", "Translator", "Writer", "Consultant",
	}
}

// agentBid derives a deterministic bid for a profession against a tender.
func agentBid(profession string, t Tender) (name string, amount float64, message string) {
	factor, ok := professionFactors[profession]
	if !ok {
		factor = defaultFactor
	}
	budget := t.Budget
	if budget <= 0 {
		budget = 1000
	}
	amount = math.Round(budget*factor*100) / 100
	if amount < 100 {
		amount = 100
	}
	name = profession + " Agent"
	message = fmt.Sprintf("Professional %s agent proposes %v based on scope and deadline %s.", profession, amount, t.Deadline)
	return name, amount, message
}
