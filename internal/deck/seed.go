package deck

import (
	"time"

	"github.com/hpungsan/medmastery/internal/srs"
)

// SeedCard is immutable starter content; scheduling state is added by Seed.
type SeedCard struct {
	ID         string
	Front      string
	Back       string
	Category   string
	Difficulty string
}

// DefaultSeed is the deck a first-time user starts with.
var DefaultSeed = []SeedCard{
	{ID: "FC-1", Front: "CURB-65 Criteria", Back: "Confusion, Urea (>7mmol/L), RR (>30), BP (<90/60), Age 65.", Category: "Medicine", Difficulty: "Easy"},
	{ID: "FC-2", Front: "GCS Components", Back: "Eye (4), Verbal (5), Motor (6). Min 3, Max 15.", Category: "Trauma", Difficulty: "Medium"},
	{ID: "FC-3", Front: "Charcot Triad (Cholangitis)", Back: "Jaundice, Fever, RUQ Pain.", Category: "Surgery", Difficulty: "Easy"},
	{ID: "FC-4", Front: "Beck Triad (Cardiac Tamponade)", Back: "Hypotension, distended neck veins, muffled heart sounds.", Category: "Trauma", Difficulty: "Easy"},
	{ID: "FC-5", Front: "Virchow Triad", Back: "Venous stasis, endothelial injury, hypercoagulability.", Category: "Medicine", Difficulty: "Easy"},
	{ID: "FC-6", Front: "Cushing Triad (Raised ICP)", Back: "Hypertension with widened pulse pressure, bradycardia, irregular respiration.", Category: "Surgery", Difficulty: "Medium"},
	{ID: "FC-7", Front: "APGAR Components", Back: "Appearance, Pulse, Grimace, Activity, Respiration. Each 0-2, scored at 1 and 5 minutes.", Category: "Pediatrics", Difficulty: "Easy"},
	{ID: "FC-8", Front: "Parkland Formula", Back: "4 mL x weight (kg) x %TBSA over 24h; half in the first 8h from time of burn.", Category: "Trauma", Difficulty: "Medium"},
}

// Seed materializes seed content as new cards due at now.
func Seed(seed []SeedCard, now time.Time) []Card {
	cards := make([]Card, 0, len(seed))
	for _, s := range seed {
		cards = append(cards, Card{
			ID:         s.ID,
			Front:      s.Front,
			Back:       s.Back,
			Category:   s.Category,
			Difficulty: s.Difficulty,
			State:      srs.NewState(now),
		})
	}
	return cards
}
