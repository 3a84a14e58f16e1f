package meals

import "time"

const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
	SlotSnack     = "snack"
)

func ValidSlot(slot string) bool {
	switch slot {
	case SlotBreakfast, SlotLunch, SlotDinner, SlotSnack:
		return true
	}
	return false
}

type Meal struct {
	ID          int       `json:"id"`
	UserID      string    `json:"userId"`
	Slot        string    `json:"slot"`
	Description string    `json:"description"`
	Calories    int       `json:"calories"`
	ProteinG    int       `json:"proteinG"`
	CarbsG      int       `json:"carbsG"`
	FatsG       int       `json:"fatsG"`
	EatenAt     time.Time `json:"eatenAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DailyTotals sums up everything a user ate on a single day.
type DailyTotals struct {
	Day      string `json:"day"`
	Meals    int    `json:"meals"`
	Calories int    `json:"calories"`
	ProteinG int    `json:"proteinG"`
	CarbsG   int    `json:"carbsG"`
	FatsG    int    `json:"fatsG"`
}
