package workouts

import "time"

const (
	CategoryStrength    = "strength"
	CategoryCardio      = "cardio"
	CategoryFlexibility = "flexibility"
	CategorySport       = "sport"
)

func ValidCategory(category string) bool {
	switch category {
	case CategoryStrength, CategoryCardio, CategoryFlexibility, CategorySport:
		return true
	}
	return false
}

type Workout struct {
	ID              int       `json:"id"`
	UserID          string    `json:"userId"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	DurationMinutes int       `json:"durationMinutes"`
	CaloriesBurned  int       `json:"caloriesBurned"`
	Notes           string    `json:"notes"`
	PerformedAt     time.Time `json:"performedAt"`
	CreatedAt       time.Time `json:"createdAt"`
}
