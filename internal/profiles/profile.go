package profiles

import "time"

// UserProfile is keyed by the opaque user ID issued by the auth service.
// Tokens are minted there; this service only resolves them to a user ID.
type UserProfile struct {
	ID                  int       `json:"id"`
	UserID              string    `json:"userId"`
	Age                 int       `json:"age"`
	Gender              string    `json:"gender"`
	HeightCM            float64   `json:"heightCm"`
	WeightKG            float64   `json:"weightKg"`
	FitnessLevel        string    `json:"fitnessLevel"`
	Goals               []string  `json:"goals"`
	ActivityLevel       string    `json:"activityLevel"`
	Equipment           []string  `json:"equipment"`
	DietaryRestrictions []string  `json:"dietaryRestrictions"`
	DietPreferences     string    `json:"dietPreferences"`
	OnboardingComplete  bool      `json:"onboardingComplete"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"

	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"

	ActivitySedentary  = "sedentary"
	ActivityLight      = "light"
	ActivityModerate   = "moderate"
	ActivityActive     = "active"
	ActivityVeryActive = "very_active"

	GoalWeightLoss     = "weight_loss"
	GoalMuscleGain     = "muscle_gain"
	GoalEndurance      = "endurance"
	GoalGeneralFitness = "general_fitness"
	GoalFlexibility    = "flexibility"
)

var ValidGenders = map[string]bool{
	GenderMale:   true,
	GenderFemale: true,
	GenderOther:  true,
}

var ValidFitnessLevels = map[string]bool{
	LevelBeginner:     true,
	LevelIntermediate: true,
	LevelAdvanced:     true,
}

var ValidActivityLevels = map[string]bool{
	ActivitySedentary:  true,
	ActivityLight:      true,
	ActivityModerate:   true,
	ActivityActive:     true,
	ActivityVeryActive: true,
}

var ValidGoals = map[string]bool{
	GoalWeightLoss:     true,
	GoalMuscleGain:     true,
	GoalEndurance:      true,
	GoalGeneralFitness: true,
	GoalFlexibility:    true,
}

// Validate checks only the fields that are actually set. Absent or zero
// values are allowed and flow as-is into plan generation, which has its
// own silent defaults.
func (p *UserProfile) Validate() string {
	if p.Age < 0 {
		return "age cannot be negative"
	}
	if p.HeightCM < 0 {
		return "height cannot be negative"
	}
	if p.WeightKG < 0 {
		return "weight cannot be negative"
	}
	if p.Gender != "" && !ValidGenders[p.Gender] {
		return "unknown gender"
	}
	if p.FitnessLevel != "" && !ValidFitnessLevels[p.FitnessLevel] {
		return "unknown fitness level"
	}
	if p.ActivityLevel != "" && !ValidActivityLevels[p.ActivityLevel] {
		return "unknown activity level"
	}
	for _, goal := range p.Goals {
		if !ValidGoals[goal] {
			return "unknown goal: " + goal
		}
	}
	return ""
}

// HasGoal reports whether the profile contains the given goal.
func (p *UserProfile) HasGoal(goal string) bool {
	for _, g := range p.Goals {
		if g == goal {
			return true
		}
	}
	return false
}
