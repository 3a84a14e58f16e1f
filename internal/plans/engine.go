package plans

import (
	"math"

	"github.com/fitmate/backend/internal/profiles"
)

type PlanExercise struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps string `json:"reps"`
	Rest string `json:"rest"`
}

type WorkoutPlan struct {
	Level     string         `json:"level"`
	Track     string         `json:"track"`
	Name      string         `json:"name"`
	Duration  string         `json:"duration"`
	Frequency string         `json:"frequency"`
	Exercises []PlanExercise `json:"exercises"`
}

type Macros struct {
	ProteinG int `json:"proteinG"`
	CarbsG   int `json:"carbsG"`
	FatsG    int `json:"fatsG"`
}

type MealSuggestions struct {
	Breakfast []string `json:"breakfast"`
	Lunch     []string `json:"lunch"`
	Dinner    []string `json:"dinner"`
	Snacks    []string `json:"snacks"`
}

type DietPlan struct {
	BMR      float64         `json:"bmr"`
	Calories int             `json:"calories"`
	Macros   Macros          `json:"macros"`
	Meals    MealSuggestions `json:"meals"`
	Tips     []string        `json:"tips"`
}

const defaultActivityMultiplier = 1.375

var activityMultipliers = map[string]float64{
	profiles.ActivitySedentary:  1.2,
	profiles.ActivityLight:      1.375,
	profiles.ActivityModerate:   1.55,
	profiles.ActivityActive:     1.725,
	profiles.ActivityVeryActive: 1.9,
}

// GenerateWorkoutPlan picks the plan for the profile's fitness level.
// Goals containing weight_loss select the cardio track, anything else the
// strength track. Unknown levels fall back to the beginner strength plan;
// this is a silent default and can never fail.
func GenerateWorkoutPlan(profile profiles.UserProfile) WorkoutPlan {
	track := TrackStrength
	if profile.HasGoal(profiles.GoalWeightLoss) {
		track = TrackCardio
	}

	plan, ok := workoutPlans[planKey{level: profile.FitnessLevel, track: track}]
	if !ok {
		plan = workoutPlans[planKey{level: profiles.LevelBeginner, track: TrackStrength}]
	}
	return plan
}

// GenerateDietPlan computes daily calories and macros for the profile.
// Pure function of its input; it performs no validation, so missing
// numeric fields flow through the formula as zeros.
func GenerateDietPlan(profile profiles.UserProfile) DietPlan {
	bmr := basalMetabolicRate(profile)

	multiplier, ok := activityMultipliers[profile.ActivityLevel]
	if !ok {
		multiplier = defaultActivityMultiplier
	}
	calories := int(math.Round(bmr * multiplier))

	// first match wins: the deficit beats the surplus when both goals are set
	switch {
	case profile.HasGoal(profiles.GoalWeightLoss):
		calories = int(math.Round(float64(calories) * 0.8))
	case profile.HasGoal(profiles.GoalMuscleGain):
		calories = int(math.Round(float64(calories) * 1.1))
	}

	return DietPlan{
		BMR:      bmr,
		Calories: calories,
		Macros: Macros{
			ProteinG: int(math.Round(float64(calories) * 0.30 / 4)),
			CarbsG:   int(math.Round(float64(calories) * 0.40 / 4)),
			FatsG:    int(math.Round(float64(calories) * 0.30 / 9)),
		},
		Meals: sampleMealPlan,
		Tips:  dietTips,
	}
}

// basalMetabolicRate is the Mifflin-St Jeor estimate. An empty gender
// uses the male constant; any non-male value uses the female constant.
func basalMetabolicRate(profile profiles.UserProfile) float64 {
	base := 10*profile.WeightKG + 6.25*profile.HeightCM - 5*float64(profile.Age)
	if profile.Gender == "" || profile.Gender == profiles.GenderMale {
		return base + 5
	}
	return base - 161
}
