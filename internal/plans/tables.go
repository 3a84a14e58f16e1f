package plans

import "github.com/fitmate/backend/internal/profiles"

const (
	TrackCardio   = "cardio"
	TrackStrength = "strength"
)

type planKey struct {
	level string
	track string
}

// workoutPlans is the authoritative plan table: 3 levels x 2 tracks.
// The content is fixed editorial data, not computed.
var workoutPlans = map[planKey]WorkoutPlan{
	{profiles.LevelBeginner, TrackStrength}: {
		Level:     profiles.LevelBeginner,
		Track:     TrackStrength,
		Name:      "Bodyweight Foundations",
		Duration:  "4 weeks",
		Frequency: "3x per week",
		Exercises: []PlanExercise{
			{Name: "Bodyweight Squat", Sets: 3, Reps: "10-12", Rest: "60s"},
			{Name: "Incline Push-Up", Sets: 3, Reps: "8-10", Rest: "60s"},
			{Name: "Glute Bridge", Sets: 3, Reps: "12-15", Rest: "45s"},
			{Name: "Plank", Sets: 3, Reps: "20-30s", Rest: "45s"},
			{Name: "Bird Dog", Sets: 3, Reps: "8 per side", Rest: "45s"},
		},
	},
	{profiles.LevelBeginner, TrackCardio}: {
		Level:     profiles.LevelBeginner,
		Track:     TrackCardio,
		Name:      "Easy Pace Starter",
		Duration:  "4 weeks",
		Frequency: "3x per week",
		Exercises: []PlanExercise{
			{Name: "Brisk Walk", Sets: 1, Reps: "20-25 min", Rest: "none"},
			{Name: "Jumping Jacks", Sets: 3, Reps: "30s", Rest: "60s"},
			{Name: "Step-Up", Sets: 3, Reps: "10 per leg", Rest: "60s"},
			{Name: "High Knees March", Sets: 3, Reps: "30s", Rest: "60s"},
		},
	},
	{profiles.LevelIntermediate, TrackStrength}: {
		Level:     profiles.LevelIntermediate,
		Track:     TrackStrength,
		Name:      "Dumbbell Builder",
		Duration:  "6 weeks",
		Frequency: "4x per week",
		Exercises: []PlanExercise{
			{Name: "Goblet Squat", Sets: 4, Reps: "8-10", Rest: "90s"},
			{Name: "Dumbbell Bench Press", Sets: 4, Reps: "8-10", Rest: "90s"},
			{Name: "One-Arm Dumbbell Row", Sets: 3, Reps: "10-12", Rest: "75s"},
			{Name: "Romanian Deadlift", Sets: 3, Reps: "10-12", Rest: "90s"},
			{Name: "Dumbbell Shoulder Press", Sets: 3, Reps: "8-10", Rest: "75s"},
			{Name: "Hanging Knee Raise", Sets: 3, Reps: "10-15", Rest: "60s"},
		},
	},
	{profiles.LevelIntermediate, TrackCardio}: {
		Level:     profiles.LevelIntermediate,
		Track:     TrackCardio,
		Name:      "Tempo Intervals",
		Duration:  "6 weeks",
		Frequency: "4x per week",
		Exercises: []PlanExercise{
			{Name: "Warm-Up Jog", Sets: 1, Reps: "10 min", Rest: "none"},
			{Name: "Run Interval", Sets: 6, Reps: "2 min hard / 1 min easy", Rest: "none"},
			{Name: "Burpees", Sets: 3, Reps: "10-12", Rest: "75s"},
			{Name: "Mountain Climbers", Sets: 3, Reps: "30-45s", Rest: "60s"},
			{Name: "Cooldown Walk", Sets: 1, Reps: "5 min", Rest: "none"},
		},
	},
	{profiles.LevelAdvanced, TrackStrength}: {
		Level:     profiles.LevelAdvanced,
		Track:     TrackStrength,
		Name:      "Barbell Strength Block",
		Duration:  "8 weeks",
		Frequency: "5x per week",
		Exercises: []PlanExercise{
			{Name: "Back Squat", Sets: 5, Reps: "5", Rest: "180s"},
			{Name: "Deadlift", Sets: 3, Reps: "5", Rest: "180s"},
			{Name: "Bench Press", Sets: 5, Reps: "5", Rest: "150s"},
			{Name: "Overhead Press", Sets: 4, Reps: "6-8", Rest: "120s"},
			{Name: "Barbell Row", Sets: 4, Reps: "6-8", Rest: "120s"},
			{Name: "Weighted Pull-Up", Sets: 4, Reps: "6-8", Rest: "120s"},
		},
	},
	{profiles.LevelAdvanced, TrackCardio}: {
		Level:     profiles.LevelAdvanced,
		Track:     TrackCardio,
		Name:      "HIIT Engine",
		Duration:  "8 weeks",
		Frequency: "5x per week",
		Exercises: []PlanExercise{
			{Name: "Sprint Interval", Sets: 8, Reps: "30s all-out / 90s easy", Rest: "none"},
			{Name: "Kettlebell Swing", Sets: 5, Reps: "15-20", Rest: "60s"},
			{Name: "Box Jump", Sets: 4, Reps: "8-10", Rest: "90s"},
			{Name: "Rowing Machine", Sets: 4, Reps: "500m", Rest: "90s"},
			{Name: "Jump Rope", Sets: 4, Reps: "45s", Rest: "60s"},
		},
	},
}

// sampleMealPlan and dietTips ship verbatim with every diet plan,
// independent of the profile.
var sampleMealPlan = MealSuggestions{
	Breakfast: []string{
		"Oatmeal with berries and a spoonful of peanut butter",
		"Greek yogurt with honey and walnuts",
		"Veggie omelette with whole-grain toast",
	},
	Lunch: []string{
		"Grilled chicken with quinoa and roasted vegetables",
		"Lentil soup with a side salad",
		"Tuna wrap with mixed greens",
	},
	Dinner: []string{
		"Baked salmon with sweet potato and broccoli",
		"Turkey chili with brown rice",
		"Stir-fried tofu with vegetables and noodles",
	},
	Snacks: []string{
		"Apple with almond butter",
		"Carrot sticks and hummus",
		"A handful of mixed nuts",
		"Cottage cheese with pineapple",
	},
}

var dietTips = []string{
	"Drink a glass of water before every meal.",
	"Prep meals ahead to avoid impulsive choices.",
	"Aim for a source of protein in every meal.",
	"Fill half your plate with vegetables.",
	"Keep healthy snacks visible and junk food out of sight.",
}
