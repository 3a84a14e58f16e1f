package onboarding

import (
	"fmt"
	"math"
	"strings"

	"github.com/fitmate/backend/internal/profiles"
)

type InputKind string

const (
	InputFreeText     InputKind = "free_text"
	InputNumericPair  InputKind = "numeric_pair"
	InputSingleSelect InputKind = "single_select"
	InputMultiSelect  InputKind = "multi_select"
)

const (
	UnitsMetric   = "metric"
	UnitsImperial = "imperial"

	feetToCM    = 30.48
	poundsToKG  = 0.453592
	minHeightCM = 100
	maxHeightCM = 250
	minWeightKG = 30
	maxWeightKG = 250

	minDietPreferencesLen = 10
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Step is immutable configuration: the fixed question sequence is
// recreated per session, never persisted.
type Step struct {
	ID       string    `json:"id"`
	Question string    `json:"question"`
	Kind     InputKind `json:"kind"`
	Options  []Option  `json:"options,omitempty"`
}

// Submission carries the answer for the active step. Which fields are
// read depends on the step's input kind.
type Submission struct {
	Height float64  `json:"height,omitempty"`
	Weight float64  `json:"weight,omitempty"`
	Units  string   `json:"units,omitempty"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// steps is the authoritative order; no branching or skipping.
var steps = []Step{
	{
		ID:       "body_metrics",
		Question: "First things first: how tall are you and how much do you weigh? You can answer in metric (cm/kg) or imperial (ft/lb).",
		Kind:     InputNumericPair,
	},
	{
		ID:       "activity_level",
		Question: "How active are you on a typical week?",
		Kind:     InputSingleSelect,
		Options: []Option{
			{Value: profiles.ActivitySedentary, Label: "Mostly sitting (little or no exercise)"},
			{Value: profiles.ActivityLight, Label: "Lightly active (1-3 workouts per week)"},
			{Value: profiles.ActivityModerate, Label: "Moderately active (3-5 workouts per week)"},
			{Value: profiles.ActivityActive, Label: "Active (6-7 workouts per week)"},
			{Value: profiles.ActivityVeryActive, Label: "Very active (hard training or a physical job)"},
		},
	},
	{
		ID:       "diet_preferences",
		Question: "Tell me a bit about how you like to eat: favorite foods, meal habits, anything goes.",
		Kind:     InputFreeText,
	},
	{
		ID:       "equipment",
		Question: "What training equipment do you have access to? Pick all that apply.",
		Kind:     InputMultiSelect,
		Options: []Option{
			{Value: "none", Label: "None / bodyweight only"},
			{Value: "dumbbells", Label: "Dumbbells"},
			{Value: "resistance_bands", Label: "Resistance bands"},
			{Value: "kettlebell", Label: "Kettlebell"},
			{Value: "barbell", Label: "Barbell and plates"},
			{Value: "pull_up_bar", Label: "Pull-up bar"},
			{Value: "gym", Label: "Full gym membership"},
		},
	},
	{
		ID:       "dietary_restrictions",
		Question: "Any dietary restrictions I should know about? Pick all that apply.",
		Kind:     InputMultiSelect,
		Options: []Option{
			{Value: "none", Label: "None"},
			{Value: "vegetarian", Label: "Vegetarian"},
			{Value: "vegan", Label: "Vegan"},
			{Value: "gluten_free", Label: "Gluten-free"},
			{Value: "lactose_free", Label: "Lactose-free"},
			{Value: "nut_allergy", Label: "Nut allergy"},
			{Value: "halal", Label: "Halal"},
			{Value: "kosher", Label: "Kosher"},
		},
	},
}

func (s Step) optionLabel(value string) (string, bool) {
	for _, opt := range s.Options {
		if opt.Value == value {
			return opt.Label, true
		}
	}
	return "", false
}

// validate checks the submission against the step's input kind. A non-empty
// return value is the user-facing rejection message; the caller must not
// mutate any session state when one is returned.
func (s Step) validate(submission Submission) string {
	switch s.Kind {
	case InputNumericPair:
		return s.validateBodyMetrics(submission)
	case InputSingleSelect:
		if _, ok := s.optionLabel(submission.Value); !ok {
			return "please pick one of the offered options"
		}
	case InputFreeText:
		if len(strings.TrimSpace(submission.Value)) < minDietPreferencesLen {
			return fmt.Sprintf("please tell me a bit more (at least %d characters)", minDietPreferencesLen)
		}
	case InputMultiSelect:
		if len(submission.Values) == 0 {
			return "please pick at least one option"
		}
		for _, value := range submission.Values {
			if _, ok := s.optionLabel(value); !ok {
				return "please pick only from the offered options"
			}
		}
	}
	return ""
}

func (s Step) validateBodyMetrics(submission Submission) string {
	height, weight, validationMsg := normalizeBodyMetrics(submission)
	if validationMsg != "" {
		return validationMsg
	}
	if height < minHeightCM || height > maxHeightCM {
		return fmt.Sprintf("height should be between %d and %d cm", minHeightCM, maxHeightCM)
	}
	if weight < minWeightKG || weight > maxWeightKG {
		return fmt.Sprintf("weight should be between %d and %d kg", minWeightKG, maxWeightKG)
	}
	return ""
}

// normalizeBodyMetrics converts imperial submissions to metric. Converted
// values are rounded before the range checks; metric values pass through
// as given.
func normalizeBodyMetrics(submission Submission) (heightCM, weightKG float64, validationMsg string) {
	switch submission.Units {
	case UnitsImperial:
		return math.Round(submission.Height * feetToCM), math.Round(submission.Weight * poundsToKG), ""
	case UnitsMetric, "":
		return submission.Height, submission.Weight, ""
	default:
		return 0, 0, "units should be either metric or imperial"
	}
}

// render produces the user transcript entry for a valid submission:
// labels joined with a comma for multi-select, the resolved label for
// single-select, a formatted summary for the numeric pair, the raw text
// otherwise.
func (s Step) render(submission Submission) string {
	switch s.Kind {
	case InputNumericPair:
		height, weight, _ := normalizeBodyMetrics(submission)
		return fmt.Sprintf("Height: %g cm, Weight: %g kg", height, weight)
	case InputSingleSelect:
		label, _ := s.optionLabel(submission.Value)
		return label
	case InputMultiSelect:
		labels := make([]string, 0, len(submission.Values))
		for _, value := range submission.Values {
			label, _ := s.optionLabel(value)
			labels = append(labels, label)
		}
		return strings.Join(labels, ", ")
	default:
		return submission.Value
	}
}

// merge folds the validated submission into the draft profile.
func (s Step) merge(submission Submission, draft *profiles.UserProfile) {
	switch s.ID {
	case "body_metrics":
		height, weight, _ := normalizeBodyMetrics(submission)
		draft.HeightCM = height
		draft.WeightKG = weight
	case "activity_level":
		draft.ActivityLevel = submission.Value
	case "diet_preferences":
		draft.DietPreferences = strings.TrimSpace(submission.Value)
	case "equipment":
		draft.Equipment = append([]string{}, submission.Values...)
	case "dietary_restrictions":
		draft.DietaryRestrictions = append([]string{}, submission.Values...)
	}
}
