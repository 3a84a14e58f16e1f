package meals

import (
	"context"
	"sort"
	"time"
)

type repoMock struct {
	meals  map[int]*Meal
	nextID int
}

func NewMockMealsRepo() *repoMock {
	return &repoMock{
		meals:  make(map[int]*Meal),
		nextID: 1,
	}
}

func (r *repoMock) Add(_ context.Context, meal Meal) (*Meal, error) {
	meal.ID = r.nextID
	r.nextID++
	r.meals[meal.ID] = &meal
	return &meal, nil
}

func (r *repoMock) Get(_ context.Context, id int, userID string) (*Meal, error) {
	meal, ok := r.meals[id]
	if !ok || meal.UserID != userID {
		return nil, ErrMealNotFound
	}
	return meal, nil
}

func (r *repoMock) List(_ context.Context, params ListParams) ([]Meal, int, error) {
	var listed []Meal
	for _, meal := range r.meals {
		if meal.UserID != params.UserID {
			continue
		}
		if params.Slot != "" && meal.Slot != params.Slot {
			continue
		}
		listed = append(listed, *meal)
	}
	sort.Slice(listed, func(i, j int) bool {
		return listed[i].EatenAt.After(listed[j].EatenAt)
	})

	total := len(listed)
	from := (params.Page - 1) * params.Size
	if from > total {
		from = total
	}
	to := from + params.Size
	if to > total {
		to = total
	}
	return listed[from:to], total, nil
}

func (r *repoMock) Update(ctx context.Context, meal *Meal) error {
	if _, err := r.Get(ctx, meal.ID, meal.UserID); err != nil {
		return err
	}
	r.meals[meal.ID] = meal
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int, userID string) error {
	meal, ok := r.meals[id]
	if !ok || meal.UserID != userID {
		return ErrMealNotFound
	}
	delete(r.meals, id)
	return nil
}

func (r *repoMock) Count(_ context.Context, params MealParams) (int, error) {
	count := 0
	for _, meal := range r.meals {
		if meal.UserID != params.UserID {
			continue
		}
		if params.Slot != "" && meal.Slot != params.Slot {
			continue
		}
		count++
	}
	return count, nil
}

func (r *repoMock) GetDailyTotals(_ context.Context, userID string, day time.Time) (*DailyTotals, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	totals := &DailyTotals{
		Day: dayStart.Format("2006-01-02"),
	}
	for _, meal := range r.meals {
		if meal.UserID != userID {
			continue
		}
		if meal.EatenAt.Before(dayStart) || !meal.EatenAt.Before(dayEnd) {
			continue
		}
		totals.Meals++
		totals.Calories += meal.Calories
		totals.ProteinG += meal.ProteinG
		totals.CarbsG += meal.CarbsG
		totals.FatsG += meal.FatsG
	}
	return totals, nil
}
