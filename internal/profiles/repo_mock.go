package profiles

import (
	"context"
	"sync"
)

type repoMock struct {
	mutex    sync.Mutex
	profiles map[string]*UserProfile
	nextID   int

	// CreateErr, when set, is returned by Create (used to exercise
	// the insert failure paths)
	CreateErr error
	// Creates counts Create calls, successful or not
	Creates int
}

func NewMockProfilesRepo() *repoMock {
	return &repoMock{
		profiles: make(map[string]*UserProfile),
		nextID:   1,
	}
}

func (r *repoMock) Create(_ context.Context, profile UserProfile) (*UserProfile, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Creates++
	if r.CreateErr != nil {
		return nil, r.CreateErr
	}
	if _, ok := r.profiles[profile.UserID]; ok {
		return nil, ErrProfileExists
	}

	profile.ID = r.nextID
	r.nextID++
	r.profiles[profile.UserID] = &profile
	return &profile, nil
}

func (r *repoMock) Update(_ context.Context, profile *UserProfile) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored, ok := r.profiles[profile.UserID]
	if !ok {
		return ErrProfileNotFound
	}
	profile.ID = stored.ID
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *repoMock) GetByUserID(_ context.Context, userID string) (*UserProfile, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (r *repoMock) Delete(_ context.Context, userID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.profiles[userID]; !ok {
		return ErrProfileNotFound
	}
	delete(r.profiles, userID)
	return nil
}
