package admins

import (
	"context"
	"sync"
	"time"
)

type repoMock struct {
	mutex  sync.Mutex
	nextID int
	admins map[int]*Admin
}

func NewMockAdminsRepo() *repoMock {
	return &repoMock{
		nextID: 1,
		admins: make(map[int]*Admin),
	}
}

func (r *repoMock) GetByUsername(_ context.Context, username string) (*Admin, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, admin := range r.admins {
		if admin.Username == username {
			adminCopy := *admin
			return &adminCopy, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (r *repoMock) GetByID(_ context.Context, id int) (*Admin, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}
	adminCopy := *admin
	return &adminCopy, nil
}

func (r *repoMock) Insert(_ context.Context, username, passwordHash string) (*Admin, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, admin := range r.admins {
		if admin.Username == username {
			return nil, ErrUsernameTaken
		}
	}

	admin := &Admin{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.admins[admin.ID] = admin
	r.nextID++

	adminCopy := *admin
	return &adminCopy, nil
}

func (r *repoMock) remove(id int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.admins, id)
}
