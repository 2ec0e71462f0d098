package admins

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/nowestinterior/backend/pkg"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidCredentials covers both unknown username and wrong password, so
// that callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	adminCacheSize       = 512 * 1024 // bytes
	adminCacheTTLSeconds = 60
)

// Service authenticates admins against persisted records and manages their
// creation. Passwords are stored as bcrypt hashes, never in plaintext.
type Service struct {
	repo  Api
	cache *freecache.Cache
}

func NewService(repo Api) *Service {
	return &Service{
		repo:  repo,
		cache: freecache.NewCache(adminCacheSize),
	}
}

// Authenticate looks the admin up by username and verifies the password
// against the stored hash. Unknown username and wrong password are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Admin, error) {
	admin, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !pkg.CheckPasswordHash(password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return admin, nil
}

// GetByID fetches an admin, read-through cached (the /me endpoint hits this
// on every authenticated page load).
func (s *Service) GetByID(ctx context.Context, id int) (*Admin, error) {
	cacheKey := []byte(strconv.Itoa(id))
	if cached, err := s.cache.Get(cacheKey); err == nil {
		var admin Admin
		if err := json.Unmarshal(cached, &admin); err == nil {
			return &admin, nil
		}
		log.Errorf("admins service, unmarshal cached admin %d failed, fetching from db", id)
	}

	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if adminBytes, err := json.Marshal(admin); err == nil {
		if err := s.cache.Set(cacheKey, adminBytes, adminCacheTTLSeconds); err != nil {
			log.Errorf("admins service, cache admin %d: %s", id, err)
		}
	}

	return admin, nil
}

// CreateAdmin hashes the password and persists a new admin record. Fails
// with ErrUsernameTaken on a username collision.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*Admin, error) {
	if username == "" || password == "" {
		return nil, errors.New("username or password empty")
	}

	passwordHash, err := pkg.HashPassword(password)
	if err != nil {
		return nil, err
	}

	admin, err := s.repo.Insert(ctx, username, passwordHash)
	if err != nil {
		return nil, err
	}

	log.Printf("new admin created: [%s]: %d", admin.Username, admin.ID)
	return admin, nil
}

// EnsureDefaultAdmin is the idempotent bootstrap called once at startup: it
// creates the default admin account unless one already exists.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		log.Debugf("default admin [%s] already exists", username)
		return nil
	} else if !errors.Is(err, ErrAdminNotFound) {
		return err
	}

	if password == "" {
		return errors.New("default admin password not set, cannot create default admin")
	}

	admin, err := s.CreateAdmin(ctx, username, password)
	if err != nil {
		return err
	}

	log.Warnf("default admin [%s] created with id %d, change the default password after first login", admin.Username, admin.ID)
	return nil
}
