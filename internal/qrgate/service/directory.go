package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/qrgate/internal/clock"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

// maxQRAttempts bounds how many proposals are drawn before giving up on a
// colliding issuer.
const maxQRAttempts = 16

var errQRExhausted = errors.New("qr issuer kept returning codes already in use")

// SeedUsers is the roster written when the users collection has never been
// persisted.
func SeedUsers() []types.User {
	return []types.User{
		{ID: "1", Email: "admin@sistema.com", Name: "Administrador Principal", Role: types.RoleAdmin},
		{ID: "2", Email: "guarda@sistema.com", Name: "Juan Pérez", Role: types.RoleGuard},
		{ID: "3", Email: "estudiante1@sena.edu.co", Name: "María García", Role: types.RoleStudent, QRCode: "QR-STUDENT-001"},
		{ID: "4", Email: "estudiante2@sena.edu.co", Name: "Carlos Rodríguez", Role: types.RoleStudent, QRCode: "QR-STUDENT-002"},
	}
}

// Directory is the station's snapshot of the users collection. Every
// mutation re-reads the collection, applies the change, saves the whole
// roster and only then replaces the snapshot.
type Directory struct {
	store  store.Store
	clock  clock.Clock
	ids    IDGenerator
	qr     QRIssuer
	logger zerolog.Logger

	mu    sync.RWMutex
	users []types.User
}

func NewDirectory(s store.Store, clk clock.Clock, ids IDGenerator, qr QRIssuer, logger zerolog.Logger) *Directory {
	return &Directory{
		store:  s,
		clock:  clk,
		ids:    ids,
		qr:     qr,
		logger: logger.With().Str("component", "directory").Logger(),
	}
}

// Load reads the roster, seeding the default users when the collection is
// absent. An empty persisted roster is kept as is.
func (d *Directory) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	users, found, err := store.LoadRecords[types.User](ctx, d.store, store.Users)
	if err != nil {
		return fmt.Errorf("Directory.Load: %w", err)
	}
	if !found {
		users = SeedUsers()
		now := d.clock.Now()
		for i := range users {
			users[i].CreatedAt = now
		}
		if err := store.SaveRecords(ctx, d.store, store.Users, users); err != nil {
			return persistFailure("Directory.Load", err)
		}
		d.logger.Info().Int("users", len(users)).Msg("seeded default roster")
	}

	d.users = users
	return nil
}

// Refresh picks up writes made by other stations.
func (d *Directory) Refresh(ctx context.Context) error {
	return d.Load(ctx)
}

// List returns a copy of the roster in stored order.
func (d *Directory) List() []types.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.users)
}

// FindByLogin matches the trimmed identifier against email, ignoring case.
func (d *Directory) FindByLogin(email string) (types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return types.User{}, ErrEmailRequired
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return types.User{}, ErrNotFound
}

// FindByQRCode is an exact match; only students carry codes.
func (d *Directory) FindByQRCode(code string) (types.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Role == types.RoleStudent && u.QRCode != "" && u.QRCode == code {
			return u, nil
		}
	}
	return types.User{}, ErrNotFound
}

func (d *Directory) FindByID(id string) (types.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := indexOf(d.users, id); i >= 0 {
		return d.users[i], nil
	}
	return types.User{}, ErrNotFound
}

func (d *Directory) Add(ctx context.Context, in types.NewUser) (types.User, error) {
	in, err := normalizeNewUser(in)
	if err != nil {
		return types.User{}, err
	}

	var added types.User
	err = d.mutate(ctx, "Directory.Add", func(users []types.User) ([]types.User, error) {
		u, err := d.build(users, in)
		if err != nil {
			return nil, err
		}
		added = u
		return append(users, u), nil
	})
	if err != nil {
		return types.User{}, err
	}
	d.logger.Info().Str("user_id", added.ID).Str("role", string(added.Role)).Msg("user added")
	return added, nil
}

// AddMany appends every entry in one write. Entries are assumed valid.
func (d *Directory) AddMany(ctx context.Context, in []types.NewUser) ([]types.User, error) {
	var added []types.User
	err := d.mutate(ctx, "Directory.AddMany", func(users []types.User) ([]types.User, error) {
		added = added[:0]
		for _, nu := range in {
			u, err := d.build(users, nu)
			if err != nil {
				return nil, err
			}
			users = append(users, u)
			added = append(added, u)
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Update merges patch into the user. id and createdAt never change. A role
// change keeps "qrCode iff student": leaving student drops the code and
// becoming a student issues a fresh one.
func (d *Directory) Update(ctx context.Context, id string, patch types.UserPatch) (types.User, error) {
	if patch.Email != nil && strings.TrimSpace(*patch.Email) == "" {
		return types.User{}, ErrEmailRequired
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return types.User{}, ErrNameRequired
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return types.User{}, ErrInvalidRole
	}

	var updated types.User
	err := d.mutate(ctx, "Directory.Update", func(users []types.User) ([]types.User, error) {
		i := indexOf(users, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		u := users[i]
		if patch.Email != nil {
			u.Email = strings.TrimSpace(*patch.Email)
		}
		if patch.Name != nil {
			u.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Role != nil {
			u.Role = *patch.Role
		}

		switch {
		case u.Role != types.RoleStudent:
			u.QRCode = ""
		case u.QRCode == "" || patch.ReissueQRCode:
			code, err := d.issueCode(users)
			if err != nil {
				return nil, err
			}
			u.QRCode = code
		}

		users[i] = u
		updated = u
		return users, nil
	})
	if err != nil {
		return types.User{}, err
	}
	return updated, nil
}

// Remove deletes id unless it is the acting user's own account.
func (d *Directory) Remove(ctx context.Context, actingID, id string) error {
	if id == actingID {
		return ErrSelfDeletion
	}
	err := d.mutate(ctx, "Directory.Remove", func(users []types.User) ([]types.User, error) {
		i := indexOf(users, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		return slices.Delete(users, i, i+1), nil
	})
	if err != nil {
		return err
	}
	d.logger.Info().Str("user_id", id).Str("by", actingID).Msg("user removed")
	return nil
}

func (d *Directory) mutate(ctx context.Context, op string, apply func([]types.User) ([]types.User, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, found, err := store.LoadRecords[types.User](ctx, d.store, store.Users)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		current = slices.Clone(d.users)
	}

	next, err := apply(current)
	if err != nil {
		return err
	}
	if err := store.SaveRecords(ctx, d.store, store.Users, next); err != nil {
		return persistFailure(op, err)
	}
	d.users = next
	return nil
}

func (d *Directory) build(users []types.User, in types.NewUser) (types.User, error) {
	u := types.User{
		ID:        d.ids.NewID(),
		Email:     in.Email,
		Name:      in.Name,
		Role:      in.Role,
		CreatedAt: d.clock.Now(),
	}
	for indexOf(users, u.ID) >= 0 {
		u.ID = d.ids.NewID()
	}
	if u.Role == types.RoleStudent {
		code, err := d.issueCode(users)
		if err != nil {
			return types.User{}, err
		}
		u.QRCode = code
	}
	return u, nil
}

func (d *Directory) issueCode(users []types.User) (string, error) {
	for range maxQRAttempts {
		code := d.qr.NewCode()
		if code == "" {
			continue
		}
		if !slices.ContainsFunc(users, func(u types.User) bool { return u.QRCode == code }) {
			return code, nil
		}
	}
	return "", errQRExhausted
}

func normalizeNewUser(in types.NewUser) (types.NewUser, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, ErrNameRequired
	}
	if in.Email == "" {
		return in, ErrEmailRequired
	}
	if !in.Role.Valid() {
		return in, ErrInvalidRole
	}
	return in, nil
}

func indexOf(users []types.User, id string) int {
	return slices.IndexFunc(users, func(u types.User) bool { return u.ID == id })
}
