package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

// Roster is the admin-facing edit surface over the Directory.
type Roster struct {
	directory *Directory
	logger    zerolog.Logger
}

func NewRoster(dir *Directory, logger zerolog.Logger) *Roster {
	return &Roster{directory: dir, logger: logger.With().Str("component", "roster").Logger()}
}

func requireAdmin(actor types.User) error {
	if actor.Role != types.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func (r *Roster) Add(ctx context.Context, actor types.User, in types.NewUser) (types.User, error) {
	if err := requireAdmin(actor); err != nil {
		return types.User{}, err
	}
	return r.directory.Add(ctx, in)
}

// Update edits id. The acting admin may edit their own name and email but
// not their role, since the open session is tied to it.
func (r *Roster) Update(ctx context.Context, actor types.User, id string, patch types.UserPatch) (types.User, error) {
	if err := requireAdmin(actor); err != nil {
		return types.User{}, err
	}
	if id == actor.ID && patch.Role != nil && *patch.Role != actor.Role {
		return types.User{}, ErrSelfDemotion
	}
	return r.directory.Update(ctx, id, patch)
}

// Delete removes id. An admin can never remove their own account.
func (r *Roster) Delete(ctx context.Context, actor types.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return r.directory.Remove(ctx, actor.ID, id)
}

// Import adds every entry that has an email in a single write. A blank name
// becomes "Imported <n>" (1-based position) and a blank role means student.
func (r *Roster) Import(ctx context.Context, actor types.User, entries []types.NewUser) (types.ImportResult, error) {
	if err := requireAdmin(actor); err != nil {
		return types.ImportResult{}, err
	}

	res := types.ImportResult{Added: []types.User{}}
	var batch []types.NewUser
	for i, e := range entries {
		e.Email = strings.TrimSpace(e.Email)
		e.Name = strings.TrimSpace(e.Name)
		e.Role = types.Role(strings.ToLower(strings.TrimSpace(string(e.Role))))

		if e.Email == "" {
			res.Skipped++
			continue
		}
		if e.Role == "" {
			e.Role = types.RoleStudent
		}
		if !e.Role.Valid() {
			res.Skipped++
			continue
		}
		if e.Name == "" {
			e.Name = fmt.Sprintf("Imported %d", i+1)
		}
		batch = append(batch, e)
	}
	if len(batch) == 0 {
		return res, nil
	}

	added, err := r.directory.AddMany(ctx, batch)
	if err != nil {
		return types.ImportResult{}, err
	}
	res.Added = added
	r.logger.Info().Int("added", len(added)).Int("skipped", res.Skipped).Msg("roster import")
	return res, nil
}
