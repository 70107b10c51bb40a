// Package seed loads reference data into an empty store.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/repository"
	"github.com/windfall/spellcheck_service/internal/service"
)

//go:embed spells.json
var defaultSpells []byte

// DefaultSpells returns the embedded spell dataset.
func DefaultSpells() ([]*repository.Spell, error) {
	return ParseSpells(defaultSpells)
}

// LoadSpellsFile reads a spell dataset from path.
func LoadSpellsFile(path string) ([]*repository.Spell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSpells(data)
}

// ParseSpells decodes a JSON array of {spell, description, type, difficulty}.
func ParseSpells(data []byte) ([]*repository.Spell, error) {
	var spells []*repository.Spell
	if err := json.Unmarshal(data, &spells); err != nil {
		return nil, fmt.Errorf("failed to decode spells: %w", err)
	}
	for i, s := range spells {
		if s.Name == "" {
			return nil, fmt.Errorf("spell at index %d has no name", i)
		}
	}
	return spells, nil
}

// Spells inserts spells only when the catalog is empty. It returns the number inserted.
func Spells(ctx context.Context, repo repository.SpellRepository, spells []*repository.Spell, log zerolog.Logger) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info().Int("existing", count).Msg("Spell collection already has data, skipping seeding")
		return 0, nil
	}

	inserted, err := repo.InsertMany(ctx, spells)
	if err != nil {
		return 0, err
	}

	log.Info().Int("inserted", inserted).Msg("Seeded spells collection")
	return inserted, nil
}

// DemoUser is a seedable account.
type DemoUser struct {
	Username string
	Email    string
	Password string
}

// DefaultDemoUsers are created when demo seeding is enabled.
var DefaultDemoUsers = []DemoUser{
	{Username: "harry", Email: "harry@hogwarts.edu", Password: "expelliarmus"},
	{Username: "hermione", Email: "hermione@hogwarts.edu", Password: "wingardium"},
}

// DemoUsers creates each account whose email is not yet registered.
func DemoUsers(ctx context.Context, repo repository.UserRepository, users []DemoUser, log zerolog.Logger) (int, error) {
	created := 0
	for _, u := range users {
		existing, err := repo.GetByEmail(ctx, u.Email)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}

		hash, err := service.HashPassword(u.Password)
		if err != nil {
			return created, fmt.Errorf("failed to hash password: %w", err)
		}
		if err := repo.Create(ctx, &repository.User{
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: hash,
		}); err != nil {
			return created, err
		}
		created++
	}

	log.Info().Int("created", created).Msg("Seeded demo users")
	return created, nil
}
