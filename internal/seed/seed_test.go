package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/windfall/spellcheck_service/internal/logger"
	"github.com/windfall/spellcheck_service/internal/repository"
)

func TestDefaultSpells(t *testing.T) {
	spells, err := DefaultSpells()
	require.NoError(t, err)
	require.NotEmpty(t, spells)

	seen := make(map[string]bool)
	for _, s := range spells {
		assert.False(t, seen[s.Name], "duplicate spell %s", s.Name)
		seen[s.Name] = true
		assert.NotEmpty(t, s.Type)
		assert.NotEmpty(t, s.Difficulty)
	}
	assert.True(t, seen["Lumos"])
}

func TestSpells_OnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemorySpellRepository()
	spells := []*repository.Spell{{Name: "Lumos"}, {Name: "Nox"}}

	n, err := Spells(ctx, repo, spells, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Spells(ctx, repo, []*repository.Spell{{Name: "Accio"}}, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLoadSpellsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spells.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"spell":"Reparo","description":"Repairs","type":"charm","difficulty":"easy"}]`), 0o600))

	spells, err := LoadSpellsFile(path)
	require.NoError(t, err)
	require.Len(t, spells, 1)
	assert.Equal(t, "Reparo", spells[0].Name)

	_, err = ParseSpells([]byte(`[{"description":"nameless"}]`))
	assert.Error(t, err)
}

func TestDemoUsers(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()

	n, err := DemoUsers(ctx, repo, DefaultDemoUsers, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, len(DefaultDemoUsers), n)

	n, err = DemoUsers(ctx, repo, DefaultDemoUsers, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	user, err := repo.GetByEmail(ctx, "harry@hogwarts.edu")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("expelliarmus")))
}
