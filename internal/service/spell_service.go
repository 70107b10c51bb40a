package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/repository"
)

// SpellCache caches the full spell catalog.
type SpellCache interface {
	GetSpells(ctx context.Context) ([]*repository.Spell, bool, error)
	SetSpells(ctx context.Context, spells []*repository.Spell, ttl time.Duration) error
}

// SpellFilter narrows the catalog. Empty fields match everything.
type SpellFilter struct {
	Query      string
	Type       string
	Difficulty string
}

// FilterSpells applies f to spells. Query is a case-insensitive substring
// match on name or description; Type and Difficulty match exactly.
func FilterSpells(spells []*repository.Spell, f SpellFilter) []*repository.Spell {
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]*repository.Spell, 0, len(spells))
	for _, s := range spells {
		if q != "" &&
			!strings.Contains(strings.ToLower(s.Name), q) &&
			!strings.Contains(strings.ToLower(s.Description), q) {
			continue
		}
		if f.Type != "" && s.Type != f.Type {
			continue
		}
		if f.Difficulty != "" && s.Difficulty != f.Difficulty {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SpellService serves the spell catalog.
type SpellService struct {
	repo     repository.SpellRepository
	cache    SpellCache
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewSpellService creates a new SpellService.
func NewSpellService(repo repository.SpellRepository, log zerolog.Logger) *SpellService {
	return &SpellService{
		repo: repo,
		log:  log.With().Str("component", "spells").Logger(),
	}
}

// WithCache enables catalog caching.
func (s *SpellService) WithCache(cache SpellCache, ttl time.Duration) *SpellService {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

// All returns the full catalog ordered by name.
func (s *SpellService) All(ctx context.Context) ([]*repository.Spell, error) {
	if s.cache != nil {
		spells, ok, err := s.cache.GetSpells(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("Spell cache read failed")
		} else if ok {
			return spells, nil
		}
	}

	spells, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list spells", err)
	}

	if s.cache != nil {
		if err := s.cache.SetSpells(ctx, spells, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("Spell cache write failed")
		}
	}
	return spells, nil
}

// List returns the catalog filtered by f.
func (s *SpellService) List(ctx context.Context, f SpellFilter) ([]*repository.Spell, error) {
	spells, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return FilterSpells(spells, f), nil
}

// Get returns the spell with the exact name.
func (s *SpellService) Get(ctx context.Context, name string) (*repository.Spell, error) {
	spell, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get spell", err)
	}
	if spell == nil {
		return nil, errors.NotFound("spell")
	}
	return spell, nil
}

// Facets returns the distinct types and difficulties in catalog order.
func (s *SpellService) Facets(ctx context.Context) (types, difficulties []string, err error) {
	spells, err := s.All(ctx)
	if err != nil {
		return nil, nil, err
	}

	seenType := make(map[string]bool)
	seenDiff := make(map[string]bool)
	for _, sp := range spells {
		if sp.Type != "" && !seenType[sp.Type] {
			seenType[sp.Type] = true
			types = append(types, sp.Type)
		}
		if sp.Difficulty != "" && !seenDiff[sp.Difficulty] {
			seenDiff[sp.Difficulty] = true
			difficulties = append(difficulties, sp.Difficulty)
		}
	}
	return types, difficulties, nil
}
