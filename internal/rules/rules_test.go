package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tradescan/internal/itemkey"
	"github.com/verte-zerg/tradescan/internal/model"
)

var sword = model.Item{
	Name:     "Legendary Netherite Sword",
	Lore:     []string{"Cena: 1500"},
	Material: "minecraft:netherite_sword",
	Enchants: "sharp5",
}

func TestUpsertReplacesInPlace(t *testing.T) {
	p := NewProfile("main", Settings{})
	a := itemkey.Encode("sword")
	b := itemkey.Encode("pickaxe")

	replaced, err := p.Upsert(a, 100)
	require.NoError(t, err)
	assert.False(t, replaced)
	_, err = p.Upsert(b, 200)
	require.NoError(t, err)
	replaced, err = p.Upsert(a, 300)
	require.NoError(t, err)
	assert.True(t, replaced)

	got := p.Rules()
	require.Len(t, got, 2)
	assert.Equal(t, Rule{Key: a, MaxPrice: 300}, got[0])
	assert.Equal(t, Rule{Key: b, MaxPrice: 200}, got[1])
}

func TestUpsertRejectsEmptyKey(t *testing.T) {
	p := NewProfile("main", Settings{})
	_, err := p.Upsert(itemkey.Key{}, 1)
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.Zero(t, p.Len())
}

func TestRemove(t *testing.T) {
	p := NewProfile("main", Settings{})
	k := itemkey.Encode("sword")
	_, _ = p.Upsert(k, 1)
	assert.False(t, p.Remove(itemkey.Encode("sword(x)")))
	assert.True(t, p.Remove(k))
	assert.False(t, p.Remove(k))
	assert.Empty(t, p.Rules())
}

func TestFindMatchFirstWins(t *testing.T) {
	p := NewProfile("main", Settings{})
	broad := itemkey.Encode("netherite sword")
	exact := itemkey.Encode(`Legendary Netherite Sword["netherite_sword"]{"sharp5"}`)
	require.True(t, broad.Matches(sword))
	require.True(t, exact.Matches(sword))
	_, _ = p.Upsert(broad, 100)
	_, _ = p.Upsert(exact, 5000)

	r, ok := p.FindMatch(sword)
	require.True(t, ok)
	assert.Equal(t, 100.0, r.MaxPrice)

	p.Remove(broad)
	r, ok = p.FindMatch(sword)
	require.True(t, ok)
	assert.Equal(t, 5000.0, r.MaxPrice)
}

func TestFindMatchSkipsMaterialOnlyMismatch(t *testing.T) {
	p := NewProfile("main", Settings{})
	_, _ = p.Upsert(itemkey.Encode("sword"), 100)

	_, ok := p.FindMatch(sword)
	assert.False(t, ok)
}

func TestFindMatchNoRules(t *testing.T) {
	p := NewProfile("main", Settings{})
	_, ok := p.FindMatch(sword)
	assert.False(t, ok)

	s := NewStore()
	_, ok = s.FindMatch("missing", sword)
	assert.False(t, ok)
	assert.Nil(t, s.List("missing"))
}

func TestStoreActiveProfile(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Active())
	s.Add(NewProfile("a", Settings{}))
	s.Add(NewProfile("b", Settings{}))

	require.NoError(t, s.SetActive("b"))
	assert.Equal(t, "b", s.ActiveName())
	assert.Equal(t, "b", s.Active().Name)

	err := s.SetActive("c")
	assert.ErrorIs(t, err, ErrUnknownProfile)
	assert.Equal(t, "b", s.ActiveName())

	_, err = s.Upsert("c", itemkey.Encode("x y"), 1)
	assert.ErrorIs(t, err, ErrUnknownProfile)
	_, err = s.Remove("c", itemkey.Encode("x y"))
	assert.ErrorIs(t, err, ErrUnknownProfile)

	_, err = s.Upsert("a", itemkey.Encode("x y"), 1)
	require.NoError(t, err)
	assert.Len(t, s.List("a"), 1)
	assert.Empty(t, s.List("b"), "profiles do not share rules")
	assert.Equal(t, []string{"a", "b"}, s.Names())
}

func TestResolveDomain(t *testing.T) {
	s := NewStore()
	s.Add(NewProfile("box", Settings{Domains: []string{"minestar.pl"}}))
	s.Add(NewProfile("other", Settings{Domains: []string{"Example.COM", ""}}))

	assert.Equal(t, "box", s.ResolveDomain("minestar.pl", "default"))
	assert.Equal(t, "box", s.ResolveDomain("play.MINESTAR.pl", "default"))
	assert.Equal(t, "other", s.ResolveDomain("mc.example.com", "default"))
	assert.Equal(t, "default", s.ResolveDomain("notminestar.pl", "default"))
	assert.Equal(t, "default", s.ResolveDomain("", "default"))
}
