package sheet

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestV20Schema_DotRangesDoNotOverlap(t *testing.T) {
	s := V20Schema()

	seen := map[int]string{}
	claim := func(owner string, b DotBlock) {
		for i := 0; i < b.Size; i++ {
			id := b.Start + i
			prev, taken := seen[id]
			require.False(t, taken, "dot%d claimed by both %s and %s", id, prev, owner)
			seen[id] = owner
		}
	}

	for _, b := range s.Attributes {
		claim("attribute "+b.Trait, b)
	}
	for _, b := range s.Abilities {
		claim("ability "+b.Trait, b)
	}
	for _, b := range s.Virtues {
		claim("virtue "+b.Trait, b)
	}
	for slot := 0; slot < s.Disciplines.Slots; slot++ {
		claim(fmt.Sprintf("discipline slot %d", slot+1), s.Disciplines.block(slot))
	}
	for slot := 0; slot < s.Backgrounds.Slots; slot++ {
		claim(fmt.Sprintf("background slot %d", slot+1), s.Backgrounds.block(slot))
	}
}

func TestV20Schema_KnownAnchors(t *testing.T) {
	s := V20Schema()

	// Anchor ids from the mapped template: abilities start at 73,
	// disciplines at 313, backgrounds at 361, virtues at 409.
	assert.Equal(t, 1, s.Attributes[0].Start)
	assert.Equal(t, "strength", s.Attributes[0].Trait)
	assert.Equal(t, 73, s.Abilities[0].Start)
	assert.Equal(t, "alertness", s.Abilities[0].Trait)
	assert.Equal(t, 30, len(s.Abilities))
	assert.Equal(t, 313, s.Disciplines.Start)
	assert.Equal(t, 361, s.Backgrounds.Start)
	assert.Equal(t, 409, s.Virtues[0].Start)
}

func TestFieldNames_CoversAllSections(t *testing.T) {
	names := V20Schema().FieldNames()

	for _, want := range []string{
		"name", "Clan", "experience",
		"dot1", "dot8", "dot8a", "dot313", "dot320a",
		"disciplines1", "disciplines6", "back1", "back6",
		"hdot1", "hdot10", "willdot10",
		"misc1", "misc13",
	} {
		_, ok := names[want]
		assert.True(t, ok, "schema missing field %q", want)
	}

	_, ok := names["dot0"]
	assert.False(t, ok)
	_, ok = names["misc14"]
	assert.False(t, ok)
}
