package discipline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		program string
		want    string // expected config name, "" for nil
	}{
		{name: "exact match", program: "Karate", want: "Karate"},
		{name: "lowercase", program: "karate", want: "Karate"},
		{name: "uppercase", program: "KARATE", want: "Karate"},
		{name: "mixed case", program: "kArAtE", want: "Karate"},
		{name: "multi-word", program: "brazilian jiu-jitsu", want: "Brazilian Jiu-Jitsu"},
		{name: "level discipline", program: "kickboxing", want: "Kickboxing"},
		{name: "unknown", program: "Capoeira", want: ""},
		{name: "empty", program: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Get(tt.program)
			if tt.want == "" {
				assert.Nil(t, cfg)
				return
			}
			if assert.NotNil(t, cfg) {
				assert.Equal(t, tt.want, cfg.Name)
			}
		})
	}
}

// spelling variants resolve to the identical configuration
func TestGet_caseVariantsIdentical(t *testing.T) {
	assert.Same(t, Get("Karate"), Get("KARATE"))
	assert.Same(t, Get("Judo"), Get("judo"))
}

func TestRankIndex(t *testing.T) {
	cfg := Get("Karate")

	assert.Equal(t, 0, cfg.RankIndex("White"))
	assert.Equal(t, 0, cfg.RankIndex("white"))
	assert.Equal(t, 7, cfg.RankIndex("Black"))
	assert.Equal(t, -1, cfg.RankIndex("Crimson"))
	assert.Equal(t, -1, cfg.RankIndex(""))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsBelt("Karate"))
	assert.False(t, IsLevel("Karate"))
	assert.False(t, HasStripes("Karate"))

	assert.True(t, IsBelt("Brazilian Jiu-Jitsu"))
	assert.True(t, HasStripes("Brazilian Jiu-Jitsu"))

	assert.True(t, IsLevel("Kickboxing"))
	assert.False(t, IsBelt("Kickboxing"))

	// unknown programs are false across the board, not an error
	assert.False(t, IsBelt("Capoeira"))
	assert.False(t, IsLevel("Capoeira"))
	assert.False(t, HasStripes("Capoeira"))
}

func TestAll(t *testing.T) {
	all := All()
	assert.Len(t, all, len(registry))

	// mutating the copy leaves the registry untouched
	all[0].Name = "mutated"
	assert.Equal(t, "Karate", registry[0].Name)
}
