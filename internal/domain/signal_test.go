package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver() *SignalResolver {
	return NewSignalResolver(map[string][]string{
		"MICT":  {"Manila", "Metro Manila", "NCR", "National Capital"},
		"SBITC": {"Subic", "Zambales"},
		"Bauan": {"Batangas"},
	})
}

func TestSignalResolver_DirectMatch(t *testing.T) {
	signals := WarningSignalMap{1: {"Southern portion of Bauan town"}}
	level := testResolver().Resolve("Bauan", signals)
	require.NotNil(t, level)
	assert.Equal(t, 1, *level)
}

func TestSignalResolver_AliasMatch(t *testing.T) {
	signals := WarningSignalMap{2: {"Bulacan", "METRO MANILA", "Rizal"}}
	level := testResolver().Resolve("MICT", signals)
	require.NotNil(t, level)
	assert.Equal(t, 2, *level)
}

func TestSignalResolver_CaseInsensitiveInstallationName(t *testing.T) {
	signals := WarningSignalMap{3: {"zambales"}}
	level := testResolver().Resolve("sbitc", signals)
	require.NotNil(t, level)
	assert.Equal(t, 3, *level)
}

func TestSignalResolver_HighestLevelWins(t *testing.T) {
	signals := WarningSignalMap{
		1: {"Batangas"},
		4: {"Western portion of Batangas"},
		2: {"Cavite"},
	}
	level := testResolver().Resolve("Bauan", signals)
	require.NotNil(t, level)
	assert.Equal(t, 4, *level)
}

func TestSignalResolver_NoMatch(t *testing.T) {
	signals := WarningSignalMap{1: {"Catanduanes", "Albay"}}
	assert.Nil(t, testResolver().Resolve("MICT", signals))
	assert.Nil(t, testResolver().Resolve("MICT", nil))
	assert.Nil(t, testResolver().Resolve("", signals))
}

func TestSignalResolver_IgnoresOutOfRangeLevels(t *testing.T) {
	signals := WarningSignalMap{0: {"Metro Manila"}, 6: {"Metro Manila"}}
	assert.Nil(t, testResolver().Resolve("MICT", signals))
}

func TestSignalResolver_NilResolverMatchesNameOnly(t *testing.T) {
	var r *SignalResolver
	level := r.Resolve("VCT", WarningSignalMap{1: {"VCT terminal area"}})
	require.NotNil(t, level)
	assert.Equal(t, 1, *level)
	assert.Nil(t, r.Resolve("MICT", WarningSignalMap{1: {"Metro Manila"}}))
}

func TestWarningSignalMap_Levels(t *testing.T) {
	m := WarningSignalMap{1: nil, 3: nil, 5: nil, 9: nil, 2: nil}
	assert.Equal(t, []int{5, 3, 2, 1}, m.Levels())
}

func TestSignalResolver_IgnoresDiacritics(t *testing.T) {
	r := NewSignalResolver(map[string][]string{"MICT": {"Parañaque"}})

	level := r.Resolve("MICT", WarningSignalMap{2: {"PARANAQUE CITY"}})
	require.NotNil(t, level)
	assert.Equal(t, 2, *level)

	r = NewSignalResolver(map[string][]string{"MICT": {"Las Pinas"}})
	level = r.Resolve("MICT", WarningSignalMap{1: {"Las Piñas"}})
	require.NotNil(t, level)
	assert.Equal(t, 1, *level)
}
