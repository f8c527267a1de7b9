package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_UnknownKey_TopLevel(t *testing.T) {
	path := writeTestConfig(t, `
site_url = "https://contoso.sharepoint.com"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoad_UnknownKey_Suggestion(t *testing.T) {
	path := writeTestConfig(t, "[crawl]\nmax_dept = 4\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"crawl.max_dept"`)
	assert.Contains(t, err.Error(), `did you mean "crawl.max_depth"`)
}

func TestLoad_UnknownSection(t *testing.T) {
	path := writeTestConfig(t, "[transfers]\nparallel = 4\nworkers = 2\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config section [transfers]")
	assert.NotContains(t, err.Error(), "transfers.workers")
}

func TestClosestMatch(t *testing.T) {
	assert.Equal(t, "retry.max_delay", closestMatch("retry.max_delays", knownKeysList))
	assert.Empty(t, closestMatch("completely.different", knownKeysList))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 1, levenshtein("kitten", "sitten"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}
