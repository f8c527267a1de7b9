package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownKeys are the valid "section.key" names in the config file.
var knownKeys = map[string]bool{
	"sharepoint.site_url": true, "sharepoint.tenant_id": true, "sharepoint.client_id": true,
	"sharepoint.client_secret": true, "sharepoint.doc_library": true,
	"crawl.max_depth": true, "crawl.max_items_per_level": true,
	"crawl.level_delay": true, "crawl.batch_delay": true,
	"retry.max_attempts": true, "retry.base_delay": true, "retry.max_delay": true, "retry.multiplier": true,
	"search.default_limit": true, "search.max_limit": true,
	"server.transport": true, "server.http_host": true, "server.http_port": true, "server.mount_path": true,
	"logging.log_level": true, "logging.log_format": true,
	"network.timeout": true, "network.user_agent": true,
	"download.fallback_dir": true,
	"content.cache_entries": true, "content.max_inline_size": true,
	"journal.enabled": true, "journal.path": true,
}

// knownKeysList is the sorted form of knownKeys, for deterministic
// suggestions when two candidates have the same edit distance.
var knownKeysList = func() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}()

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each unknown key.
func checkUnknownKeys(md *toml.MetaData) error {
	var errs []error

	for _, key := range md.Undecoded() {
		name := key.String()

		// A whole unknown section shows up as its own key; report the
		// section once instead of once per leaf.
		if len(key) == 1 && md.Type(key...) == "Hash" {
			errs = append(errs, fmt.Errorf("unknown config section [%s]", name))
			continue
		}

		if len(key) > 2 || sectionUnknown(key) {
			continue
		}

		if suggestion := closestMatch(name, knownKeysList); suggestion != "" {
			errs = append(errs, fmt.Errorf("unknown config key %q (did you mean %q?)", name, suggestion))
		} else {
			errs = append(errs, fmt.Errorf("unknown config key %q", name))
		}
	}

	return errors.Join(errs...)
}

// sectionUnknown reports whether the key lives under a section that is
// itself unknown (already reported).
func sectionUnknown(key toml.Key) bool {
	if len(key) < 2 {
		return false
	}

	prefix := key[0] + "."
	for k := range knownKeys {
		if strings.HasPrefix(k, prefix) {
			return false
		}
	}

	return true
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		if d := levenshtein(unknown, k); d < bestDist {
			bestDist = d
			best = k
		}
	}

	return best
}

// levenshtein computes the edit distance between two strings using two
// rolling rows.
func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
