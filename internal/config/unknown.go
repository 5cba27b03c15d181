package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownKeys maps each config section to its valid keys.
var knownKeys = map[string]map[string]bool{
	"service_account": {"email": true, "private_key": true, "key_file": true, "token_url": true},
	"policy":          {"user_emails": true, "root_folders": true},
	"notify":          {"discord_webhook_url": true},
	"logging":         {"log_level": true, "log_format": true},
	"network":         {"timeout": true, "user_agent": true},
	"state":           {"db_path": true, "lock_path": true},
}

// knownSectionsList is the sorted list of section names. Sorted for
// deterministic suggestions when two candidates have the same edit distance.
var knownSectionsList = sortedKeys(knownKeys)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each unknown key. An unknown
// section is reported once, not once per key inside it.
func checkUnknownKeys(md *toml.MetaData) error {
	var errs []error

	reportedSections := make(map[string]bool)

	for _, key := range md.Undecoded() {
		if len(key) == 0 {
			continue
		}

		fields, ok := knownKeys[key[0]]
		if !ok {
			if reportedSections[key[0]] {
				continue
			}

			reportedSections[key[0]] = true
			errs = append(errs, unknownKeyError(key[0], key[0], knownSectionsList))

			continue
		}

		if len(key) < 2 {
			continue
		}

		errs = append(errs, unknownKeyError(key.String(), key[1], sortedKeys(fields)))
	}

	return errors.Join(errs...)
}

func unknownKeyError(full, name string, candidates []string) error {
	if suggestion := closestMatch(name, candidates); suggestion != "" {
		return fmt.Errorf("unknown config key %q; did you mean %q?", full, suggestion)
	}

	return fmt.Errorf("unknown config key %q", full)
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	// Single-row optimization avoids allocating a full matrix.
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
