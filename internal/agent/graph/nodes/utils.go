package nodes

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/movie-night-core/server/internal/agent/model"
)

const (
	ResetCommand      = "reset"
	DefaultMaxFriends = 5
)

// ===== Small helpers to keep nodes simple/readable =====

// normalizeMaxFriends returns a sane cap when the configured value is invalid.
func normalizeMaxFriends(n int) int {
	if n <= 0 || n > DefaultMaxFriends {
		return DefaultMaxFriends
	}
	return n
}

// isReset reports whether the message is the reset command.
func isReset(message string) bool {
	return strings.EqualFold(strings.TrimSpace(message), ResetCommand)
}

// parseFriendSelection splits a comma-separated selection, trimming each name,
// dropping empties and case-insensitive duplicates. Order is preserved.
func parseFriendSelection(message string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(message, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		k := strings.ToLower(name)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, name)
	}
	return out
}

// matchFriends resolves selected names against the directory case-insensitively.
// Matched names use the directory's spelling; the rest are returned as unknown.
func matchFriends(selection, directory []string) (matched, unknown []string) {
	byLower := make(map[string]string, len(directory))
	for _, f := range directory {
		byLower[strings.ToLower(strings.TrimSpace(f))] = f
	}
	for _, name := range selection {
		if f, ok := byLower[strings.ToLower(name)]; ok {
			matched = append(matched, f)
		} else {
			unknown = append(unknown, name)
		}
	}
	return matched, unknown
}

// titleCase collapses inner whitespace and title-cases each word ("sci-fi" -> "Sci-Fi").
// A Caser is stateful, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}

// canonicalChoice returns the option matching input case-insensitively, or the
// title-cased input when it is free text.
func canonicalChoice(input string, options []string) string {
	input = strings.TrimSpace(input)
	for _, o := range options {
		if strings.EqualFold(o, input) {
			return o
		}
	}
	return titleCase(input)
}

// splitGenres splits multi-genre values such as "Comedy, Drama" or "Comedy|Drama".
func splitGenres(genre string) []string {
	fields := strings.FieldsFunc(genre, func(r rune) bool {
		return r == ',' || r == '|' || r == '/'
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// filterByGenre returns movies having genre among their genres, case-insensitively.
func filterByGenre(movies []model.Movie, genre string) []model.Movie {
	var out []model.Movie
	for _, m := range movies {
		for _, g := range splitGenres(m.Genre) {
			if strings.EqualFold(g, genre) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// deriveGenres returns the sorted distinct genres present among movies.
func deriveGenres(movies []model.Movie) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range movies {
		for _, g := range splitGenres(m.Genre) {
			g = titleCase(g)
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	sort.Strings(out)
	return out
}

func movieNames(movies []model.Movie) []string {
	names := make([]string, 0, len(movies))
	for _, m := range movies {
		names = append(names, m.Title)
	}
	return names
}
