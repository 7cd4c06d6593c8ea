package parsers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/movie-night-core/server/internal/agent/model"
	errx "github.com/movie-night-core/server/internal/core/error"
	logx "github.com/movie-night-core/server/pkg/logger"
)

const (
	maxContentLen = 8 * 1024
	maxErrSnippet = 200
)

// ErrOffList is returned when the engine reply names none of the candidates.
var ErrOffList = errors.New("recommendation names no candidate movie")

// ParseRecommendation cleans the engine reply and checks it recommends one of
// the candidates. The returned text is safe to show to the user as is.
func ParseRecommendation(content string, candidates []model.Movie) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "recommendation_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("recommendation parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			text = ""
		}
	}()

	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "recommendation_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = truncateUTF8(content, maxContentLen)
	}

	text = strings.TrimSpace(stripFences(content))
	if text == "" {
		return "", errx.Dependency(fmt.Errorf("empty recommendation"), "recommendation engine returned no text")
	}

	if len(candidates) > 0 && MentionedCandidate(text, candidates) == nil {
		return "", errx.Dependency(fmt.Errorf("%w: %q", ErrOffList, safeSnippet(text)), "recommendation engine returned an unknown movie")
	}
	return text, nil
}

// MentionedCandidate returns the candidate whose title appears in text as whole
// words, case-insensitively.
// Longer titles win so "Alien" does not shadow "Aliens".
func MentionedCandidate(text string, candidates []model.Movie) *model.Movie {
	lower := strings.ToLower(text)
	var best *model.Movie
	for i := range candidates {
		title := strings.ToLower(strings.TrimSpace(candidates[i].Title))
		if title == "" || !containsWord(lower, title) {
			continue
		}
		if best == nil || len(candidates[i].Title) > len(best.Title) {
			best = &candidates[i]
		}
	}
	return best
}

// containsWord reports whether phrase occurs in text with no letter or digit
// directly before or after it.
func containsWord(text, phrase string) bool {
	for from := 0; from <= len(text)-len(phrase); {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(phrase)
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// stripFences drops markdown code fences some models wrap plain answers in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return truncateUTF8(s, maxErrSnippet)
}
