package catalog

import (
	"fmt"
	"strings"

	"github.com/JustinTDCT/CineScope/internal/models"
)

type FilterLevel string

const (
	LevelBasic    FilterLevel = "basic"
	LevelModerate FilterLevel = "moderate"
	LevelStrict   FilterLevel = "strict"
)

// ParseFilterLevel accepts the three tier names case-insensitively.
func ParseFilterLevel(s string) (FilterLevel, error) {
	switch lvl := FilterLevel(strings.ToLower(strings.TrimSpace(s))); lvl {
	case LevelBasic, LevelModerate, LevelStrict:
		return lvl, nil
	}
	return "", fmt.Errorf("unknown content filter level %q", s)
}

// FilterConfig selects the checks a gateway runs. Region, when set, replaces
// the default region sent upstream.
type FilterConfig struct {
	Level  FilterLevel
	Region string
}

// MinVoteCount is the vote count below which a sensitive primary genre is
// rejected under the strict tier.
const MinVoteCount = 100

// deniedKeywords are matched as substrings of the lower-cased title and overview.
var deniedKeywords = []string{
	"erotic",
	"adult",
	"xxx",
	"porn",
	"sex",
	"nude",
	"naked",
	"explicit",
	"seduction",
	"intimate",
	"tuhog",
	"sensual",
}

// sensitiveGenres: Romance, Thriller, Crime.
var sensitiveGenres = map[int]struct{}{
	10749: {},
	53:    {},
	80:    {},
}

// ContentFilter is the per-movie safety predicate. It holds no mutable state.
type ContentFilter struct {
	level FilterLevel
}

func NewContentFilter(level FilterLevel) *ContentFilter {
	return &ContentFilter{level: level}
}

func (f *ContentFilter) Level() FilterLevel { return f.level }

// Allows evaluates the checks in order and stops at the first rejection.
func (f *ContentFilter) Allows(m models.Movie) bool {
	if m.Adult {
		return false
	}
	if f.level == LevelBasic {
		return true
	}

	if containsDeniedKeyword(m.Title) || containsDeniedKeyword(m.Overview) {
		return false
	}

	if f.level == LevelStrict && len(m.GenreIDs) > 0 {
		if _, sensitive := sensitiveGenres[m.GenreIDs[0]]; sensitive && m.VoteCount < MinVoteCount {
			return false
		}
	}
	return true
}

// Apply returns the allowed movies in their original order. The input slice
// is not modified.
func (f *ContentFilter) Apply(movies []models.Movie) []models.Movie {
	out := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if f.Allows(m) {
			out = append(out, m)
		}
	}
	return out
}

func containsDeniedKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range deniedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
