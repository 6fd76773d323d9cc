package storage

import (
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"linae/model"
)

const previewLen = 100

// TurnMatch is one search hit within a list of turns.
type TurnMatch struct {
	SessionID string     `json:"session_id,omitempty"`
	TurnIndex int        `json:"turn_index"`
	Role      model.Role `json:"role"`
	Preview   string     `json:"preview"`
	Timestamp time.Time  `json:"timestamp"`
	Score     int        `json:"score"`
}

// Preview shortens content to a single line of at most 100 runes.
func Preview(content string) string {
	p := strings.Join(strings.Fields(content), " ")
	if r := []rune(p); len(r) > previewLen {
		p = string(r[:previewLen]) + "..."
	}
	return p
}

// searchText is what a query is matched against: the reply plus the
// layer analyses for agent turns, the text plus attachment name for user
// turns.
func searchText(t model.Turn) string {
	parts := []string{t.Content}
	if t.Document != nil {
		parts = append(parts, t.Document.Name)
	}
	if t.Result != nil {
		parts = append(parts, t.Result.ReflexResponse, t.Result.CoreAnalysis, t.Result.MetaAnalysis)
	}
	return strings.Join(parts, " ")
}

type turnSource []model.Turn

func (s turnSource) String(i int) string {
	return searchText(s[i])
}

func (s turnSource) Len() int {
	return len(s)
}

// SearchTurns finds turns matching query. Substring hits come first in
// conversation order, followed by fuzzy-only hits ranked by score.
func SearchTurns(turns []model.Turn, query string) []TurnMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return []TurnMatch{}
	}

	queryLower := strings.ToLower(query)
	matches := []TurnMatch{}
	seen := make(map[int]bool)

	for i, t := range turns {
		if strings.Contains(strings.ToLower(searchText(t)), queryLower) {
			matches = append(matches, newTurnMatch(i, t, 0))
			seen[i] = true
		}
	}

	for _, m := range fuzzy.FindFrom(query, turnSource(turns)) {
		if seen[m.Index] {
			continue
		}
		matches = append(matches, newTurnMatch(m.Index, turns[m.Index], m.Score))
	}

	return matches
}

func newTurnMatch(i int, t model.Turn, score int) TurnMatch {
	return TurnMatch{
		TurnIndex: i,
		Role:      t.Role,
		Preview:   Preview(t.Content),
		Timestamp: t.Timestamp,
		Score:     score,
	}
}
