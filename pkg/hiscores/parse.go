package hiscores

import (
	"fmt"
	"strconv"
	"strings"
)

// RankItem is a parsed leaderboard row.
type RankItem struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Rank  int    `json:"rank"`
}

// ParseError reports a numeric field that could not be parsed. One bad
// value poisons the whole fetch; there is no partial acceptance.
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: invalid number %q", e.Field, e.Value)
}

// Parse converts raw API rows into rank items. It returns a *ParseError
// for the first malformed score or rank and discards the entire batch.
func Parse(rows []RankRow) ([]RankItem, error) {
	items := make([]RankItem, 0, len(rows))
	for _, row := range rows {
		score, err := parseFormattedInt(row.Score)
		if err != nil {
			return nil, &ParseError{Field: "score", Value: row.Score}
		}
		rank, err := parseFormattedInt(row.Rank)
		if err != nil {
			return nil, &ParseError{Field: "rank", Value: row.Rank}
		}
		items = append(items, RankItem{Name: row.Name, Score: score, Rank: rank})
	}
	return items, nil
}

// parseFormattedInt parses a decimal string that may contain thousands
// separators, e.g. "1,234,567".
func parseFormattedInt(value string) (int, error) {
	clean := strings.ReplaceAll(value, ",", "")
	return strconv.Atoi(clean)
}
