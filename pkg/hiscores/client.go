// Package hiscores fetches ranked leaderboard pages from the OSRS
// hiscores API and parses them into typed rank items.
package hiscores

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const rankingPath = "/m=hiscore_oldschool_ultimate/ranking.json"

// RankRow is one raw row as returned by the hiscores API. Score and rank
// are decimal-formatted strings and may carry thousands separators.
type RankRow struct {
	Name  string `json:"name"`
	Score string `json:"score"`
	Rank  string `json:"rank"`
}

// Client fetches ranking pages from the hiscores API.
type Client struct {
	client   *http.Client
	baseURL  string
	table    int
	category int
	size     int
}

// NewClient creates a hiscores client. The timeout bounds the whole
// request, connect included, so a stalled upstream cannot hang a sync
// cycle.
func NewClient(baseURL string, table, category, size int, timeout time.Duration) *Client {
	if size <= 0 {
		size = 50
	}
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Client{
		client:   &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		table:    table,
		category: category,
		size:     size,
	}
}

// Rankings fetches one page of the ranked table. Any HTTP status is
// treated as a successful transport; the hiscores API reports its own
// failures in the body, so the decoded body is authoritative. An empty
// array is a valid response.
func (c *Client) Rankings(ctx context.Context) ([]RankRow, error) {
	q := url.Values{}
	q.Set("table", strconv.Itoa(c.table))
	q.Set("category", strconv.Itoa(c.category))
	q.Set("size", strconv.Itoa(c.size))

	reqURL := c.baseURL + rankingPath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create ranking request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rankings: %w", err)
	}
	defer resp.Body.Close()

	var rows []RankRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rankings: %w", err)
	}
	return rows, nil
}
