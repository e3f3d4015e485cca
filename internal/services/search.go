package services

import (
	"sort"
	"strings"

	"github.com/swapin/backend/internal/models"
)

// minTokenLen: query tokens at or below this length are discarded, so a
// one- or two-letter query behaves exactly like no query at all.
const minTokenLen = 2

// Per-field weights for the text-match score.
const (
	titleWeight       = 3
	descriptionWeight = 2
	categoryWeight    = 2
	tagWeight         = 1
)

// SearchItems filters and ranks items for one caller. Equality and range
// filters apply first; when a usable query remains, the weighted text score
// gates inclusion only. The final ordering is always the popularity blend
// 0.1*views + 0.5*likes + 0.3*offers, never the text score. The caller's own
// items never appear in the results.
func SearchItems(items []*models.Item, callerID, query string, f models.SearchFilters) []*models.Item {
	tokens := queryTokens(query)

	results := make([]*models.Item, 0)
	for _, item := range items {
		if item.OwnerID == callerID {
			continue
		}
		if !matchesFilters(item, f) {
			continue
		}
		if len(tokens) > 0 && scoreItem(item, tokens) == 0 {
			continue
		}
		results = append(results, item)
	}

	if len(tokens) > 0 {
		sort.SliceStable(results, func(i, j int) bool {
			return searchPopularity(results[i]) > searchPopularity(results[j])
		})
	}
	return results
}

func queryTokens(query string) []string {
	tokens := make([]string, 0)
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if len(tok) > minTokenLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func matchesFilters(item *models.Item, f models.SearchFilters) bool {
	if f.Category != "" && !strings.EqualFold(item.Category, f.Category) {
		return false
	}
	if f.Condition != "" && !strings.EqualFold(item.Condition, f.Condition) {
		return false
	}
	if f.Verified != nil && item.Verified != *f.Verified {
		return false
	}
	if f.MinPrice > 0 && item.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && item.Price > f.MaxPrice {
		return false
	}
	return true
}

func scoreItem(item *models.Item, tokens []string) int {
	title := strings.ToLower(item.Title)
	description := strings.ToLower(item.Description)
	category := strings.ToLower(item.Category)

	score := 0
	for _, tok := range tokens {
		if strings.Contains(title, tok) {
			score += titleWeight
		}
		if strings.Contains(description, tok) {
			score += descriptionWeight
		}
		if strings.Contains(category, tok) {
			score += categoryWeight
		}
		for _, tag := range item.Tags {
			if strings.Contains(strings.ToLower(tag), tok) {
				score += tagWeight
				break
			}
		}
	}
	return score
}

func searchPopularity(item *models.Item) float64 {
	return 0.1*float64(item.Views) + 0.5*float64(item.Likes) + 0.3*float64(item.Offers)
}
