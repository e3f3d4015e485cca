package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swapin/backend/internal/models"
)

func searchFixture() []*models.Item {
	return []*models.Item{
		{ID: "lamp", OwnerID: "alice", Title: "Vintage brass lamp", Description: "Warm light", Category: "Decor", Price: 500, Status: models.ItemStatusActive, Views: 100, Likes: 2, Offers: 1},
		{ID: "chair", OwnerID: "bob", Title: "Wooden chair", Description: "A sturdy chair with lamp-side table", Category: "Furniture", Price: 800, Status: models.ItemStatusActive, Views: 10, Likes: 50, Offers: 10},
		{ID: "tv", OwnerID: "carol", Title: "Smart TV", Description: "Barely used", Category: "Electronics", Price: 15000, Status: models.ItemStatusActive, Verified: true, Views: 1000, Likes: 5, Offers: 0},
	}
}

func TestSearchExcludesOwnItems(t *testing.T) {
	results := SearchItems(searchFixture(), "alice", "", models.SearchFilters{})

	require.Len(t, results, 2)
	for _, item := range results {
		require.NotEqual(t, "alice", item.OwnerID)
	}
}

func TestSearchShortTokensIgnored(t *testing.T) {
	// "tv" is two characters, so it is dropped and the query acts empty:
	// everything (except the caller's items) comes back unranked.
	results := SearchItems(searchFixture(), "nobody", "tv", models.SearchFilters{})
	require.Len(t, results, 3)

	// A usable token actually gates.
	results = SearchItems(searchFixture(), "nobody", "lamp", models.SearchFilters{})
	require.Len(t, results, 2)
}

func TestSearchScoreGatesButPopularityOrders(t *testing.T) {
	// Both items match "lamp": the lamp itself in the title (weight 3) and
	// the chair only in its description (weight 2). The chair still ranks
	// first because ordering uses the popularity blend, not the text score.
	results := SearchItems(searchFixture(), "nobody", "lamp", models.SearchFilters{})

	require.Len(t, results, 2)
	require.Equal(t, "chair", results[0].ID) // 0.1*10 + 0.5*50 + 0.3*10 = 29
	require.Equal(t, "lamp", results[1].ID)  // 0.1*100 + 0.5*2 + 0.3*1 = 11.3
}

func TestSearchNoQueryKeepsInputOrder(t *testing.T) {
	results := SearchItems(searchFixture(), "nobody", "", models.SearchFilters{})

	require.Len(t, results, 3)
	require.Equal(t, "lamp", results[0].ID)
	require.Equal(t, "chair", results[1].ID)
	require.Equal(t, "tv", results[2].ID)
}

func TestSearchFilters(t *testing.T) {
	verified := true

	results := SearchItems(searchFixture(), "nobody", "", models.SearchFilters{Category: "furniture"})
	require.Len(t, results, 1)
	require.Equal(t, "chair", results[0].ID)

	results = SearchItems(searchFixture(), "nobody", "", models.SearchFilters{Verified: &verified})
	require.Len(t, results, 1)
	require.Equal(t, "tv", results[0].ID)

	results = SearchItems(searchFixture(), "nobody", "", models.SearchFilters{MinPrice: 600, MaxPrice: 1000})
	require.Len(t, results, 1)
	require.Equal(t, "chair", results[0].ID)
}

func TestSearchTagMatchGates(t *testing.T) {
	items := []*models.Item{
		{ID: "a", OwnerID: "x", Title: "Box", Tags: []string{"retro", "collectible"}, Status: models.ItemStatusActive},
		{ID: "b", OwnerID: "x", Title: "Crate", Status: models.ItemStatusActive},
	}

	results := SearchItems(items, "nobody", "retro", models.SearchFilters{})
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].ID)
}
