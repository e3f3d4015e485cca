package models

import (
	"time"
)

const (
	ItemStatusActive = "active"
	ItemStatusPaused = "paused"
	ItemStatusSold   = "sold"
)

// MinItemPrice is the lowest accepted listing price. Listings below this are
// rejected at entry.
const MinItemPrice = 100

type Item struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Category    string    `json:"category"`
	Price       int64     `json:"price"` // whole currency units
	Condition   string    `json:"condition"`
	Status      string    `json:"status"`
	Verified    bool      `json:"verified"`
	Tags        []string  `json:"tags,omitempty"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	Offers      int64     `json:"offers"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Price       int64    `json:"price"`
	Condition   string   `json:"condition"`
	Tags        []string `json:"tags"`
}

type UpdateItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Price       int64    `json:"price"`
	Condition   string   `json:"condition"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

func (r *CreateItemRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if r.Price < MinItemPrice {
		errors["price"] = "Price is below the minimum listing price"
	}
	if r.Category == "" {
		errors["category"] = "Category is required"
	}

	return errors
}

func (r *UpdateItemRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if r.Price < MinItemPrice {
		errors["price"] = "Price is below the minimum listing price"
	}
	if r.Status != "" && r.Status != ItemStatusActive && r.Status != ItemStatusPaused && r.Status != ItemStatusSold {
		errors["status"] = "Status must be one of: active, paused, sold"
	}

	return errors
}

// Common item categories
var ItemCategories = []string{
	"Furniture",
	"Electronics",
	"Clothing",
	"Books",
	"Toys",
	"Kitchen",
	"Tools",
	"Sports",
	"Decor",
	"Antiques",
	"Other",
}

// SearchFilters narrows a search before any text scoring happens.
type SearchFilters struct {
	Category  string
	Condition string
	Verified  *bool
	MinPrice  int64
	MaxPrice  int64
}
