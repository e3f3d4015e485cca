package models

import (
	"time"
)

type WishlistEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

type WishlistEntryWithItem struct {
	WishlistEntry
	Item Item `json:"item"`
}
