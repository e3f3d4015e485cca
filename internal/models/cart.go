package models

import (
	"time"
)

type CartEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CartEntryWithItem struct {
	CartEntry
	Item Item `json:"item"`
}
