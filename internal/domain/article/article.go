package article

import "time"

// Article is the read-only projection of the content subsystem that the
// roster aggregation needs. The full article model lives elsewhere; we only
// ever see when a piece was written and how often it was favorited.
type Article struct {
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	FavoritesCount int       `json:"favoritesCount"`
}
