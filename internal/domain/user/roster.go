package user

import (
	"time"

	"github.com/mbellini/userhub/internal/domain/article"
)

// RosterEntry is the derived, read-only summary of one user's authored
// content. It is computed on demand and never stored.
type RosterEntry struct {
	Username         string     `json:"username"`
	ProfileLink      string     `json:"profileLink"`
	ArticlesCount    int        `json:"articlesCount"`
	FavoritesCount   int        `json:"favoritesCount"`
	FirstArticleDate *time.Time `json:"firstArticleDate"`
}

// Summarize folds a user's article projections into a RosterEntry:
// article count, favorites sum and the earliest createdAt. FirstArticleDate
// stays nil when the user has written nothing.
func Summarize(u User, articles []article.Article) RosterEntry {
	entry := RosterEntry{
		Username:      u.Username,
		ProfileLink:   "/profiles/" + u.Username,
		ArticlesCount: len(articles),
	}

	for _, a := range articles {
		if a.FavoritesCount > 0 {
			entry.FavoritesCount += a.FavoritesCount
		}

		if entry.FirstArticleDate == nil || a.CreatedAt.Before(*entry.FirstArticleDate) {
			created := a.CreatedAt
			entry.FirstArticleDate = &created
		}
	}

	return entry
}
