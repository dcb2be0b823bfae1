package repository

import (
	"strings"

	"gorm.io/gorm"
	"seungpyo.lee/BlogPlatform/internal/domain"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// postFilter applies the visibility, category and search filters of q.
// Pagination and ordering are left to the caller so the same scope serves
// the count.
func postFilter(q domain.PostQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		published := true
		if q.Published != nil {
			published = *q.Published
		}
		db = db.Where("posts.is_published = ?", published)

		if q.CategoryID != nil {
			db = db.Where("posts.category_id = ?", *q.CategoryID)
		}
		if q.Search != "" {
			like := "%" + escapeLike(q.Search) + "%"
			db = db.Where(
				"(posts.title ILIKE ? OR posts.content ILIKE ? OR EXISTS (SELECT 1 FROM unnest(posts.tags) AS tag WHERE tag ILIKE ?))",
				like, like, like,
			)
		}
		return db
	}
}

func paginate(w domain.Window) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(w.Offset()).Limit(w.Limit)
	}
}

// Display columns resolved at read time.
func selectPostAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "avatar", "bio")
}

func selectListAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "avatar")
}

func selectCategory(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "slug", "color")
}

func selectCommentAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "avatar")
}
