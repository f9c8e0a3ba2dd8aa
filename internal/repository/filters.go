package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Sort orders accepted by the list queries
const (
	SortNewest       = "newest"
	SortOldest       = "oldest"
	SortMostComments = "most_comments"
	SortTitle        = "title"
)

type DiscussionFilter struct {
	Category string
	Since    *time.Time
	Search   string
	Sort     string
}

// EventFilter bounds are inclusive YYYY-MM-DD dates; empty means unbounded
type EventFilter struct {
	From   string
	To     string
	Search string
}

type ResourceFilter struct {
	Type   string
	Search string
	Sort   string
}

type AnnouncementFilter struct {
	Since  *time.Time
	Search string
}

// likePattern turns a free-text term into a LIKE pattern, escaping wildcards
func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(term)) + "%"
}

// whereSearch adds a substring match across columns. The term is passed
// through unchanged: SQLite's LIKE folds ASCII case only and Postgres ILIKE
// folds per its collation, so letters outside ASCII still match exactly.
func whereSearch(q *gorm.DB, term string, columns ...string) *gorm.DB {
	if strings.TrimSpace(term) == "" {
		return q
	}
	op := "LIKE"
	if q.Dialector.Name() == "postgres" {
		op = "ILIKE"
	}
	pattern := likePattern(term)
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = col + " " + op + ` ? ESCAPE '\'`
		args[i] = pattern
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}
