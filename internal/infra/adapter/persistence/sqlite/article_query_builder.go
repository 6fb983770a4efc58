package sqlite

import (
	"strconv"
	"strings"

	"feedreader/internal/repository"
)

// ArticleQueryBuilder builds the WHERE/JOIN clause a stream read (spec.md
// §4.9 stream contents/ids) resolves to, shared between the row query and
// any future count query so the two never drift apart.
type ArticleQueryBuilder struct{}

// NewArticleQueryBuilder creates a new query builder instance.
func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{}
}

// Build returns the JOIN clause (always an inner join against feeds
// enforcing the owned-or-shared-and-enabled access rule, spec.md §4.8,
// plus a LEFT JOIN against article_states aliased "st" when the query
// needs read/starred filtering) and the WHERE clause, with bound args in
// the order they must appear before LIMIT/OFFSET.
func (qb *ArticleQueryBuilder) Build(q repository.ArticleQuery) (joinClause, whereClause string, args []interface{}) {
	var conditions []string

	joinClause = "INNER JOIN feeds f ON f.id = a.feed_id AND f.enabled = 1 AND (f.owner_id = ? OR f.owner_id IS NULL)"
	args = append(args, q.UserID)

	needsStateJoin := q.OnlyStarred || q.OnlyRead || q.ExcludeState != "" || q.RequireState != ""
	if needsStateJoin {
		joinClause += " LEFT JOIN article_states st ON st.article_id = a.id AND st.user_id = ?"
		args = append(args, q.UserID)
	}

	if len(q.FeedIDs) > 0 {
		placeholders := make([]string, len(q.FeedIDs))
		for i, id := range q.FeedIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, "a.feed_id IN ("+strings.Join(placeholders, ",")+")")
	}

	if q.OnlyStarred {
		conditions = append(conditions, "st.starred = 1")
	}
	if q.OnlyRead {
		conditions = append(conditions, "st.read = 1")
	} else if q.ExcludeState == "read" {
		conditions = append(conditions, "(st.read IS NULL OR st.read = 0)")
	}
	if q.RequireState == "starred" {
		conditions = append(conditions, "st.starred = 1")
	}

	if q.PublishedAfter != nil {
		conditions = append(conditions, "a.date >= ?")
		args = append(args, *q.PublishedAfter)
	}

	if len(conditions) == 0 {
		return joinClause, "", args
	}
	return joinClause, "WHERE " + strings.Join(conditions, " AND "), args
}

// OrderAndLimit renders the ORDER BY/LIMIT/OFFSET suffix and appends the
// limit/offset bind args, matching spec.md §4.9's r=o ascending toggle.
func (qb *ArticleQueryBuilder) OrderAndLimit(q repository.ArticleQuery, args []interface{}) (suffix string, outArgs []interface{}) {
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	suffix = "ORDER BY a.date " + dir + " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(maxInt(q.Offset, 0))
	return suffix, args
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
