package filters

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"siteflow/internal/apperr"

	"gorm.io/gorm"
)

type DateBucket string

const (
	BucketToday     DateBucket = "today"
	BucketYesterday DateBucket = "yesterday"
	BucketWeek      DateBucket = "week"
	BucketMonth     DateBucket = "month"
)

var commentOrderColumns = map[string]string{
	"timestamp": "comments.timestamp",
	"user":      "comments.user_id",
}

type CommentQuery struct {
	Search   string
	IssueID  uint
	UserID   uint
	Date     DateBucket
	Ordering []string
}

func ParseCommentQuery(v url.Values) (CommentQuery, error) {
	q := CommentQuery{Search: strings.TrimSpace(v.Get("search"))}

	var err error
	if q.IssueID, err = optionalID(v, "issue_id"); err != nil {
		return CommentQuery{}, err
	}
	if q.UserID, err = optionalID(v, "user_id"); err != nil {
		return CommentQuery{}, err
	}

	if s := v.Get("date"); s != "" {
		q.Date = DateBucket(s)
		switch q.Date {
		case BucketToday, BucketYesterday, BucketWeek, BucketMonth:
		default:
			return CommentQuery{}, apperr.Newf(apperr.InvalidArgument,
				"invalid date %q: must be today, yesterday, week or month", s)
		}
	}

	if q.Ordering, err = parseOrdering(v.Get("ordering"), commentOrderColumns); err != nil {
		return CommentQuery{}, err
	}
	if len(q.Ordering) == 0 {
		q.Ordering = []string{"comments.timestamp DESC"}
	}
	return q, nil
}

// DateRange returns the half-open [from, to) interval of a bucket relative
// to now's calendar day. A zero to means no upper bound.
func DateRange(b DateBucket, now time.Time) (from, to time.Time, ok bool) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	switch b {
	case BucketToday:
		return today, today.AddDate(0, 0, 1), true
	case BucketYesterday:
		return today.AddDate(0, 0, -1), today, true
	case BucketWeek:
		return today.AddDate(0, 0, -7), time.Time{}, true
	case BucketMonth:
		return today.AddDate(0, 0, -30), time.Time{}, true
	}
	return time.Time{}, time.Time{}, false
}

// Apply filters a comments query; now anchors the date buckets.
func (q CommentQuery) Apply(db *gorm.DB, now time.Time) *gorm.DB {
	if q.Search != "" {
		db = db.Where("LOWER(comments.content) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}
	if q.IssueID != 0 {
		db = db.Where("comments.issue_id = ?", q.IssueID)
	}
	if q.UserID != 0 {
		db = db.Where("comments.user_id = ?", q.UserID)
	}
	if from, to, ok := DateRange(q.Date, now); ok {
		db = db.Where("comments.timestamp >= ?", from)
		if !to.IsZero() {
			db = db.Where("comments.timestamp < ?", to)
		}
	}
	for _, o := range q.Ordering {
		db = db.Order(o)
	}
	return db
}

func optionalID(v url.Values, key string) (uint, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Newf(apperr.InvalidArgument, "%s must be a positive integer", key)
	}
	return uint(id), nil
}
