package models

import "strings"

// Bucket groups event names by producer prefix. Only used for display and
// metric labels.
type Bucket string

const (
	BucketPrimary Bucket = "primary"
	BucketScroll  Bucket = "scroll"
	BucketVideo   Bucket = "video"
	BucketOther   Bucket = "other"
)

// BucketOf classifies an event name by its prefix.
func BucketOf(name string) Bucket {
	switch {
	case strings.HasPrefix(name, "corgi_"):
		return BucketPrimary
	case strings.HasPrefix(name, "scroll_"):
		return BucketScroll
	case strings.HasPrefix(name, "video_"):
		return BucketVideo
	default:
		return BucketOther
	}
}
