package domain

import (
	"regexp"
	"time"
)

// FreshnessWindow is the maximum age of a durable product record before it is re-fetched.
const FreshnessWindow = 30 * 24 * time.Hour

// asinPattern matches a complete product identifier: exactly 10 uppercase alphanumerics.
var asinPattern = regexp.MustCompile(`^[0-9A-Z]{10}$`)

// IsValidASIN reports whether s is a well-formed Amazon product identifier
func IsValidASIN(s string) bool {
	return asinPattern.MatchString(s)
}

// FetchStatus is the outcome of the most recent upstream resolution attempt
type FetchStatus string

const (
	FetchStatusUnset FetchStatus = ""
	FetchStatusOK    FetchStatus = "ok"
	FetchStatusMiss  FetchStatus = "miss"
)

// ProductRecord is the durable, per-ASIN record of the last known product images.
// If FetchStatus is FetchStatusOK then ImageURL is non-empty.
type ProductRecord struct {
	ASIN          string      `json:"asin" db:"asin" dynamodbav:"asin"`
	Title         *string     `json:"title,omitempty" db:"title" dynamodbav:"title,omitempty"`
	ImageURL      *string     `json:"imageUrl,omitempty" db:"image_url" dynamodbav:"image_url,omitempty"`
	ImageURL2x    *string     `json:"imageUrl2x,omitempty" db:"image_url_2x" dynamodbav:"image_url_2x,omitempty"`
	LastFetchedAt *time.Time  `json:"lastFetchedAt,omitempty" db:"last_fetched_at" dynamodbav:"last_fetched_at,omitempty"`
	FetchStatus   FetchStatus `json:"fetchStatus,omitempty" db:"fetch_status" dynamodbav:"fetch_status,omitempty"`
}

// HasImage reports whether the record carries a usable primary image
func (r *ProductRecord) HasImage() bool {
	return r != nil && r.ImageURL != nil && *r.ImageURL != ""
}

// IsFresh reports whether the record was fetched no more than FreshnessWindow before now.
// A record fetched exactly FreshnessWindow ago is still fresh.
func (r *ProductRecord) IsFresh(now time.Time) bool {
	if r == nil || r.LastFetchedAt == nil {
		return false
	}
	return now.Sub(*r.LastFetchedAt) <= FreshnessWindow
}

// CacheEntry is the ephemeral, derived view of a product record.
// A Negative entry records "fetch attempted, no result".
type CacheEntry struct {
	ImageURL   string `json:"imageUrl,omitempty"`
	ImageURL2x string `json:"imageUrl2x,omitempty"`
	Title      string `json:"title,omitempty"`
	Negative   bool   `json:"negative,omitempty"`
}

// CacheEntryFromRecord rebuilds the ephemeral view of a durable record
func CacheEntryFromRecord(r *ProductRecord) *CacheEntry {
	entry := &CacheEntry{}
	if r.ImageURL != nil {
		entry.ImageURL = *r.ImageURL
	}
	if r.ImageURL2x != nil {
		entry.ImageURL2x = *r.ImageURL2x
	}
	if r.Title != nil {
		entry.Title = *r.Title
	}
	return entry
}

// Images converts a positive cache entry into the normalized resolver result
func (e *CacheEntry) Images() *ProductImages {
	src2x := e.ImageURL2x
	if src2x == "" {
		src2x = e.ImageURL
	}
	return &ProductImages{
		Src:   e.ImageURL,
		Src2x: src2x,
		Title: e.Title,
	}
}

// ProductImages is the normalized result of resolving a product: standard and
// high-resolution image URLs plus the display title.
type ProductImages struct {
	Src   string `json:"src"`
	Src2x string `json:"src2x"`
	Title string `json:"title,omitempty"`
}
