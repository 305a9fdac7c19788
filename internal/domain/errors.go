package domain

import "errors"

var (
	// ErrProductNotFound is returned when no durable record exists for an ASIN
	ErrProductNotFound = errors.New("product not found")

	// ErrArticleNotFound is returned when no article matches the requested slug
	ErrArticleNotFound = errors.New("article not found")

	// ErrInvalidASIN is returned when a product identifier is not 10 uppercase alphanumerics
	ErrInvalidASIN = errors.New("invalid ASIN")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrStoreUnavailable is returned when the durable product store cannot be read or written
	ErrStoreUnavailable = errors.New("product store unavailable")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrUpstreamUnavailable is returned when the product API cannot produce a result
	ErrUpstreamUnavailable = errors.New("product API unavailable")
)
