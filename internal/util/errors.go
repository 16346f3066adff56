package util

import "errors"

var (
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrNoExtractableText  = errors.New("no extractable text found")
	ErrCollectionNotFound = errors.New("collection not found")

	ErrQuotaExhausted = errors.New("provider quota exhausted")
	ErrRateLimited    = errors.New("provider rate limited")
	ErrTransient      = errors.New("transient provider error")
	ErrPermanent      = errors.New("permanent provider error")
)
