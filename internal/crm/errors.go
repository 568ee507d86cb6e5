package crm

import "errors"

var (
	// ErrNotFound indicates the CRM has no such record.
	ErrNotFound = errors.New("crm record not found")

	// ErrTransient indicates a retryable CRM failure (5xx, timeout,
	// connection refused). The client retries these internally.
	ErrTransient = errors.New("crm transient failure")

	// ErrPermanent indicates the CRM rejected the request outright (4xx
	// other than 404). Never retried.
	ErrPermanent = errors.New("crm permanent rejection")

	// ErrRetryExhausted indicates all retry attempts failed on transient
	// errors.
	ErrRetryExhausted = errors.New("crm retry attempts exhausted")
)
