package internal

import (
	"fmt"
	"strings"
)

// NotFoundError: the product code has no records in the store at all.
type NotFoundError struct {
	Product string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("no data found for product: %s", e.Product)
}

// NoPassingDataError: the product exists but no record passed both RFT checks.
type NoPassingDataError struct {
	Product string
}

func (e NoPassingDataError) Error() string {
	return fmt.Sprintf("no matching data found for both RFT-ext. and RFT-Mill for product: %s", e.Product)
}

// NoThroughputDataError: passing records exist but none carries a usable mill
// throughput. Callers treat this as a soft warning, not a hard failure.
type NoThroughputDataError struct {
	Product string
}

func (e NoThroughputDataError) Error() string {
	return fmt.Sprintf("no valid numerical data in %q for product: %s", ColThroughputMill, e.Product)
}

// SchemaError: an uploaded table is missing required source columns.
type SchemaError struct {
	Source  SourceType
	Missing []string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("%s table missing required column(s): %s", e.Source, strings.Join(e.Missing, ", "))
}

// MergeError: a merge was attempted before all four tables were staged.
type MergeError struct {
	Missing []SourceType
}

func (e MergeError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, s := range e.Missing {
		names = append(names, string(s))
	}
	return fmt.Sprintf("merge requires all four tables; missing: %s", strings.Join(names, ", "))
}

// UpstreamError: the external product-list fetch failed. Status is the
// upstream HTTP status when one was received, 0 otherwise.
type UpstreamError struct {
	Status int
	Err    error
}

func (e UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream fetch failed: status=%d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream fetch failed: %v", e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }
