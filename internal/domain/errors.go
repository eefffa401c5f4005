package domain

import "fmt"

// FetchError reports a non-200 response from the event service. It is the
// only failure that still produces sequence output: a single error line.
type FetchError struct {
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("usgs API error: status %d", e.StatusCode)
}

// Line renders the error as the sequence's only line.
func (e *FetchError) Line() string {
	return ErrorLine(e.StatusCode)
}
