package jobparse

import "fmt"

// ContentFetchError reports that a posting could not be turned into usable
// text: the fetch failed or the document had nothing to extract.
type ContentFetchError struct {
	URL string
	Msg string
	Err error
}

func (e *ContentFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("content fetch %s: %s: %v", e.URL, e.Msg, e.Err)
	}
	return fmt.Sprintf("content fetch %s: %s", e.URL, e.Msg)
}

func (e *ContentFetchError) Unwrap() error { return e.Err }
