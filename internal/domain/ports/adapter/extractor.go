package adapter

import "context"

// DocumentExtractor maps a document URL (CV upload, attachment) to extracted
// plain text. Extraction failures are non-fatal to generation; callers fold
// the text into the prompt only when available.
type DocumentExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}
