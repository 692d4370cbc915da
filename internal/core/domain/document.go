package domain

import (
	"time"
	"unicode/utf8"
)

// Document is the text content fetched for one URL.
// It is created by a Loader and consumed by the Chunker.
type Document struct {
	// Source is the originating URL.
	Source string

	// Title is the page title, if the loader found one.
	Title string

	// Content is the extracted text.
	Content string

	// ContentType is the media type reported by the server.
	ContentType string

	// FetchedAt is when the document was loaded.
	FetchedAt time.Time
}

// Len returns the document length in characters.
func (d Document) Len() int {
	return utf8.RuneCountInString(d.Content)
}

// Chunk is a contiguous substring of a document's text.
// Chunks of one document are ordered by Position.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Source is the originating document's URL.
	Source string

	// Content is the chunk text.
	Content string

	// Position is the ordinal position within the document.
	Position int
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int {
	return utf8.RuneCountInString(c.Content)
}
