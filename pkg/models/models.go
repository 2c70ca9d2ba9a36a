package models

import "time"

// Paper is one record returned by a paper source. Immutable once fetched.
type Paper struct {
	ID            string   `json:"id"`
	ArxivID       string   `json:"arxiv_id,omitempty"`
	Title         string   `json:"title"`
	Abstract      string   `json:"abstract"`
	Authors       []string `json:"authors"`
	Published     string   `json:"published,omitempty"`
	URL           string   `json:"url,omitempty"`
	PDFURL        string   `json:"url_pdf,omitempty"`
	Venue         string   `json:"venue,omitempty"`
	CitationCount int      `json:"citation_count,omitempty"`
}

// Chunk is a bounded slice of a paper's abstract plus the parent metadata,
// the unit of embedding and retrieval.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Index     int       `json:"index"`
	Paper     Paper     `json:"paper"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// FailureKind classifies where an answer attempt broke down.
type FailureKind string

const (
	FailureRetrieval  FailureKind = "retrieval"
	FailureGeneration FailureKind = "generation"
)

// Failure is the typed error half of a Prediction. Callers branch on it
// instead of pattern-matching the answer text.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Prediction is the outcome of one question: either Answer is a real model
// response (Failure == nil), or Answer holds a user-facing apology and
// Failure says why.
type Prediction struct {
	Answer  string         `json:"answer"`
	Sources []SearchResult `json:"sources"`
	Context string         `json:"context"`
	Failure *Failure       `json:"failure,omitempty"`
}

// OK reports whether the prediction is a genuine model answer.
func (p Prediction) OK() bool { return p.Failure == nil }
