package domain

import "time"

type Article struct {
	URL      string
	Title    string
	Body     string
	Markdown string
	Excerpt  string
	SiteName string
}

// Chunk is a contiguous window [Start, End) of the body token sequence
// together with its decoded text.
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

func (c Chunk) Len() int {
	return c.End - c.Start
}

type Result struct {
	Article Article
	Summary string
	Chunks  int
	Elapsed time.Duration
}
