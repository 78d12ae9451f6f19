package domain

// RetrievedChunk is one nearest-neighbour hit from the vector index.
// ID is assigned at index-build time and is unique within the index.
type RetrievedChunk struct {
	ID    string
	Text  string
	URL   string
	Title string
	// Distance is non-negative; lower means more similar.
	Distance float32
}

// IndexedChunk is a chunk ready to be written to the vector index.
type IndexedChunk struct {
	ID        string
	Text      string
	URL       string
	Title     string
	Embedding []float32
}

// Page is one scraped corpus record. The corpus is stored as newline-delimited JSON.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}
