package indexer

// Chunk is one passage of a markdown document.
type Chunk struct {
	Index       int    // Position within the document, starting at 0
	HeadingPath string // Format: "# Heading1 > ## Heading2"
	Text        string
}
