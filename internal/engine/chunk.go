package engine

import "strings"

const (
	// chunkTokenLimit caps the estimated token count per chunk, leaving
	// headroom under the embedding model's input limit.
	chunkTokenLimit = 480

	// chunkOverlapTokens is the approximate token budget carried over
	// between adjacent chunks to preserve context across boundaries.
	chunkOverlapTokens = 80
)

// ChunkText splits extracted text on paragraph boundaries into ordered
// chunks. Paragraphs accumulate until the token limit, and the tail
// paragraphs of each chunk repeat at the head of the next. A paragraph
// larger than the limit becomes a chunk of its own.
func (e *gemini) ChunkText(text string) []Chunk {
	var chunks []Chunk
	var current []string
	currentTokens := 0
	position := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		content := strings.Join(current, "\n\n")
		chunks = append(chunks, Chunk{
			Content:    content,
			TokenCount: estimateTokens(content),
			Position:   position,
		})
		position++

		overlapTokens := 0
		var overlap []string
		for i := len(current) - 1; i >= 0; i-- {
			t := estimateTokens(current[i])
			if overlapTokens+t > chunkOverlapTokens {
				break
			}
			overlapTokens += t
			overlap = append([]string{current[i]}, overlap...)
		}
		// A single oversized paragraph would repeat forever as its own
		// overlap, so carry nothing forward in that case.
		if len(overlap) == len(current) {
			overlap = nil
			overlapTokens = 0
		}
		current = overlap
		currentTokens = overlapTokens
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		tokens := estimateTokens(paragraph)
		if currentTokens+tokens > chunkTokenLimit && len(current) > 0 {
			flush()
		}
		current = append(current, paragraph)
		currentTokens += tokens
	}
	flush()

	return chunks
}

// estimateTokens approximates the model tokenizer: whitespace-delimited
// words weighted up for subword splitting, non-ASCII runes counted
// individually.
func estimateTokens(text string) int {
	count := 0
	for _, r := range text {
		if r > 127 {
			count++
		}
	}
	words := len(strings.Fields(text))
	return count + words + words/3
}
