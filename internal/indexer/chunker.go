package indexer

import (
	"fmt"
	"strings"
)

const (
	// minAdjustedSize is the floor for the shrunken target on short documents.
	minAdjustedSize = 50
	// minAdjustedOverlap is the floor for the shrunken overlap on short documents.
	minAdjustedOverlap = 10
	// longDocThreshold is the word count above which the target size doubles.
	longDocThreshold = 5000
	// maxAdjustedSize caps the doubled target for very long documents.
	maxAdjustedSize = 2000
)

// ChunkText splits text into overlapping word windows. The window size adapts
// to the document: short documents shrink the target so they still yield
// more than one meaningful chunk, very long documents double it to bound the
// chunk count. Within a document the returned chunks preserve word order, and
// each chunk overlaps its predecessor by the overlap word count.
func ChunkText(text string, targetSize, overlap int) ([]string, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than 0, got %d", targetSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= targetSize {
		// A non-positive advance would loop forever.
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, targetSize)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	if len(words) < targetSize {
		targetSize = len(words) / 2
		if targetSize < minAdjustedSize {
			targetSize = minAdjustedSize
		}
		overlap = targetSize / 10
		if overlap < minAdjustedOverlap {
			overlap = minAdjustedOverlap
		}
	} else if len(words) > longDocThreshold {
		targetSize *= 2
		if targetSize > maxAdjustedSize {
			targetSize = maxAdjustedSize
		}
		if overlap >= targetSize {
			// The cap can undercut a large caller overlap; the advance
			// would go non-positive.
			return nil, fmt.Errorf("chunk overlap (%d) must be smaller than the adjusted chunk size (%d)", overlap, targetSize)
		}
	}

	var chunks []string
	for start := 0; start < len(words); start += targetSize - overlap {
		end := start + targetSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks, nil
}
