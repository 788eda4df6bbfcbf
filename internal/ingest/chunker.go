package ingest

import (
	"strings"
	"unicode"
)

// splitText splits text into chunks of at most size runes with the given
// overlap between consecutive chunks. Chunk boundaries prefer whitespace so
// words are not cut mid-way. Overlap must be smaller than size.
func splitText(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Walk back to the nearest whitespace so the chunk ends on a
			// word boundary. Give up after half the chunk.
			cut := end
			for cut > start+size/2 && !unicode.IsSpace(runes[cut-1]) {
				cut--
			}
			if cut > start+size/2 {
				end = cut
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
		// Always make forward progress, even when overlap >= chunk length.
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}
