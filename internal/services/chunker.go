package services

import (
	"strings"
	"unicode/utf8"
)

// TextChunker splits long analysis text into overlapping pieces small enough
// for the embedding model.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder
	currentRunes := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
		current.Reset()
		currentRunes = 0
		if overlap > 0 {
			tail := lastNRunes(chunks[len(chunks)-1], overlap)
			if tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
				currentRunes = utf8.RuneCountInString(tail) + 2
			}
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// Oversized paragraphs are split hard at the chunk boundary.
		paraRunes := utf8.RuneCountInString(para)
		for paraRunes > maxChunkSize {
			flush()
			head := firstNRunes(para, maxChunkSize)
			chunks = append(chunks, head)
			para = strings.TrimSpace(para[len(head):])
			paraRunes = utf8.RuneCountInString(para)
		}
		if para == "" {
			continue
		}

		// Sizes are compared in runes so multi-byte scripts fill chunks as
		// far as single-byte text does.
		if currentRunes+paraRunes+2 > maxChunkSize {
			flush()
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
			currentRunes += 2
		}
		current.WriteString(para)
		currentRunes += paraRunes
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func firstNRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

func lastNRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
