package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"askdoc/internal/domain"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// SentenceChunker packs whole sentences into chunks of at most chunkSize
// characters. Each chunk after the first starts with up to chunkOverlap
// characters from the end of the previous one: whole sentences when they fit,
// trailing words otherwise.
type SentenceChunker struct {
	chunkSize    int
	chunkOverlap int
	splitter     *regexp.Regexp
}

func NewSentenceChunker(chunkSize, chunkOverlap int) *SentenceChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &SentenceChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		splitter:     regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`),
	}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	sentences := c.sentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}

	var (
		chunks  []domain.Chunk
		current []string
	)
	emit := func() {
		idx := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:       document.ID + ":" + strconv.Itoa(idx),
			Source:   document.Path,
			Position: idx,
			Text:     strings.Join(current, " "),
		})
	}
	for _, s := range sentences {
		if len(current) > 0 && joinedLen(current)+1+runeLen(s) > c.chunkSize {
			emit()
			current = c.overlapTail(current)
			for len(current) > 0 && joinedLen(current)+1+runeLen(s) > c.chunkSize {
				current = current[1:]
			}
		}
		current = append(current, s)
	}
	if len(current) > 0 {
		emit()
	}
	return chunks, nil
}

// overlapTail returns the longest run of trailing sentences that fits in the
// overlap budget. When even the last sentence is too long, it falls back to
// the trailing words of that sentence.
func (c *SentenceChunker) overlapTail(sentences []string) []string {
	if c.chunkOverlap == 0 || len(sentences) == 0 {
		return nil
	}
	start := len(sentences)
	for start > 0 {
		if joinedLen(sentences[start-1:]) > c.chunkOverlap {
			break
		}
		start--
	}
	if start < len(sentences) {
		return append([]string(nil), sentences[start:]...)
	}
	if tail := tailWords(sentences[len(sentences)-1], c.chunkOverlap); tail != "" {
		return []string{tail}
	}
	return nil
}

// tailWords returns at most n trailing runes of s, starting at a word boundary.
func tailWords(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	tail := string(r[len(r)-n:])
	if !unicode.IsSpace(r[len(r)-n-1]) {
		i := strings.IndexFunc(tail, unicode.IsSpace)
		if i < 0 {
			return ""
		}
		tail = tail[i:]
	}
	return strings.TrimSpace(tail)
}

func (c *SentenceChunker) sentences(text string) []string {
	var out []string
	for _, raw := range c.splitter.FindAllString(text, -1) {
		s := strings.Join(strings.Fields(raw), " ")
		if s == "" {
			continue
		}
		out = append(out, c.hardSplit(s)...)
	}
	return out
}

// hardSplit breaks a sentence longer than chunkSize on word boundaries,
// and a single word longer than chunkSize on rune boundaries.
func (c *SentenceChunker) hardSplit(s string) []string {
	if runeLen(s) <= c.chunkSize {
		return []string{s}
	}
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, w := range strings.Fields(s) {
		for runeLen(w) > c.chunkSize {
			flush()
			r := []rune(w)
			out = append(out, string(r[:c.chunkSize]))
			w = string(r[c.chunkSize:])
		}
		if cur.Len() > 0 && runeLen(cur.String())+1+runeLen(w) > c.chunkSize {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	flush()
	return out
}

func joinedLen(parts []string) int {
	n := 0
	for i, p := range parts {
		if i > 0 {
			n++
		}
		n += runeLen(p)
	}
	return n
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
