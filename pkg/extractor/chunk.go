package extractor

import "strings"

type Chunk struct {
	Index      int
	Text       string
	PageNumber int
}

// Split 按词切块，相邻块重叠 overlap 个词，页码取块首词所在页
func Split(pages []Page, size, overlap int) []Chunk {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var (
		words   []string
		pageNos []int
	)
	for _, p := range pages {
		for _, w := range strings.Fields(p.Text) {
			words = append(words, w)
			pageNos = append(pageNos, p.Number)
		}
	}

	var chunks []Chunk
	step := size - overlap
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Text:       strings.Join(words[start:end], " "),
			PageNumber: pageNos[start],
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
