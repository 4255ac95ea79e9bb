package indexer

import (
	"math"
	"sort"
	"unicode/utf8"
)

// runesPerToken approximates token counts for passage size reporting.
const runesPerToken = 4.0

// Report summarizes one ingestion run.
type Report struct {
	FilesScanned     int              `json:"filesScanned"`
	FilesIndexed     int              `json:"filesIndexed"`
	FilesUnchanged   int              `json:"filesUnchanged"`
	FilesFailed      int              `json:"filesFailed"`
	PassagesWritten  int              `json:"passagesWritten"`
	PassagesByLevel  map[string]int   `json:"passagesByLevel"`
	PassageTokenSize PassageTokenSize `json:"passageTokenSize"`

	tokenCounts []int
}

// PassageTokenSize describes the estimated token counts of written passages.
type PassageTokenSize struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func newReport() *Report {
	return &Report{PassagesByLevel: make(map[string]int)}
}

func (r *Report) addPassages(level string, chunks []Chunk) {
	r.PassagesWritten += len(chunks)
	r.PassagesByLevel[level] += len(chunks)
	for _, c := range chunks {
		r.tokenCounts = append(r.tokenCounts, estimateTokens(c.Text))
	}
}

func (r *Report) finish() {
	r.PassageTokenSize = computeTokenStats(r.tokenCounts)
}

func estimateTokens(s string) int {
	return int(math.Ceil(float64(utf8.RuneCountInString(s)) / runesPerToken))
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) PassageTokenSize {
	if len(tokenCounts) == 0 {
		return PassageTokenSize{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	p95Index = max(0, min(p95Index, len(sorted)-1))

	return PassageTokenSize{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
