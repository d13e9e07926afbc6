package grouping

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// MaxComponents caps the feature dimensionality handed to the clusterer.
const MaxComponents = 50

// Featurizer turns a bucket's documents into one numeric vector per document.
type Featurizer interface {
	Features(docs []string) [][]float64
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

func tokenize(doc string) []string {
	return tokenPattern.FindAllString(strings.ToLower(doc), -1)
}

// TFIDF weights terms by smoothed inverse document frequency over the bucket
// and, when the vocabulary is wider than MaxComponents, projects the vectors
// onto their leading right singular vectors.
type TFIDF struct {
	MaxComponents int
}

// Features implements Featurizer. Documents with no tokens map to zero vectors.
func (t TFIDF) Features(docs []string) [][]float64 {
	rows, width := tfidf(docs)
	limit := t.MaxComponents
	if limit <= 0 {
		limit = MaxComponents
	}
	if width <= limit {
		return densify(rows, width)
	}
	if reduced, ok := truncatedSVD(rows, width, limit); ok {
		return reduced
	}
	return densify(rows, width)
}

// sparseRow holds the non-zero weights of one document in ascending column order.
type sparseRow struct {
	cols []int
	vals []float64
}

func densify(rows []sparseRow, width int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, width)
		for p, c := range r.cols {
			out[i][c] = r.vals[p]
		}
	}
	return out
}

// tfidf returns L2-normalised raw-count * idf rows over a sorted vocabulary,
// with idf = ln((1+n)/(1+df)) + 1.
func tfidf(docs []string) ([]sparseRow, int) {
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, tok := range tokenize(doc) {
			if counts[i][tok] == 0 {
				df[tok]++
			}
			counts[i][tok]++
		}
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)
	column := make(map[string]int, len(vocab))
	for i, term := range vocab {
		column[term] = i
	}

	n := float64(len(docs))
	rows := make([]sparseRow, len(docs))
	for i := range docs {
		r := sparseRow{cols: make([]int, 0, len(counts[i]))}
		for term := range counts[i] {
			r.cols = append(r.cols, column[term])
		}
		sort.Ints(r.cols)
		r.vals = make([]float64, len(r.cols))
		for p, c := range r.cols {
			term := vocab[c]
			r.vals[p] = float64(counts[i][term]) * (math.Log((1+n)/(1+float64(df[term]))) + 1)
		}
		if norm := floats.Norm(r.vals, 2); norm > 0 {
			floats.Scale(1/norm, r.vals)
		}
		rows[i] = r
	}
	return rows, len(vocab)
}
