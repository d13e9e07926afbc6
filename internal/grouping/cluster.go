package grouping

import "github.com/linnemanlabs/warden/internal/vuln"

// Default density parameters for text clustering.
const (
	DefaultEps        = 0.5
	DefaultMinSamples = 2
)

// TextClusterer splits a bucket into sub-groups of textually similar records.
type TextClusterer struct {
	featurizer Featurizer
	clusterer  Clusterer
}

// NewTextClusterer builds a TextClusterer. Nil arguments select TF-IDF with
// MaxComponents and DBSCAN with DefaultEps/DefaultMinSamples.
func NewTextClusterer(f Featurizer, c Clusterer) *TextClusterer {
	if f == nil {
		f = TFIDF{MaxComponents: MaxComponents}
	}
	if c == nil {
		c = DBSCAN{Eps: DefaultEps, MinSamples: DefaultMinSamples}
	}
	return &TextClusterer{featurizer: f, clusterer: c}
}

// Split partitions bucket into sub-groups ordered by the position of their
// first member. Every noise record becomes its own singleton. noise counts
// those singletons.
func (tc *TextClusterer) Split(bucket []vuln.Record) (subgroups [][]vuln.Record, noise int) {
	if len(bucket) < 2 {
		return [][]vuln.Record{bucket}, 0
	}

	docs := make([]string, len(bucket))
	for i := range bucket {
		docs[i] = bucket[i].Title + " " + bucket[i].Description
	}
	labels := tc.clusterer.Cluster(tc.featurizer.Features(docs))

	position := make(map[int]int)
	for i, label := range labels {
		if label == Noise {
			subgroups = append(subgroups, []vuln.Record{bucket[i]})
			noise++
			continue
		}
		pos, ok := position[label]
		if !ok {
			pos = len(subgroups)
			position[label] = pos
			subgroups = append(subgroups, nil)
		}
		subgroups[pos] = append(subgroups[pos], bucket[i])
	}
	return subgroups, noise
}
