package grouping

import (
	"slices"
	"testing"

	"github.com/linnemanlabs/warden/internal/vuln"
)

func TestSplit_SimilarPairAndOutlier(t *testing.T) {
	t.Parallel()

	tc := NewTextClusterer(nil, nil)
	got, noise := tc.Split([]vuln.Record{sqliA, tlsC, sqliB})

	if len(got) != 2 {
		t.Fatalf("subgroups = %d, want 2: %v", len(got), got)
	}
	if !slices.Equal(ids(got[0]), []string{"A", "B"}) {
		t.Errorf("subgroup[0] = %v, want [A B]", ids(got[0]))
	}
	if !slices.Equal(ids(got[1]), []string{"C"}) {
		t.Errorf("subgroup[1] = %v, want [C]", ids(got[1]))
	}
	if noise != 1 {
		t.Errorf("noise = %d, want 1", noise)
	}
}

func TestSplit_NoiseNeverMerged(t *testing.T) {
	t.Parallel()

	bucket := []vuln.Record{
		rec("1", "/e", "", "Open redirect", "The next parameter redirects anywhere"),
		rec("2", "/e", "", "Clickjacking", "Missing frame ancestors header"),
		rec("3", "/e", "", "Weak cookie flags", "Session cookie lacks secure attribute"),
	}

	got, noise := NewTextClusterer(nil, nil).Split(bucket)
	if len(got) != 3 {
		t.Fatalf("subgroups = %d, want 3", len(got))
	}
	for i, sg := range got {
		if len(sg) != 1 {
			t.Errorf("subgroup[%d] size = %d, want 1", i, len(sg))
		}
	}
	if noise != 3 {
		t.Errorf("noise = %d, want 3", noise)
	}
}

func TestSplit_EmptyTextClustersTogether(t *testing.T) {
	t.Parallel()

	bucket := []vuln.Record{
		rec("1", "/e", "CVE-1", "", ""),
		rec("2", "/e", "CVE-1", "", ""),
		rec("3", "/e", "CVE-1", "x", "?"),
	}

	got, noise := NewTextClusterer(nil, nil).Split(bucket)
	if len(got) != 1 {
		t.Fatalf("subgroups = %d, want 1", len(got))
	}
	if len(got[0]) != 3 {
		t.Errorf("subgroup size = %d, want 3", len(got[0]))
	}
	if noise != 0 {
		t.Errorf("noise = %d, want 0", noise)
	}
}

func TestSplit_EmptyAndNonEmptyStayApart(t *testing.T) {
	t.Parallel()

	bucket := []vuln.Record{
		rec("1", "/e", "CVE-1", "", ""),
		rec("2", "/e", "CVE-1", "Directory listing", "Index of / is exposed"),
	}

	got, _ := NewTextClusterer(nil, nil).Split(bucket)
	if len(got) != 2 {
		t.Fatalf("subgroups = %d, want 2", len(got))
	}
}

func TestSplit_IdenticalDocuments(t *testing.T) {
	t.Parallel()

	bucket := []vuln.Record{sqliA, sqliA, sqliA}
	bucket[1].ID, bucket[2].ID = "A2", "A3"

	got, _ := NewTextClusterer(nil, nil).Split(bucket)
	if len(got) != 1 || len(got[0]) != 3 {
		t.Fatalf("Split = %v, want one subgroup of 3", got)
	}
}

func TestSplit_SingleRecordBypassesClustering(t *testing.T) {
	t.Parallel()

	tc := NewTextClusterer(panicFeaturizer{}, nil)
	got, noise := tc.Split([]vuln.Record{sqliA})
	if len(got) != 1 || len(got[0]) != 1 || got[0][0].ID != "A" {
		t.Fatalf("Split = %v, want [[A]]", got)
	}
	if noise != 0 {
		t.Errorf("noise = %d, want 0", noise)
	}
}

func TestSplit_UsesInjectedClusterer(t *testing.T) {
	t.Parallel()

	bucket := []vuln.Record{sqliA, sqliB, tlsC}
	tc := NewTextClusterer(nil, fixedLabels{1, Noise, 1})

	got, noise := tc.Split(bucket)
	want := [][]string{{"A", "C"}, {"B"}}
	if len(got) != len(want) {
		t.Fatalf("subgroups = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !slices.Equal(ids(got[i]), want[i]) {
			t.Errorf("subgroup[%d] = %v, want %v", i, ids(got[i]), want[i])
		}
	}
	if noise != 1 {
		t.Errorf("noise = %d, want 1", noise)
	}
}

func TestSplit_WideVocabularyBucket(t *testing.T) {
	t.Parallel()

	docs := wideDocs()
	bucket := make([]vuln.Record, len(docs))
	for i, d := range docs {
		bucket[i] = rec(string(rune('a'+i)), "/e", "CVE-1", "", d)
	}

	got, _ := NewTextClusterer(nil, nil).Split(bucket)
	total := 0
	for _, sg := range got {
		total += len(sg)
	}
	if total != len(bucket) {
		t.Fatalf("records across subgroups = %d, want %d", total, len(bucket))
	}
	// the two near-identical alpha documents share a subgroup
	if !slices.Contains(ids(got[0]), "a") || !slices.Contains(ids(got[0]), "b") {
		t.Errorf("subgroup[0] = %v, want a and b together", ids(got[0]))
	}
}

type panicFeaturizer struct{}

func (panicFeaturizer) Features([]string) [][]float64 {
	panic("featurizer must not run for a single-record bucket")
}

type fixedLabels []int

func (f fixedLabels) Cluster([][]float64) []int { return f }
