package grouping

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Noise is the label given to points that belong to no dense cluster.
const Noise = -1

// Clusterer assigns a cluster label to every point; Noise marks outliers.
// Cluster labels are non-negative and numbered in discovery order.
type Clusterer interface {
	Cluster(points [][]float64) []int
}

// DBSCAN is density-based clustering with the standard reachability rules:
// a point is core when at least MinSamples points (itself included) lie within
// Eps of it, clusters grow through core points, and border points join the
// first cluster that reaches them.
type DBSCAN struct {
	Eps        float64
	MinSamples int
	// Distance defaults to CosineDistance.
	Distance func(a, b []float64) float64
}

// Cluster implements Clusterer.
func (c DBSCAN) Cluster(points [][]float64) []int {
	dist := c.Distance
	if dist == nil {
		dist = CosineDistance
	}

	n := len(points)
	neighbors := make([][]int, n)
	for i := range n {
		neighbors[i] = append(neighbors[i], i)
		for j := i + 1; j < n; j++ {
			if dist(points[i], points[j]) <= c.Eps {
				neighbors[i] = append(neighbors[i], j)
				neighbors[j] = append(neighbors[j], i)
			}
		}
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}

	next := 0
	for i := range n {
		if labels[i] != Noise || len(neighbors[i]) < c.MinSamples {
			continue
		}
		labels[i] = next
		stack := []int{i}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(neighbors[p]) < c.MinSamples {
				continue
			}
			for _, q := range neighbors[p] {
				if labels[q] == Noise {
					labels[q] = next
					stack = append(stack, q)
				}
			}
		}
		next++
	}
	return labels
}

// CosineDistance is 1 - cos(a, b) clamped to [0, 2]. Two zero vectors are at
// distance 0; a zero vector is at distance 1 from any non-zero vector.
// This intentionally differs from sklearn's cosine_distances, which puts two
// zero vectors at 1: records with no usable text must cluster together.
func CosineDistance(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	switch {
	case na == 0 && nb == 0:
		return 0
	case na == 0 || nb == 0:
		return 1
	}
	d := 1 - floats.Dot(a, b)/(na*nb)
	return math.Min(2, math.Max(0, d))
}
