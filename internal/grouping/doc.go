// Package grouping partitions vulnerability records into triage groups.
//
// The pipeline runs in three stages: Partition buckets records by exact
// (endpoint, CVE) key, TextClusterer.Split breaks each multi-record bucket into
// text-similarity clusters (TF-IDF, truncated SVD, DBSCAN over cosine distance),
// and Assign labels every resulting sub-group with a run-unique tag.
package grouping
