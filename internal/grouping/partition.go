package grouping

import "github.com/linnemanlabs/warden/internal/vuln"

// Key is the exact-match bucket key. An empty CVE is an ordinary value.
type Key struct {
	Endpoint string
	CVE      string
}

// Bucket is the ordered set of records sharing one Key.
type Bucket struct {
	Key     Key
	Records []vuln.Record
}

// Partition splits records into buckets by exact (endpoint, CVE) match.
// Buckets come out in order of their key's first occurrence and keep input
// order internally.
func Partition(records []vuln.Record) []Bucket {
	var buckets []Bucket
	index := make(map[Key]int)
	for _, r := range records {
		k := Key{Endpoint: r.Endpoint, CVE: r.CVE}
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Key: k})
		}
		buckets[i].Records = append(buckets[i].Records, r)
	}
	return buckets
}
