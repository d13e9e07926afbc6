package grouping

import (
	"strconv"

	"github.com/linnemanlabs/warden/internal/vuln"
)

const tagPrefix = "group_"

// Tag formats the tag for group number n.
func Tag(n int) string {
	return tagPrefix + strconv.Itoa(n)
}

// Assign tags each sub-group in order, starting at group number next, and
// returns the flattened rows together with the next unused group number.
func Assign(next int, subgroups [][]vuln.Record) ([]vuln.TaggedRecord, int) {
	var rows []vuln.TaggedRecord
	for _, members := range subgroups {
		if len(members) == 0 {
			continue
		}
		tag := Tag(next)
		next++
		for i := range members {
			rows = append(rows, members[i].Tagged(tag))
		}
	}
	return rows, next
}
