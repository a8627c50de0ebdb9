package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ID prefixes and suffix widths for the three record families.
const (
	MemberIDPrefix      = "M"
	CycleIDPrefix       = "C"
	TransactionIDPrefix = "T"

	MemberIDWidth      = 3
	CycleIDWidth       = 3
	TransactionIDWidth = 4
)

// NextID generates the next identifier for a prefix: one more than the
// highest numeric suffix among existing ids, zero-padded to width.
// Malformed ids are ignored.
func NextID(prefix string, width int, existing []string) string {
	max := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(id[len(prefix):])
		if err != nil || n <= 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, width, max+1)
}
