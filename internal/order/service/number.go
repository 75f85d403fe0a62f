package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const numberSuffixLen = 10

// NewOrderNumber builds "<prefix>-YYYYMMDD-<suffix>" where the suffix is the
// random tail of a ULID. The unique index on order_number is the final guard.
func NewOrderNumber(prefix string, now time.Time) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "ORD"
	}
	id := ulid.Make().String()
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), id[len(id)-numberSuffixLen:])
}
