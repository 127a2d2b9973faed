// Package sector maps NACE activity codes to the lead list's sector buckets.
package sector

import "strings"

// Buckets, in precedence order. When an enterprise carries several NACE codes
// the earliest bucket in this order wins, so classification does not depend
// on the order codes appear in the activity table.
const (
	Beauty        = "beauty"
	Horeca        = "horeca"
	Health        = "health"
	Retail        = "retail"
	ServiceTrades = "service_trades"
	Other         = "other"
)

// prefixBuckets maps NACE prefixes to buckets. More specific prefixes come
// before broader ones.
var prefixBuckets = []struct {
	prefix string
	bucket string
}{
	{"96.02", Beauty}, // hair and beauty treatment
	{"9602", Beauty},
	{"56", Horeca},
	{"86", Health},
	{"47", Retail},
	{"43", ServiceTrades},
	{"81", ServiceTrades},
	{"95", ServiceTrades},
}

// bucketRank orders buckets for multi-code precedence; lower wins.
var bucketRank = map[string]int{
	Beauty:        0,
	Horeca:        1,
	Health:        2,
	Retail:        3,
	ServiceTrades: 4,
	Other:         5,
}

// NormalizeNACE canonicalizes a raw NACE code into dotted comparable form.
func NormalizeNACE(code string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(code)), ",", ".")
}

// FromCode maps a single NACE code to its bucket.
func FromCode(code string) string {
	normalized := NormalizeNACE(code)
	if normalized == "" {
		return Other
	}
	for _, pb := range prefixBuckets {
		if strings.HasPrefix(normalized, pb.prefix) {
			return pb.bucket
		}
	}
	return Other
}

// FromCodes classifies an enterprise with any number of NACE codes: every
// code is bucketed and the highest-precedence bucket wins. No codes, or no
// matching code, yields Other.
func FromCodes(codes []string) string {
	best := Other
	for _, code := range codes {
		if bucket := FromCode(code); bucketRank[bucket] < bucketRank[best] {
			best = bucket
		}
	}
	return best
}

// Ensure clamps externally supplied bucket values to the supported set.
func Ensure(bucket string) string {
	value := strings.ToLower(strings.TrimSpace(bucket))
	if _, ok := bucketRank[value]; ok {
		return value
	}
	return Other
}
