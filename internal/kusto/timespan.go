package kusto

import "regexp"

var (
	timespanLiteral = regexp.MustCompile(`^(\d+\.)?\d{1,2}:\d{2}:\d{2}(\.\d+)?$`)
	timespanFieldName = regexp.MustCompile(`(?i)(time$|duration|elapsed|latency|delay|wait|runtime)`)
)

// IsTimespan reports whether a sampled value or its field name looks like
// a Kusto timespan: either the value's string form matches the
// hh:mm:ss(.fraction) literal shape, or the field name itself suggests a
// duration.
func IsTimespan(fieldName, valueStr string) bool {
	if timespanLiteral.MatchString(valueStr) {
		return true
	}
	return timespanFieldName.MatchString(fieldName)
}

// TimespanConversionHint is the advisory text attached to any field
// sample detected as a timespan.
const TimespanConversionHint = "convert with the cluster's timespan-to-real function and divide by 10,000 to obtain milliseconds"
