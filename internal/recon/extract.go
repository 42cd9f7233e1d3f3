package recon

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Bank alert wording varies, but the amount reliably appears next to a
// currency marker in one of two orders. Comma thousands separators and an
// optional 1-2 digit fraction are accepted.
var (
	amountMarkerFirst = regexp.MustCompile(`(?i)(?:INR|Rs\.?|₹)\s*([0-9,]+(?:\.[0-9]{1,2})?)`)
	amountMarkerLast  = regexp.MustCompile(`(?i)([0-9,]+(?:\.[0-9]{1,2})?)\s*(?:INR|Rs\.?|₹)`)
	refPattern        = regexp.MustCompile(`(?i)UPI\s*(?:Ref(?:erence)?\s*No\.?|Txn\s*ID|UTR)\s*[:#-]?\s*([A-Za-z0-9\-]+)`)
)

// ExtractAmount pulls a currency-marked amount out of free text. The second
// return value is false when no amount is present or it does not parse.
func ExtractAmount(text string) (decimal.Decimal, bool) {
	m := amountMarkerFirst.FindStringSubmatch(text)
	if m == nil {
		m = amountMarkerLast.FindStringSubmatch(text)
	}
	if m == nil {
		return decimal.Decimal{}, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}

// ExtractRef pulls a labeled UPI reference token ("UPI Ref No", "UPI Txn ID",
// "UPI UTR") out of free text. A missing label yields an empty string, not an
// error: amount-only candidates are still usable for note matching.
func ExtractRef(text string) string {
	m := refPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
