package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

const fallbackRationale = "keyword-based routing (fallback)"

var (
	skuPattern      = regexp.MustCompile(`(?i)\bMED\d{3}\b`)
	customerPattern = regexp.MustCompile(`(?i)\bCUST\d{4}\b`)
	unitsPattern    = regexp.MustCompile(`(?i)\b(\d+)\s*units?\b`)
	orderPattern    = regexp.MustCompile(`(?i)\b(?:order|buy|purchase)\s+(\d+)\b`)
	daysPattern     = regexp.MustCompile(`(?i)\b(\d+)\s*days?\b`)
	horizonPattern  = regexp.MustCompile(`(?i)\bnext\s+(week|month|quarter)\b`)
)

var horizonDays = map[string]int64{"week": 7, "month": 30, "quarter": 90}

// Fallback resolves a question with the keyword table alone. Identical
// question text always yields an identical Intent.
func Fallback(table KeywordTable, question string) protocol.Intent {
	ids := table.Match(question)
	if len(ids) == 0 {
		return protocol.ClarifyIntent(protocol.SourceFallback, "no capability keywords matched")
	}
	return protocol.NewIntent(protocol.SourceFallback, ids, ExtractParams(question), fallbackRationale)
}

// ExtractParams pulls literal values out of a question: SKU codes, customer
// ids, quantities and planning horizons. Nothing is inferred from product
// names.
func ExtractParams(question string) protocol.Params {
	params := protocol.Params{}

	if m := skuPattern.FindString(question); m != "" {
		params["sku"] = strings.ToUpper(m)
	}
	if m := customerPattern.FindString(question); m != "" {
		params["customer_id"] = strings.ToUpper(m)
	}
	if n, ok := firstInt(unitsPattern, question); ok {
		params["quantity"] = n
	} else if n, ok := firstInt(orderPattern, question); ok {
		params["quantity"] = n
	}
	if n, ok := firstInt(daysPattern, question); ok {
		params["days"] = n
	} else if m := horizonPattern.FindStringSubmatch(question); m != nil {
		params["days"] = horizonDays[strings.ToLower(m[1])]
	}

	return params
}

func firstInt(re *regexp.Regexp, s string) (int64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	return n, err == nil
}
