// Package categorize assigns a (category, subcategory) pair to a document
// based on its filename. Matching is case-insensitive substring search over an
// ordered rule list; the first rule that matches wins, so a filename hitting
// several rules always resolves to the earliest one.
package categorize

import "strings"

type rule struct {
	keywords    []string
	category    string
	subcategory string
}

// Rule order is significant and must not be reordered: "w2_paystub.pdf" is a
// W-2, not a paystub, because the w2 rule comes first.
var rules = []rule{
	{[]string{"w2", "w-2"}, "tax", "w2"},
	{[]string{"1040"}, "tax", "1040"},
	{[]string{"1099"}, "tax", "1099"},
	{[]string{"paystub", "payroll"}, "income", "paystub"},
	{[]string{"bank", "statement"}, "banking", "bank_statement"},
	{[]string{"mortgage", "loan"}, "loans", "mortgage"},
}

// Categorize maps a filename to a category and subcategory. It is pure and
// total: every input, including the empty string, yields a result.
func Categorize(filename string) (category, subcategory string) {
	lower := strings.ToLower(filename)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category, r.subcategory
			}
		}
	}
	return "tax", "other"
}
