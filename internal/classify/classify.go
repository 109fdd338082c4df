// Package classify assigns budget categories, budget line items, and vendors
// to transactions via weighted multi-signal scoring. Classify is a pure
// function of its inputs: identical transaction and reference data always
// yield the identical result, so a retried batch can safely re-classify.
package classify

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
)

// RefData is the read-only reference data classification scores against.
type RefData struct {
	Categories []domain.BudgetCategory
	Items      []domain.BudgetItem
	Vendors    []domain.Vendor
}

// MatchedBy names the strongest signal behind a classification.
const (
	MatchedByVendorPattern   = "vendor_pattern"
	MatchedByKeyword         = "keyword"
	MatchedByDescription     = "description"
	MatchedByCategoryKeyword = "category_keyword"
	MatchedByNone            = "none"
)

// Result is one classification outcome. Confidence is a 0-100 heuristic
// strength-of-match, not a probability.
type Result struct {
	CategoryID   string
	BudgetItemID string
	VendorID     string
	Confidence   int
	MatchedBy    string

	// Ambiguous is set when a second item tied the winning score; the
	// first-encountered item wins, but the caller should surface the row
	// for review instead of silently committing it.
	Ambiguous bool
}

// Classify scores every budget item against the transaction and returns the
// best match. Below the threshold it falls back to category keywords; if
// nothing matches it returns confidence 0 and MatchedBy "none" - a valid
// terminal state, not an error.
func Classify(tx domain.Transaction, ref RefData, cfg config.ScoringConfig) Result {
	desc := strings.ToUpper(tx.Description)

	best := Result{MatchedBy: MatchedByNone}
	bestScore := 0
	tied := false

	for _, item := range ref.Items {
		score, matchedBy := scoreItem(tx, desc, item, cfg)
		if score > bestScore {
			bestScore = score
			tied = false
			best = Result{
				CategoryID:   item.CategoryID,
				BudgetItemID: item.ID,
				MatchedBy:    matchedBy,
			}
		} else if score == bestScore && bestScore > 0 {
			tied = true
		}
	}

	if bestScore >= cfg.Threshold {
		best.Confidence = clamp(bestScore, 100)
		best.Ambiguous = tied
		best.VendorID = matchVendor(desc, ref.Vendors)
		return best
	}

	// Below threshold: category-keyword dictionary at flat confidence.
	if catID := matchCategoryKeywords(desc, ref.Categories); catID != "" {
		return Result{
			CategoryID: catID,
			Confidence: cfg.FallbackScore,
			MatchedBy:  MatchedByCategoryKeyword,
			VendorID:   matchVendor(desc, ref.Vendors),
		}
	}

	return Result{
		MatchedBy:  MatchedByNone,
		Confidence: 0,
		VendorID:   matchVendor(desc, ref.Vendors),
	}
}

// scoreItem computes the additive score of one budget item. The cumulative
// total is clamped at cfg.Max so keyword-heavy items cannot run away.
func scoreItem(tx domain.Transaction, desc string, item domain.BudgetItem, cfg config.ScoringConfig) (int, string) {
	score := 0
	matchedBy := MatchedByNone

	for _, pattern := range item.VendorPatterns {
		p := strings.ToUpper(strings.TrimSpace(pattern))
		if p != "" && strings.Contains(desc, p) {
			score += cfg.VendorMatch
			matchedBy = MatchedByVendorPattern
			break
		}
	}

	for _, kw := range distinct(item.Keywords) {
		k := strings.ToUpper(strings.TrimSpace(kw))
		if k != "" && strings.Contains(desc, k) {
			score += cfg.KeywordMatch
			if matchedBy == MatchedByNone {
				matchedBy = MatchedByKeyword
			}
		}
	}

	if tokenOverlap(desc, item.Description) {
		score += cfg.DescriptionMatch
		if matchedBy == MatchedByNone {
			matchedBy = MatchedByDescription
		}
	}

	if amountNear(tx.Amount, item.MonthlyBudget, cfg.AmountTolerance) {
		score += cfg.AmountProximity
	}

	return clamp(score, cfg.Max), matchedBy
}

// tokenOverlap reports whether the item description shares a meaningful
// token (4+ chars) with the transaction description.
func tokenOverlap(desc, itemDesc string) bool {
	if itemDesc == "" {
		return false
	}
	for _, tok := range strings.Fields(strings.ToUpper(itemDesc)) {
		if len(tok) >= 4 && strings.Contains(desc, tok) {
			return true
		}
	}
	return false
}

// amountNear reports whether amount is within tolerance (a fraction) of the
// expected budget. A zero budget never matches.
func amountNear(amount, expected decimal.Decimal, tolerance float64) bool {
	if expected.IsZero() {
		return false
	}
	diff := amount.Sub(expected).Abs()
	limit := expected.Mul(decimal.NewFromFloat(tolerance))
	return diff.LessThanOrEqual(limit)
}

// matchCategoryKeywords returns the first category whose keyword list hits
// the description.
func matchCategoryKeywords(desc string, categories []domain.BudgetCategory) string {
	for _, cat := range categories {
		for _, kw := range cat.Keywords {
			k := strings.ToUpper(strings.TrimSpace(kw))
			if k != "" && strings.Contains(desc, k) {
				return cat.ID
			}
		}
	}
	return ""
}

// matchVendor resolves the vendor independently of categorization: exact
// title substring containment first, keyword containment second.
func matchVendor(desc string, vendors []domain.Vendor) string {
	for _, v := range vendors {
		title := strings.ToUpper(strings.TrimSpace(v.Title))
		if title != "" && strings.Contains(desc, title) {
			return v.ID
		}
	}
	for _, v := range vendors {
		for _, kw := range v.Keywords {
			k := strings.ToUpper(strings.TrimSpace(kw))
			if k != "" && strings.Contains(desc, k) {
				return v.ID
			}
		}
	}
	return ""
}

// CanAssign reports whether a classification result may be written onto the
// transaction. Manual assignments (a category without the auto flag) are
// never overwritten; auto assignments only in recategorize mode.
func CanAssign(tx domain.Transaction, recategorize bool) bool {
	if tx.CategoryID == "" {
		return true
	}
	return recategorize && tx.AutoCategorized
}

func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		key := strings.ToUpper(strings.TrimSpace(v))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func clamp(v, max int) int {
	if v > max {
		return max
	}
	return v
}
