package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SelectActivePrice picks the row in effect on the UTC date of at from rows
// of one (tld, action, years) series. Later effective dates win; on the same
// date the higher ID (inserted later) wins. Returns nil when nothing is
// effective yet.
func SelectActivePrice(rows []TldPrice, at time.Time) *TldPrice {
	day := DateOf(at)
	var best *TldPrice
	for i := range rows {
		r := &rows[i]
		eff := DateOf(r.EffectiveDate)
		if eff.After(day) {
			continue
		}
		if best == nil {
			best = r
			continue
		}
		bestEff := DateOf(best.EffectiveDate)
		if eff.After(bestEff) || (eff.Equal(bestEff) && r.ID > best.ID) {
			best = r
		}
	}
	return best
}

// SelectRule applies the markup rule precedence for one partner's rules:
//
//  1. specific TLD and specific years
//  2. specific TLD, any years
//  3. any TLD, specific years
//  4. any TLD, any years
//
// The first tier with a match wins. Returns nil when no rule applies.
func SelectRule(rules []Rule, tldID int64, years int) *Rule {
	var tiers [4]*Rule
	for i := range rules {
		r := &rules[i]
		tldMatch := r.TldID != nil && *r.TldID == tldID
		tldAny := r.TldID == nil
		yearsMatch := r.Years != nil && *r.Years == years
		yearsAny := r.Years == nil

		var tier int
		switch {
		case tldMatch && yearsMatch:
			tier = 0
		case tldMatch && yearsAny:
			tier = 1
		case tldAny && yearsMatch:
			tier = 2
		case tldAny && yearsAny:
			tier = 3
		default:
			continue
		}
		if tiers[tier] == nil || r.ID < tiers[tier].ID {
			tiers[tier] = r
		}
	}
	for _, r := range tiers {
		if r != nil {
			return r
		}
	}
	return nil
}

// ApplyMarkup returns the final price for base under rule, rounded half away
// from zero to two decimal places. A nil rule returns the rounded base.
func ApplyMarkup(base decimal.Decimal, rule *Rule) decimal.Decimal {
	if rule == nil {
		return base.Round(2)
	}
	switch rule.MarkupType {
	case MarkupFixed:
		return base.Add(rule.MarkupValue).Round(2)
	case MarkupPercentage:
		return base.Add(base.Mul(rule.MarkupValue).Div(hundred)).Round(2)
	default:
		return base.Round(2)
	}
}
