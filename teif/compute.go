package teif

import "github.com/shopspring/decimal"

// FodecRate is the professional-training-fund surcharge: 1% of the discounted
// pre-tax base of flagged goods lines.
var fodecRate = decimal.New(1, -2)

// LineTotals is the financial breakdown of a single invoice line.
type LineTotals struct {
	Line     InvoiceLine `json:"-"`
	GrossHT  float64     `json:"gross_ht"` // quantity x unit price
	Discount float64     `json:"discount"` // GrossHT x DiscountRate/100
	NetHT    float64     `json:"net_ht"`   // GrossHT - Discount
	Fodec    float64     `json:"fodec"`    // NetHT x 1% when flagged
	TVABase  float64     `json:"tva_base"` // NetHT + Fodec
	TVA      float64     `json:"tva"`      // TVABase x TaxRate
}

// RateSummary is one row of the per-rate tax breakdown table required by the
// TEIF InvoiceTax section: all lines sharing an effective VAT rate, with their
// summed base and tax amount.
type RateSummary struct {
	Rate            float64 `json:"rate"`
	Base            float64 `json:"base"`
	Amount          float64 `json:"amount"`
	ExemptionReason string  `json:"exemption_reason,omitempty"` // carried from exempt lines (rate 0)
}

// Totals is the authoritative financial breakdown of an invoice. Global
// discount and stamp duty are applied exactly once at the invoice level; the
// global discount reduces the HT base but does not re-trigger per-line VAT
// computation (global rebates are post-tax-base adjustments).
type Totals struct {
	HT         float64 `json:"ht"`           // sum of line NetHT before invoice-level adjustments
	Discount   float64 `json:"discount"`     // global discount
	Allowances float64 `json:"allowances"`   // invoice-level allowance entries
	Charges    float64 `json:"charges"`      // invoice-level charge entries
	Fodec      float64 `json:"fodec"`
	TVA        float64 `json:"tva"`
	NetTotalHT float64 `json:"net_total_ht"` // HT - Discount - Allowances + Charges
	StampDuty  float64 `json:"stamp_duty"`
	TotalTTC   float64 `json:"total_ttc"` // NetTotalHT + Fodec + TVA + StampDuty
	IRC        float64 `json:"irc"`          // withholding amount, informational; not folded into TotalTTC

	Lines  []LineTotals  `json:"lines"`
	ByRate []RateSummary `json:"by_rate"`
}

// ComputeTotals computes the full financial breakdown for an invoice. All
// monetary outputs are rounded to the display precision; intermediate sums are
// kept exact in decimal arithmetic.
func ComputeTotals(inv InvoiceData) Totals {
	var (
		sumNet   = decimal.Zero
		sumFodec = decimal.Zero
		sumTVA   = decimal.Zero
	)

	lines := make([]LineTotals, 0, len(inv.Lines))
	rateIdx := make(map[string]int)
	type rateAcc struct {
		rate   decimal.Decimal
		base   decimal.Decimal
		amount decimal.Decimal
		reason string
	}
	var rates []rateAcc

	for _, l := range inv.Lines {
		qty := decimal.NewFromFloat(l.Quantity)
		price := decimal.NewFromFloat(l.UnitPrice)
		rate := decimal.NewFromFloat(l.TaxRate)

		gross := qty.Mul(price)
		discount := gross.Mul(decimal.NewFromFloat(l.DiscountRate)).Div(decimal.NewFromInt(100))
		net := gross.Sub(discount)
		fodec := decimal.Zero
		if l.Fodec {
			fodec = net.Mul(fodecRate)
		}
		base := net.Add(fodec)
		tva := base.Mul(rate)

		sumNet = sumNet.Add(net)
		sumFodec = sumFodec.Add(fodec)
		sumTVA = sumTVA.Add(tva)

		key := rate.String()
		i, ok := rateIdx[key]
		if !ok {
			i = len(rates)
			rateIdx[key] = i
			rates = append(rates, rateAcc{rate: rate})
		}
		rates[i].base = rates[i].base.Add(base)
		rates[i].amount = rates[i].amount.Add(tva)
		if rates[i].reason == "" && l.TaxRate == 0 {
			rates[i].reason = l.ExemptionReason
		}

		lines = append(lines, LineTotals{
			Line:     l,
			GrossHT:  round3(gross),
			Discount: round3(discount),
			NetHT:    round3(net),
			Fodec:    round3(fodec),
			TVABase:  round3(base),
			TVA:      round3(tva),
		})
	}

	var allowances, charges decimal.Decimal
	for _, a := range inv.Allowances {
		if a.BasedOn == BasisLine {
			continue
		}
		amt := decimal.NewFromFloat(a.Amount)
		if a.Kind == KindCharge {
			charges = charges.Add(amt)
		} else {
			allowances = allowances.Add(amt)
		}
	}

	globalDiscount := decimal.NewFromFloat(inv.GlobalDiscount)
	stampDuty := decimal.NewFromFloat(inv.StampDuty)
	netTotal := sumNet.Sub(globalDiscount).Sub(allowances).Add(charges)
	totalTTC := netTotal.Add(sumFodec).Add(sumTVA).Add(stampDuty)

	irc := decimal.Zero
	if inv.IRCRate > 0 {
		irc = netTotal.Add(sumFodec).Add(sumTVA).
			Mul(decimal.NewFromFloat(inv.IRCRate)).Div(decimal.NewFromInt(100))
	}

	byRate := make([]RateSummary, 0, len(rates))
	for _, r := range rates {
		rf, _ := r.rate.Float64()
		byRate = append(byRate, RateSummary{
			Rate:            rf,
			Base:            round3(r.base),
			Amount:          round3(r.amount),
			ExemptionReason: r.reason,
		})
	}

	return Totals{
		HT:         round3(sumNet),
		Discount:   round3(globalDiscount),
		Allowances: round3(allowances),
		Charges:    round3(charges),
		Fodec:      round3(sumFodec),
		TVA:        round3(sumTVA),
		NetTotalHT: round3(netTotal),
		StampDuty:  round3(stampDuty),
		TotalTTC:   round3(totalTTC),
		IRC:        round3(irc),
		Lines:      lines,
		ByRate:     byRate,
	}
}

func round3(d decimal.Decimal) float64 {
	v, _ := d.Round(DisplayPrecision).Float64()
	return v
}
