// Package words renders monetary amounts as French prose for the
// AmountDescription clause of Tunisian invoices (dinars and millimes).
package words

import (
	"math"
	"strings"
)

const amountPreamble = "ARRÊTÉ LA PRÉSENTE FACTURE À LA SOMME DE : "

var units = []string{"", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf"}

var teens = []string{"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize", "dix-sept", "dix-huit", "dix-neuf"}

var tens = []string{"", "dix", "vingt", "trente", "quarante", "cinquante", "soixante"}

// AmountInWordsFr converts a non-negative TND amount (3 fractional digits =
// millimes) into the uppercase French settlement sentence. The dinar clause is
// omitted when the integer part is zero, the millime clause when the
// fractional part is zero; a millime part that rounds up to 1000 carries into
// the dinars. An amount of exactly zero reads "ZÉRO DINAR".
func AmountInWordsFr(total float64) string {
	dinars := int64(math.Floor(total))
	millimes := int64(math.Round((total - math.Floor(total)) * 1000))
	if millimes >= 1000 {
		dinars += millimes / 1000
		millimes %= 1000
	}

	var clauses []string
	if dinars > 0 {
		clauses = append(clauses, numberFr(dinars)+" dinar"+plural(dinars))
	}
	if millimes > 0 {
		clauses = append(clauses, numberFr(millimes)+" millime"+plural(millimes))
	}
	if len(clauses) == 0 {
		clauses = append(clauses, "zéro dinar")
	}

	return amountPreamble + strings.ToUpper(strings.Join(clauses, " et "))
}

func plural(n int64) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// numberFr spells out a non-negative integer in French, with the standard
// irregularities: "et un" for 21..61, "soixante et onze", "quatre-vingts",
// the vigesimal 70s and 90s, and invariant "mille".
func numberFr(n int64) string {
	if n == 0 {
		return "zéro"
	}
	var parts []string
	appendScale := func(count int64, singular, pluralForm string) {
		if count == 0 {
			return
		}
		if singular == "mille" && count == 1 {
			parts = append(parts, "mille")
			return
		}
		name := singular
		if count > 1 {
			name = pluralForm
		}
		parts = append(parts, underThousand(count)+" "+name)
	}
	appendScale(n/1_000_000_000, "milliard", "milliards")
	appendScale(n%1_000_000_000/1_000_000, "million", "millions")
	appendScale(n%1_000_000/1000, "mille", "mille")
	if r := n % 1000; r > 0 {
		parts = append(parts, underThousand(r))
	}
	return strings.Join(parts, " ")
}

func underThousand(n int64) string {
	q, r := n/100, n%100
	switch {
	case q == 0:
		return underHundred(r)
	case q == 1:
		if r == 0 {
			return "cent"
		}
		return "cent " + underHundred(r)
	default:
		if r == 0 {
			return units[q] + " cents"
		}
		return units[q] + " cent " + underHundred(r)
	}
}

func underHundred(n int64) string {
	switch {
	case n < 10:
		return units[n]
	case n < 20:
		return teens[n-10]
	case n < 70:
		q, r := n/10, n%10
		switch r {
		case 0:
			return tens[q]
		case 1:
			return tens[q] + " et un"
		default:
			return tens[q] + "-" + units[r]
		}
	case n < 80:
		if n == 71 {
			return "soixante et onze"
		}
		return "soixante-" + teens[n-70]
	default:
		if n == 80 {
			return "quatre-vingts"
		}
		r := n - 80
		if r < 10 {
			return "quatre-vingt-" + units[r]
		}
		return "quatre-vingt-" + teens[r-10]
	}
}
