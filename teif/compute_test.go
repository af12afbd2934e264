package teif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInvoice() InvoiceData {
	return InvoiceData{
		DocumentType:    DocTypeInvoice,
		DocumentNumber:  "F-2024-0001",
		InvoiceDate:     "2024-01-15",
		OperationNature: OpSupply,
		Currency:        "TND",
		Supplier: Partner{
			IDType:  IDTypeTaxID,
			IDValue: "123456789",
			Name:    "Fournisseur SARL",
			City:    "Tunis",
			Country: "TN",
		},
		Buyer: Partner{
			IDType:  IDTypeTaxID,
			IDValue: "987654321",
			Name:    "Client SA",
			City:    "Sfax",
			Country: "TN",
		},
		PaymentMeans: PaymentCash,
		TTNReference: "TTN-2024-001",
	}
}

func TestComputeTotalsSingleLine(t *testing.T) {
	inv := baseInvoice()
	inv.StampDuty = 1
	inv.Lines = []InvoiceLine{{
		Description: "Marchandise",
		Quantity:    10,
		Unit:        "UNIT",
		UnitPrice:   100,
		TaxRate:     0.19,
	}}

	got := ComputeTotals(inv)

	require.Len(t, got.Lines, 1)
	assert.Equal(t, 1000.0, got.Lines[0].NetHT)
	assert.Equal(t, 190.0, got.Lines[0].TVA)
	assert.Equal(t, 1000.0, got.HT)
	assert.Equal(t, 1000.0, got.NetTotalHT)
	assert.Equal(t, 0.0, got.Fodec)
	assert.Equal(t, 190.0, got.TVA)
	assert.Equal(t, 1191.0, got.TotalTTC)
}

func TestComputeTotalsFodecWidensTaxBase(t *testing.T) {
	inv := baseInvoice()
	inv.StampDuty = 1
	inv.Lines = []InvoiceLine{{
		Description: "Marchandise",
		Quantity:    10,
		Unit:        "UNIT",
		UnitPrice:   100,
		TaxRate:     0.19,
		Fodec:       true,
	}}

	got := ComputeTotals(inv)

	assert.Equal(t, 10.0, got.Fodec)
	assert.Equal(t, 1010.0, got.Lines[0].TVABase)
	assert.Equal(t, 191.9, got.TVA)
	assert.Equal(t, 1202.9, got.TotalTTC)
}

func TestComputeTotalsLineDiscountIsPercentage(t *testing.T) {
	inv := baseInvoice()
	inv.Lines = []InvoiceLine{{
		Quantity:     4,
		UnitPrice:    50,
		DiscountRate: 25, // percent, not fraction
		TaxRate:      0.07,
	}}

	got := ComputeTotals(inv)

	assert.Equal(t, 200.0, got.Lines[0].GrossHT)
	assert.Equal(t, 50.0, got.Lines[0].Discount)
	assert.Equal(t, 150.0, got.Lines[0].NetHT)
	assert.Equal(t, 10.5, got.TVA)
}

func TestComputeTotalsGlobalDiscountAppliedOnce(t *testing.T) {
	inv := baseInvoice()
	inv.GlobalDiscount = 100
	inv.StampDuty = 0.6
	inv.Lines = []InvoiceLine{
		{Quantity: 1, UnitPrice: 600, TaxRate: 0.19},
		{Quantity: 1, UnitPrice: 400, TaxRate: 0.19},
	}

	got := ComputeTotals(inv)

	// The global discount reduces the HT base but does not re-trigger the
	// per-line VAT already computed on the undiscounted bases.
	assert.Equal(t, 1000.0, got.HT)
	assert.Equal(t, 900.0, got.NetTotalHT)
	assert.Equal(t, 190.0, got.TVA)
	assert.InDelta(t, 1090.6, got.TotalTTC, 0.0005)
}

func TestComputeTotalsInvariant(t *testing.T) {
	inv := baseInvoice()
	inv.GlobalDiscount = 12.345
	inv.StampDuty = 0.6
	inv.Lines = []InvoiceLine{
		{Quantity: 3, UnitPrice: 19.99, DiscountRate: 10, TaxRate: 0.19, Fodec: true},
		{Quantity: 1.5, UnitPrice: 7.333, TaxRate: 0.07},
		{Quantity: 12, UnitPrice: 0.125, TaxRate: 0, ExemptionReason: "Art. 13 code TVA"},
	}

	got := ComputeTotals(inv)

	assert.InDelta(t, got.NetTotalHT+got.Fodec+got.TVA+got.StampDuty, got.TotalTTC, 0.005)
	var sumNet float64
	for _, l := range got.Lines {
		sumNet += l.NetHT
	}
	assert.InDelta(t, sumNet-inv.GlobalDiscount, got.NetTotalHT, 0.005)
}

func TestComputeTotalsRateBreakdown(t *testing.T) {
	inv := baseInvoice()
	inv.Lines = []InvoiceLine{
		{Quantity: 1, UnitPrice: 100, TaxRate: 0.19},
		{Quantity: 1, UnitPrice: 200, TaxRate: 0.07},
		{Quantity: 1, UnitPrice: 300, TaxRate: 0.19},
		{Quantity: 1, UnitPrice: 50, TaxRate: 0, ExemptionReason: "Exonéré art. 13"},
	}

	got := ComputeTotals(inv)

	require.Len(t, got.ByRate, 3)
	assert.Equal(t, 0.19, got.ByRate[0].Rate)
	assert.Equal(t, 400.0, got.ByRate[0].Base)
	assert.Equal(t, 76.0, got.ByRate[0].Amount)
	assert.Equal(t, 0.07, got.ByRate[1].Rate)
	assert.Equal(t, 200.0, got.ByRate[1].Base)
	assert.Equal(t, 14.0, got.ByRate[1].Amount)
	assert.Equal(t, 0.0, got.ByRate[2].Rate)
	assert.Equal(t, "Exonéré art. 13", got.ByRate[2].ExemptionReason)
}

func TestComputeTotalsInvoiceLevelAllowances(t *testing.T) {
	inv := baseInvoice()
	inv.Lines = []InvoiceLine{{Quantity: 1, UnitPrice: 1000, TaxRate: 0.19}}
	inv.Allowances = []AllowanceCharge{
		{Kind: KindAllowance, Code: AlcCodeDiscount, Amount: 50, BasedOn: BasisInvoice},
		{Kind: KindCharge, Code: AlcCodeFreight, Amount: 20, BasedOn: BasisInvoice},
		{Kind: KindAllowance, Code: AlcCodeOther, Amount: 999, BasedOn: BasisLine}, // line-scoped, ignored here
	}

	got := ComputeTotals(inv)

	assert.Equal(t, 50.0, got.Allowances)
	assert.Equal(t, 20.0, got.Charges)
	assert.Equal(t, 970.0, got.NetTotalHT)
}

func TestComputeTotalsWithholding(t *testing.T) {
	inv := baseInvoice()
	inv.IRCRate = 1.5
	inv.StampDuty = 1
	inv.Lines = []InvoiceLine{{Quantity: 10, UnitPrice: 100, TaxRate: 0.19}}

	got := ComputeTotals(inv)

	assert.InDelta(t, (1000.0+190.0)*0.015, got.IRC, 0.001)
	// Withholding is informational; the invoice total is unchanged.
	assert.Equal(t, 1191.0, got.TotalTTC)
}

func TestComputeTotalsEmptyInvoice(t *testing.T) {
	got := ComputeTotals(baseInvoice())

	assert.Zero(t, got.TotalTTC)
	assert.Empty(t, got.Lines)
	assert.Empty(t, got.ByRate)
}
