package teif

import (
	"encoding/base64"
	"encoding/xml"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullInvoice() InvoiceData {
	inv := baseInvoice()
	inv.DueDate = "2024-02-15"
	inv.ContractReference = "CT-77"
	inv.GlobalDiscount = 50
	inv.StampDuty = 1
	inv.PaymentMeans = PaymentWireTransfer
	inv.BankRIB = "87040351200035123456"
	inv.BankName = "BIAT"
	inv.BankCode = "08"
	inv.BankAccountOwner = "Fournisseur SARL"
	inv.Supplier.RC = "B123452024"
	inv.Supplier.Phone = "+216 71 000 000"
	inv.Lines = []InvoiceLine{
		{ItemCode: "A-1", Description: "Marchandise", Quantity: 10, Unit: "UNIT", UnitPrice: 100, TaxRate: 0.19, Fodec: true},
		{ItemCode: "A-2", Description: "Service exonéré", Quantity: 2, Unit: "H", UnitPrice: 30, TaxRate: 0, ExemptionReason: "Art. 13 code TVA"},
	}
	return inv
}

func TestGenerateXMLIsWellFormed(t *testing.T) {
	out, err := GenerateXML(fullInvoice(), false)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "1.8.8", doc.Version)
	assert.Equal(t, "TTN", doc.ControlingAgency)
}

func TestGenerateXMLIdempotent(t *testing.T) {
	inv := fullInvoice()
	a, err := GenerateXML(inv, false)
	require.NoError(t, err)
	b, err := GenerateXML(inv, false)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

var interElementWhitespace = regexp.MustCompile(`>\s+<`)

func TestMinifiedAndPrettyAreStructurallyEqual(t *testing.T) {
	inv := fullInvoice()
	pretty, err := GenerateXML(inv, false)
	require.NoError(t, err)
	minified, err := GenerateXML(inv, true)
	require.NoError(t, err)

	assert.NotEqual(t, pretty, minified)
	normalize := func(s string) string {
		return strings.TrimSpace(interElementWhitespace.ReplaceAllString(s, "><"))
	}
	assert.Equal(t, normalize(pretty), normalize(minified))
}

func TestGenerateXMLHeaderAndDocumentIdentification(t *testing.T) {
	out, err := GenerateXML(fullInvoice(), false)
	require.NoError(t, err)

	assert.Contains(t, out, `<MessageSenderIdentifier type="I-01">123456789</MessageSenderIdentifier>`)
	assert.Contains(t, out, `<MessageRecieverIdentifier type="I-01">987654321</MessageRecieverIdentifier>`)
	assert.Contains(t, out, `<DocumentIdentifier>F-2024-0001</DocumentIdentifier>`)
	assert.Contains(t, out, `<DocumentType code="I-11">Facture</DocumentType>`)
	assert.Contains(t, out, `functionCode="I-31">150124<`)
	assert.Contains(t, out, `functionCode="I-32">150224<`)
}

func TestGenerateXMLMonetarySummary(t *testing.T) {
	out, err := GenerateXML(fullInvoice(), false)
	require.NoError(t, err)

	// Lines: 10x100 fodec + 2x30 exempt. NetHT=1060, global discount 50.
	assert.Contains(t, out, `amountTypeCode="I-176"`)
	assert.Contains(t, out, `>1010.000<`) // net total HT after discount
	assert.Contains(t, out, `amountTypeCode="I-180"`)
	assert.Contains(t, out, "ARRÊTÉ LA PRÉSENTE FACTURE À LA SOMME DE")
	// Per-rate summary carries the exemption justification for rate 0.
	assert.Contains(t, out, `<TaxExemptionReference>Art. 13 code TVA</TaxExemptionReference>`)
	// FODEC appears both on the line and in the invoice tax table.
	assert.Contains(t, out, `<TaxTypeName code="I-162">FODEC</TaxTypeName>`)
	assert.Contains(t, out, `<TaxTypeName code="I-1603">FODEC</TaxTypeName>`)
	// The global discount entry carries the code TTN validators expect.
	assert.Contains(t, out, `<AllowanceChargeCode>I-153</AllowanceChargeCode>`)
	assert.Contains(t, out, `<AllowanceChargeReasonCode>Discount</AllowanceChargeReasonCode>`)
}

func TestGenerateXMLPaymentGroupSelection(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*InvoiceData)
		contains []string
		excludes []string
	}{
		{
			name: "wire transfer",
			mutate: func(inv *InvoiceData) {
				inv.PaymentMeans = PaymentWireTransfer
				inv.BankRIB = "87040351200035123456"
				inv.BankName = "BIAT"
			},
			contains: []string{`functionCode="I-141"`, `<AccountNumber>87040351200035123456</AccountNumber>`},
			excludes: []string{"CheckReference", "CardIdentification", "EPaymentReference"},
		},
		{
			name: "check",
			mutate: func(inv *InvoiceData) {
				inv.PaymentMeans = PaymentCheck
				inv.CheckNumber = "0001234"
			},
			contains: []string{`functionCode="I-142"`, `<CheckReference>0001234</CheckReference>`},
			excludes: []string{"AccountHolder", "CardIdentification"},
		},
		{
			name: "card",
			mutate: func(inv *InvoiceData) {
				inv.PaymentMeans = PaymentCard
				inv.CardType = "MASTERCARD"
				inv.CardLast4 = "4242"
				inv.CardReference = "AUTH-9"
			},
			contains: []string{`functionCode="I-143"`, `<CardType>MASTERCARD</CardType>`, `<CardNumber>4242</CardNumber>`},
			excludes: []string{"AccountHolder", "CheckReference"},
		},
		{
			name: "e-payment",
			mutate: func(inv *InvoiceData) {
				inv.PaymentMeans = PaymentElectronic
				inv.EPaymentGateway = "Paymee"
				inv.EPaymentTransactionID = "TX-1"
			},
			contains: []string{`functionCode="I-144"`, `<Gateway>Paymee</Gateway>`},
			excludes: []string{"AccountHolder", "CheckReference"},
		},
		{
			name: "cash has no detail group",
			mutate: func(inv *InvoiceData) {
				inv.PaymentMeans = PaymentCash
			},
			contains: []string{`<PaymentTearmsTypeCode>I-116</PaymentTearmsTypeCode>`},
			excludes: []string{"PytFii"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv := baseInvoice()
			inv.Lines = []InvoiceLine{{Quantity: 1, UnitPrice: 100, TaxRate: 0.19}}
			tc.mutate(&inv)
			out, err := GenerateXML(inv, false)
			require.NoError(t, err)
			for _, s := range tc.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tc.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestGenerateXMLOmitsAbsentOptionals(t *testing.T) {
	inv := baseInvoice()
	inv.Lines = []InvoiceLine{{Quantity: 1, UnitPrice: 100, TaxRate: 0.19}}
	out, err := GenerateXML(inv, false)
	require.NoError(t, err)

	// No due date, no references, no allowances, no QR: the elements are
	// absent, not empty.
	assert.NotContains(t, out, `functionCode="I-32"`)
	assert.NotContains(t, out, "<RffSection>")
	assert.NotContains(t, out, "<InvoiceAlc>")
	assert.NotContains(t, out, "<ReferenceCEV>")
	assert.NotContains(t, out, "<Communication>")
}

func TestGenerateXMLQRContent(t *testing.T) {
	inv := baseInvoice()
	inv.QREnabled = true
	inv.StampDuty = 1
	inv.Lines = []InvoiceLine{{Quantity: 10, UnitPrice: 100, TaxRate: 0.19}}

	out, err := GenerateXML(inv, false)
	require.NoError(t, err)

	encoded := base64.StdEncoding.EncodeToString([]byte("123456789|F-2024-0001|150124|1191.000|190.000"))
	assert.Contains(t, out, "<ReferenceCEV>"+encoded+"</ReferenceCEV>")
}

func TestGenerateXMLEscapesSpecialCharacters(t *testing.T) {
	inv := baseInvoice()
	inv.Supplier.Name = `C&B Audit <Services>`
	inv.Lines = []InvoiceLine{{Description: "Câble 2<mm>", Quantity: 1, UnitPrice: 5, TaxRate: 0.19}}

	out, err := GenerateXML(inv, false)
	require.NoError(t, err)

	assert.Contains(t, out, "C&amp;B Audit &lt;Services&gt;")
	assert.NotContains(t, out, "C&B Audit <Services>")

	var doc Document
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, `C&B Audit <Services>`, doc.Body.Partners.Partners[0].Nad.Name.Value)
}

func TestGenerateXMLSignaturePlaceholder(t *testing.T) {
	out, err := GenerateXML(fullInvoice(), true)
	require.NoError(t, err)
	assert.Contains(t, out, `<ds:Signature xmlns:ds="http://www.w3.org/2000/09/xmldsig#" Id="SigFrs">`)
}

func TestGenerateXMLBusinessPartnerReferences(t *testing.T) {
	out, err := GenerateXML(fullInvoice(), false)
	require.NoError(t, err)
	assert.Contains(t, out, `<Reference refID="I-815">B123452024</Reference>`)
	assert.Contains(t, out, `<ComMeansType>I-101</ComMeansType>`)
}

func TestGenerateXMLSignatureAndOtherDates(t *testing.T) {
	inv := fullInvoice()
	inv.SignatureDate = "1501241030"
	inv.OtherDate = "2024-03-01"

	out, err := GenerateXML(inv, false)
	require.NoError(t, err)

	assert.Contains(t, out, `format="ddMMyyHHmm" functionCode="I-37">1501241030<`)
	assert.Contains(t, out, `functionCode="I-38">010324<`)
}

func TestGenerateXMLAddressDescription(t *testing.T) {
	inv := fullInvoice()
	inv.Supplier.AddressDescription = "Zone industrielle, Ben Arous"

	out, err := GenerateXML(inv, false)
	require.NoError(t, err)
	assert.Contains(t, out, `<AdressDescription>Zone industrielle, Ben Arous</AdressDescription>`)

	// The element stays absent when no description is set.
	plain, err := GenerateXML(fullInvoice(), false)
	require.NoError(t, err)
	assert.NotContains(t, plain, "<AdressDescription>")
}
