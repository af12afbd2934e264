package teif

import (
	"encoding/base64"
	"encoding/xml"

	"github.com/teiftn/facture/words"
)

const (
	teifVersion       = "1.8.8"
	controlingAgency  = "TTN"
	currencyCodeList  = "ISO_4217"
	countryCodeList   = "ISO_3166-1"
	xmldsigNamespace  = "http://www.w3.org/2000/09/xmldsig#"
	supplierSignature = "SigFrs"
)

// Partner function codes for the header roles.
const (
	functionSupplier = "I-62"
	functionBuyer    = "I-64"
)

// alcCodeGlobalDiscount is the reason code carried by the invoice-level
// global discount entry. TTN validators expect I-153 here, not the generic
// discount code I-151, and documents already in circulation carry it.
const alcCodeGlobalDiscount = "I-153"

// GenerateXML serializes the invoice into a TEIF 1.8.8 document string. It
// computes the totals, amount-in-words and QR payload itself and assembles the
// complete document; pass minify=true for the whitespace-stripped transmission
// form. Both forms are structurally identical once whitespace is normalized.
//
// The serializer assumes its input already satisfies the rule engine's
// requirements; it selects which optional blocks to emit but does not validate
// field contents.
func GenerateXML(inv InvoiceData, minify bool) (string, error) {
	doc := BuildDocument(inv, ComputeTotals(inv))
	var (
		out []byte
		err error
	)
	if minify {
		out, err = xml.Marshal(doc)
	} else {
		out, err = xml.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

// BuildDocument assembles the TEIF document tree from an invoice and its
// computed totals. Optional elements are omitted entirely when their governing
// condition does not hold; they never appear empty.
func BuildDocument(inv InvoiceData, t Totals) *Document {
	return &Document{
		ControlingAgency: controlingAgency,
		Version:          teifVersion,
		Header: InvoiceHeader{
			Sender:   Identifier{Type: string(inv.Supplier.IDType), Value: inv.Supplier.IDValue},
			Receiver: Identifier{Type: string(inv.Buyer.IDType), Value: inv.Buyer.IDValue},
		},
		Body: InvoiceBody{
			Bgm: Bgm{
				DocumentIdentifier: inv.DocumentNumber,
				DocumentType: DocumentType{
					Code:  string(inv.DocumentType),
					Label: DocTypeLabels[inv.DocumentType],
				},
			},
			Dtm:        Dtm{Dates: buildDates(inv)},
			Partners:   buildPartners(inv),
			Payment:    buildPayment(inv),
			References: buildReferences(inv),
			Lines:      buildLines(inv, t),
			Alc:        buildInvoiceAlc(inv, t),
			Moa:        buildMonetarySummary(inv, t),
			Tax:        buildTaxSummary(inv, t),
		},
		RefTTN:    buildRefTTN(inv, t),
		Signature: Signature{Xmlns: xmldsigNamespace, ID: supplierSignature},
	}
}

func buildDates(inv InvoiceData) []DateText {
	dates := []DateText{
		{Format: "ddMMyy", FunctionCode: "I-31", Value: FormatTTNDate(inv.InvoiceDate)},
	}
	add := func(code, value string) {
		if value != "" {
			dates = append(dates, DateText{Format: "ddMMyy", FunctionCode: code, Value: FormatTTNDate(value)})
		}
	}
	if ShowDueDate(inv) {
		add("I-32", inv.DueDate)
	}
	if ShowDeliveryDate(inv) {
		add("I-33", inv.DeliveryDate)
	}
	if ShowDispatchDate(inv) {
		add("I-34", inv.DispatchDate)
	}
	if ShowPaymentDate(inv) {
		add("I-35", inv.PaymentDate)
	}
	if ShowServicePeriod(inv) && inv.PeriodStart != "" && inv.PeriodEnd != "" {
		dates = append(dates, DateText{
			Format:       "ddMMyy-ddMMyy",
			FunctionCode: "I-36",
			Value:        FormatTTNDate(inv.PeriodStart) + "-" + FormatTTNDate(inv.PeriodEnd),
		})
	}
	if inv.SignatureDate != "" {
		// Signature timestamps arrive pre-formatted as ddMMyyHHmm.
		dates = append(dates, DateText{Format: "ddMMyyHHmm", FunctionCode: "I-37", Value: inv.SignatureDate})
	}
	add("I-38", inv.OtherDate)
	return dates
}

func buildPartners(inv InvoiceData) PartnerSection {
	return PartnerSection{Partners: []PartnerDetails{
		buildPartner(inv.Supplier, functionSupplier),
		buildPartner(inv.Buyer, functionBuyer),
	}}
}

func buildPartner(p Partner, defaultFunction string) PartnerDetails {
	function := p.Function
	if function == "" {
		function = defaultFunction
	}
	d := PartnerDetails{
		FunctionCode: function,
		Nad: Nad{
			Identifier: Identifier{Type: string(p.IDType), Value: p.IDValue},
			Name:       PartnerName{NameType: "Qualification", Value: p.Name},
			Addresses: PartnerAdresses{
				Lang:        "fr",
				Description: p.AddressDescription,
				Street:      p.Street,
				City:        p.City,
				PostalCode:  p.PostalCode,
				Country:     Country{CodeList: countryCodeList, Value: p.Country},
			},
		},
		Cta: CtaSection{
			Contact: Contact{FunctionCode: "I-94", Name: p.Name},
		},
	}
	if p.IDType.IsBusiness() {
		if p.RC != "" {
			d.References = append(d.References, RffSection{References: []Reference{{RefID: "I-815", Value: p.RC}}})
		}
		if p.Capital != "" {
			d.References = append(d.References, RffSection{References: []Reference{{RefID: "I-816", Value: p.Capital}}})
		}
	}
	if p.Phone != "" {
		d.Cta.Communications = append(d.Cta.Communications, Communication{MeansType: "I-101", Address: p.Phone})
	}
	if p.Email != "" {
		d.Cta.Communications = append(d.Cta.Communications, Communication{MeansType: "I-103", Address: p.Email})
	}
	return d
}

// buildPayment emits the Pyt block plus at most one PytFii detail group, the
// one selected by the payment-means rules.
func buildPayment(inv InvoiceData) *PytSection {
	if !ShowPaymentTerms(inv) {
		return nil
	}
	details := PytSectionDetails{Pyt: Pyt{
		TypeCode:    string(inv.PaymentMeans),
		Description: PaymentMeansLabels[inv.PaymentMeans],
	}}
	switch {
	case ShowBankingDetails(inv) && inv.BankRIB != "":
		bankName := inv.BankName
		if bankName == "" {
			bankName = "BANK"
		}
		details.Fii = &PytFii{
			FunctionCode:  "I-141",
			AccountHolder: &AccountHolder{AccountNumber: inv.BankRIB, OwnerIdentifier: inv.BankAccountOwner},
			Institution:   &Institution{NameCode: inv.BankCode, InstitutionID: inv.BankCode, Name: bankName},
		}
	case ShowPostalDetails(inv) && inv.PostalAccountNumber != "":
		branch := inv.PostalBranchCode
		if branch == "" {
			branch = "0000"
		}
		service := inv.PostalServiceName
		if service == "" {
			service = "La Poste"
		}
		details.Fii = &PytFii{
			FunctionCode:  "I-141",
			AccountHolder: &AccountHolder{AccountNumber: inv.PostalAccountNumber, OwnerIdentifier: inv.PostalAccountOwner},
			Institution:   &Institution{NameCode: branch, BranchIdentifier: branch, Name: service},
		}
	case ShowCheckNumber(inv) && inv.CheckNumber != "":
		details.Fii = &PytFii{FunctionCode: "I-142", CheckReference: inv.CheckNumber}
	case ShowCardDetails(inv) && inv.CardReference != "":
		cardType := inv.CardType
		if cardType == "" {
			cardType = "VISA"
		}
		details.Fii = &PytFii{
			FunctionCode: "I-143",
			Card: &CardIdentification{
				CardType:          cardType,
				CardNumber:        inv.CardLast4,
				AuthorizationCode: inv.CardReference,
			},
		}
	case ShowEPaymentDetails(inv) && inv.EPaymentTransactionID != "":
		gateway := inv.EPaymentGateway
		if gateway == "" {
			gateway = "ELECTRONIC"
		}
		details.Fii = &PytFii{
			FunctionCode: "I-144",
			EPayment:     &EPaymentReference{Gateway: gateway, TransactionID: inv.EPaymentTransactionID},
		}
	case ShowOtherPaymentDetails(inv) && inv.OtherPaymentReference != "":
		description := inv.OtherPaymentDescription
		if description == "" {
			description = "Other"
		}
		details.Fii = &PytFii{
			FunctionCode: "I-145",
			OtherPayment: &OtherPaymentReference{Description: description, Reference: inv.OtherPaymentReference},
		}
	}
	return &PytSection{Details: []PytSectionDetails{details}}
}

func buildReferences(inv InvoiceData) *RffSection {
	var refs []Reference
	if ShowOrderReference(inv) && inv.OrderReference != "" {
		refs = append(refs, Reference{RefID: "I-81", Value: inv.OrderReference})
	}
	if ShowContractReference(inv) && inv.ContractReference != "" {
		refs = append(refs, Reference{RefID: "I-82", Value: inv.ContractReference})
	}
	if ShowDeliveryNoteReference(inv) && inv.DeliveryNoteReference != "" {
		refs = append(refs, Reference{RefID: "I-83", Value: inv.DeliveryNoteReference})
	}
	if len(refs) == 0 {
		return nil
	}
	return &RffSection{References: refs}
}

func buildLines(inv InvoiceData, t Totals) LinSection {
	lines := make([]Lin, 0, len(t.Lines))
	for i, lt := range t.Lines {
		l := lt.Line
		lin := Lin{
			ItemIdentifier: i + 1,
			Imd:            LinImd{Lang: "fr", ItemCode: l.ItemCode, Description: l.Description},
			Qty:            LinQty{Quantity: Quantity{Unit: l.Unit, Value: FormatQuantity(l.Quantity)}},
			Taxes: []LinTax{{
				TypeName: TaxTypeName{Code: "I-1602", Label: "TVA"},
				Details:  TaxDetails{Rate: FormatRate(l.TaxRate)},
			}},
		}
		if l.TaxRate == 0 && l.ExemptionReason != "" {
			lin.Taxes[0].ExemptionReference = l.ExemptionReason
		}
		if l.Fodec {
			lin.Taxes = append(lin.Taxes, LinTax{
				TypeName: TaxTypeName{Code: "I-162", Label: "FODEC"},
				Details:  TaxDetails{Rate: "1.0"},
			})
		}
		for _, a := range l.Allowances {
			lin.Allowances = append(lin.Allowances, buildAlc(a, inv.Currency))
		}
		lin.Moa = LinMoa{Details: []MoaEntry{
			{Moa: moaAmount("I-183", inv.Currency, l.UnitPrice)},
			{Moa: moaAmount("I-171", inv.Currency, lt.NetHT)},
		}}
		lines = append(lines, lin)
	}
	return LinSection{Lines: lines}
}

func buildAlc(a AllowanceCharge, currency string) Alc {
	amountType := "I-176"
	if a.Kind == KindCharge {
		amountType = "I-174"
	}
	return Alc{
		Details: AlcDetails{Code: a.Code, ReasonCode: a.Description},
		MonetaryAmount: AlcMonetaryAmount{
			CurrencyCodeList: currencyCodeList,
			Moa:              moaAmount(amountType, currency, a.Amount),
		},
	}
}

func buildInvoiceAlc(inv InvoiceData, t Totals) *InvoiceAlc {
	var entries []Alc
	if t.Discount > 0 {
		entries = append(entries, Alc{
			Details: AlcDetails{Code: alcCodeGlobalDiscount, ReasonCode: "Discount"},
			MonetaryAmount: AlcMonetaryAmount{
				CurrencyCodeList: currencyCodeList,
				Moa:              moaAmount("I-176", inv.Currency, t.Discount),
			},
		})
	}
	for _, a := range inv.Allowances {
		if a.BasedOn == BasisLine {
			continue
		}
		entries = append(entries, buildAlc(a, inv.Currency))
	}
	if len(entries) == 0 {
		return nil
	}
	return &InvoiceAlc{Entries: entries}
}

func buildMonetarySummary(inv InvoiceData, t Totals) InvoiceMoa {
	letters := inv.AmountInWordsOverride
	if letters == "" {
		letters = words.AmountInWordsFr(t.TotalTTC)
	}
	total := moaAmount("I-180", inv.Currency, t.TotalTTC)
	total.Description = &AmountDescription{Lang: "fr", Value: letters}
	return InvoiceMoa{Details: []MoaEntry{
		{Moa: moaAmount("I-176", inv.Currency, t.NetTotalHT)},
		{Moa: total},
	}}
}

func buildTaxSummary(inv InvoiceData, t Totals) InvoiceTax {
	details := []InvoiceTaxDetails{{
		Tax: Tax{
			TypeName: TaxTypeName{Code: "I-1601", Label: "droit de timbre"},
			Details:  TaxDetails{Rate: "0.0"},
		},
		Amounts: []MoaEntry{{Moa: moaAmount("I-178", inv.Currency, t.StampDuty)}},
	}}
	if t.Fodec > 0 {
		details = append(details, InvoiceTaxDetails{
			Tax: Tax{
				TypeName: TaxTypeName{Code: "I-1603", Label: "FODEC"},
				Details:  TaxDetails{Rate: "1.0"},
			},
			Amounts: []MoaEntry{{Moa: moaAmount("I-178", inv.Currency, t.Fodec)}},
		})
	}
	if t.IRC > 0 {
		details = append(details, InvoiceTaxDetails{
			Tax: Tax{
				TypeName: TaxTypeName{Code: "I-1604", Label: "Retenue à la source"},
				Details:  TaxDetails{Rate: FormatPercent(inv.IRCRate)},
			},
			Amounts: []MoaEntry{{Moa: moaAmount("I-178", inv.Currency, t.IRC)}},
		})
	}
	for _, r := range t.ByRate {
		d := InvoiceTaxDetails{
			Tax: Tax{
				TypeName: TaxTypeName{Code: "I-1602", Label: "TVA"},
				Details:  TaxDetails{Rate: FormatRate(r.Rate)},
			},
			Amounts: []MoaEntry{
				{Moa: moaAmount("I-177", inv.Currency, r.Base)},
				{Moa: moaAmount("I-178", inv.Currency, r.Amount)},
			},
		}
		if r.Rate == 0 && r.ExemptionReason != "" {
			d.Tax.ExemptionReference = r.ExemptionReason
		}
		details = append(details, d)
	}
	return InvoiceTax{Details: details}
}

func buildRefTTN(inv InvoiceData, t Totals) RefTtnVal {
	ref := RefTtnVal{ReferenceTTN: Reference{RefID: "I-88", Value: inv.TTNReference}}
	if inv.QREnabled && t.TotalTTC > 0 {
		if payload := QRPayload(inv, t); payload != "" {
			ref.ReferenceCEV = base64.StdEncoding.EncodeToString([]byte(payload))
		}
	}
	return ref
}

func moaAmount(amountType, currency string, value float64) Moa {
	return Moa{
		AmountTypeCode:   amountType,
		CurrencyCodeList: currencyCodeList,
		Amount:           Amount{Currency: currency, Value: FormatAmount(value)},
	}
}
