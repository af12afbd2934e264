package teif

import "fmt"

// The conditional field rules decide which optional invoice fields are
// relevant for the current document type, operation nature, payment means and
// partner identifier types. Each predicate is a total, independent pure
// function; the same flags drive form rendering client-side and conditional
// requirement checks server-side, so they must stay deterministic.

// Visibility flag names. Flags are bound to rules through the explicit table
// below rather than derived from function names.
const (
	FieldDueDate               = "dueDate"
	FieldDeliveryDate          = "deliveryDate"
	FieldDispatchDate          = "dispatchDate"
	FieldPaymentDate           = "paymentDate"
	FieldServicePeriod         = "servicePeriod"
	FieldBankingDetails        = "bankingDetails"
	FieldRIB                   = "rib"
	FieldBankCode              = "bankCode"
	FieldBankName              = "bankName"
	FieldBankAccountOwner      = "bankAccountOwner"
	FieldCheckNumber           = "checkNumber"
	FieldCardDetails           = "cardDetails"
	FieldPostalDetails         = "postalDetails"
	FieldEPaymentDetails       = "ePaymentDetails"
	FieldOtherPaymentDetails   = "otherPaymentDetails"
	FieldSupplierRC            = "supplierRC"
	FieldBuyerRC               = "buyerRC"
	FieldSupplierCapital       = "supplierCapital"
	FieldBuyerCapital          = "buyerCapital"
	FieldPaymentTerms          = "paymentTerms"
	FieldDeliveryInfo          = "deliveryInfo"
	FieldOrderReference        = "orderReference"
	FieldContractReference     = "contractReference"
	FieldDeliveryNoteReference = "deliveryNoteReference"
	FieldStampDuty             = "stampDuty"
	FieldGlobalDiscount        = "globalDiscount"
	FieldFodec                 = "fodec"
	FieldIRCRate               = "ircRate"
)

func isNoteDocument(d DocType) bool {
	return d == DocTypeDeliveryNote || d == DocTypeReceiptNote
}

// ShowDueDate: due dates make no sense on delivery/receipt notes.
func ShowDueDate(inv InvoiceData) bool { return !isNoteDocument(inv.DocumentType) }

// ShowDeliveryDate: same scope as the due date.
func ShowDeliveryDate(inv InvoiceData) bool { return !isNoteDocument(inv.DocumentType) }

// ShowDispatchDate: delivery-class documents, or any operation that carries a
// delivery signal.
func ShowDispatchDate(inv InvoiceData) bool {
	switch inv.DocumentType {
	case DocTypeReturnNote, DocTypePaymentSlip, DocTypePaymentOrder:
		return true
	}
	return inv.OperationNature == OpDelivery
}

// ShowPaymentDate: only deferred means (wire transfer, postal) carry one.
func ShowPaymentDate(inv InvoiceData) bool {
	return inv.PaymentMeans == PaymentWireTransfer || inv.PaymentMeans == PaymentPostal
}

// ShowServicePeriod: service invoices only.
func ShowServicePeriod(inv InvoiceData) bool { return inv.DocumentType.IsServiceDocument() }

// Payment-means groups are mutually exclusive: one code activates one group.

func ShowBankingDetails(inv InvoiceData) bool { return inv.PaymentMeans == PaymentWireTransfer }
func ShowRIB(inv InvoiceData) bool            { return inv.PaymentMeans == PaymentWireTransfer }
func ShowBankCode(inv InvoiceData) bool       { return inv.PaymentMeans == PaymentWireTransfer }
func ShowBankName(inv InvoiceData) bool       { return inv.PaymentMeans == PaymentWireTransfer }
func ShowBankAccountOwner(inv InvoiceData) bool {
	return inv.PaymentMeans == PaymentWireTransfer
}
func ShowCheckNumber(inv InvoiceData) bool         { return inv.PaymentMeans == PaymentCheck }
func ShowCardDetails(inv InvoiceData) bool         { return inv.PaymentMeans == PaymentCard }
func ShowPostalDetails(inv InvoiceData) bool       { return inv.PaymentMeans == PaymentPostal }
func ShowEPaymentDetails(inv InvoiceData) bool     { return inv.PaymentMeans == PaymentElectronic }
func ShowOtherPaymentDetails(inv InvoiceData) bool { return inv.PaymentMeans == PaymentOther }

// Registration number applies to any registered business; capital only to
// foreign-VAT registered companies.

func ShowSupplierRC(inv InvoiceData) bool      { return inv.Supplier.IDType.IsBusiness() }
func ShowBuyerRC(inv InvoiceData) bool         { return inv.Buyer.IDType.IsBusiness() }
func ShowSupplierCapital(inv InvoiceData) bool { return inv.Supplier.IDType == IDTypeForeignVAT }
func ShowBuyerCapital(inv InvoiceData) bool    { return inv.Buyer.IDType == IDTypeForeignVAT }

// ShowPaymentTerms: notes have no payment terms.
func ShowPaymentTerms(inv InvoiceData) bool { return !isNoteDocument(inv.DocumentType) }

// ShowDeliveryInfo: supply and delivery operations carry delivery details.
func ShowDeliveryInfo(inv InvoiceData) bool {
	return inv.OperationNature == OpSupply || inv.OperationNature == OpDelivery
}

func ShowOrderReference(inv InvoiceData) bool {
	return inv.OperationNature == OpImport || inv.OperationNature == OpSupply
}

func ShowContractReference(inv InvoiceData) bool {
	return inv.OperationNature != OpCash && inv.OperationNature != OpReceipt
}

func ShowDeliveryNoteReference(inv InvoiceData) bool {
	return inv.OperationNature == OpSupply || inv.OperationNature == OpDelivery
}

// ShowStampDuty: no stamp duty on delivery/receipt/return notes or payment slips.
func ShowStampDuty(inv InvoiceData) bool {
	switch inv.DocumentType {
	case DocTypeDeliveryNote, DocTypeReceiptNote, DocTypeReturnNote, DocTypePaymentSlip:
		return false
	}
	return true
}

// ShowGlobalDiscount: a global discount needs at least one line to discount.
func ShowGlobalDiscount(inv InvoiceData) bool { return len(inv.Lines) > 0 }

// ShowFodec: the flag is offered on every line; it is only meaningful for
// goods lines, which is the line author's call.
func ShowFodec(InvoiceData) bool { return true }

// ShowIRCRate: withholding applies to every document that carries amounts.
func ShowIRCRate(inv InvoiceData) bool { return !isNoteDocument(inv.DocumentType) }

// ItemCodeMandatory is a line-level rule: service invoices require item codes.
func ItemCodeMandatory(inv InvoiceData) bool { return inv.DocumentType.IsServiceDocument() }

// ExemptionReasonRequired is a line-level rule: a zero tax rate needs a
// justification for the document to be valid.
func ExemptionReasonRequired(line InvoiceLine) bool { return line.TaxRate == 0 }

// fieldRules binds every visibility flag to its predicate. The mapping is
// explicit on purpose; deriving flag names from rule names was a pure
// string-matching liability in the system this replaces.
var fieldRules = []struct {
	Flag string
	Rule func(InvoiceData) bool
}{
	{FieldDueDate, ShowDueDate},
	{FieldDeliveryDate, ShowDeliveryDate},
	{FieldDispatchDate, ShowDispatchDate},
	{FieldPaymentDate, ShowPaymentDate},
	{FieldServicePeriod, ShowServicePeriod},
	{FieldBankingDetails, ShowBankingDetails},
	{FieldRIB, ShowRIB},
	{FieldBankCode, ShowBankCode},
	{FieldBankName, ShowBankName},
	{FieldBankAccountOwner, ShowBankAccountOwner},
	{FieldCheckNumber, ShowCheckNumber},
	{FieldCardDetails, ShowCardDetails},
	{FieldPostalDetails, ShowPostalDetails},
	{FieldEPaymentDetails, ShowEPaymentDetails},
	{FieldOtherPaymentDetails, ShowOtherPaymentDetails},
	{FieldSupplierRC, ShowSupplierRC},
	{FieldBuyerRC, ShowBuyerRC},
	{FieldSupplierCapital, ShowSupplierCapital},
	{FieldBuyerCapital, ShowBuyerCapital},
	{FieldPaymentTerms, ShowPaymentTerms},
	{FieldDeliveryInfo, ShowDeliveryInfo},
	{FieldOrderReference, ShowOrderReference},
	{FieldContractReference, ShowContractReference},
	{FieldDeliveryNoteReference, ShowDeliveryNoteReference},
	{FieldStampDuty, ShowStampDuty},
	{FieldGlobalDiscount, ShowGlobalDiscount},
	{FieldFodec, ShowFodec},
	{FieldIRCRate, ShowIRCRate},
}

// FieldVisibility evaluates every rule against the invoice and returns the
// flat flag-to-boolean mapping consumed by form rendering and server-side
// conditional validation.
func FieldVisibility(inv InvoiceData) map[string]bool {
	vis := make(map[string]bool, len(fieldRules))
	for _, fr := range fieldRules {
		vis[fr.Flag] = fr.Rule(inv)
	}
	return vis
}

// FieldVisible reports whether a single field is currently relevant. Fields
// without a rule default to visible.
func FieldVisible(flag string, inv InvoiceData) bool {
	for _, fr := range fieldRules {
		if fr.Flag == flag {
			return fr.Rule(inv)
		}
	}
	return true
}

// HiddenReason explains, for user-facing messaging, why a field is currently
// hidden. Returns "" when the field is visible. Cosmetic only.
func HiddenReason(flag string, inv InvoiceData) string {
	if FieldVisible(flag, inv) {
		return ""
	}
	switch flag {
	case FieldRIB, FieldBankCode, FieldBankName, FieldBankAccountOwner, FieldBankingDetails:
		return fmt.Sprintf("Bank details only apply to wire transfers (%s selected)", inv.PaymentMeans)
	case FieldCheckNumber:
		return fmt.Sprintf("Check number only applies to check payments (%s selected)", inv.PaymentMeans)
	case FieldCardDetails:
		return fmt.Sprintf("Card details only apply to card payments (%s selected)", inv.PaymentMeans)
	case FieldPostalDetails:
		return fmt.Sprintf("Postal account details only apply to postal payments (%s selected)", inv.PaymentMeans)
	case FieldEPaymentDetails:
		return fmt.Sprintf("E-payment details only apply to electronic payments (%s selected)", inv.PaymentMeans)
	case FieldOtherPaymentDetails:
		return fmt.Sprintf("Other-payment details only apply to payment means %s", PaymentOther)
	case FieldDueDate, FieldDeliveryDate:
		return fmt.Sprintf("Not applicable for %s documents", inv.DocumentType)
	case FieldSupplierRC, FieldSupplierCapital:
		return fmt.Sprintf("Supplier registration details only apply to business partners (%s selected)", inv.Supplier.IDType)
	case FieldBuyerRC, FieldBuyerCapital:
		return fmt.Sprintf("Buyer registration details only apply to business partners (%s selected)", inv.Buyer.IDType)
	case FieldGlobalDiscount:
		return "A global discount needs at least one invoice line"
	}
	return "Not applicable for the current invoice configuration"
}
