// Package teif implements the computation and document-serialization engine
// for Tunisian TEIF 1.8.8 electronic invoices: financial totals under Tunisian
// tax rules, conditional field applicability, QR payload generation and the
// XML document itself. Everything in this package is a pure function over
// immutable inputs; persistence and transport live elsewhere.
package teif

// IDType identifies the kind of partner identifier (TEIF partner identifier codes).
type IDType string

const (
	IDTypeTaxID      IDType = "I-01" // matricule fiscal
	IDTypeNationalID IDType = "I-02" // carte d'identité nationale
	IDTypePassport   IDType = "I-03" // passeport
	IDTypeForeignVAT IDType = "I-04" // identifiant TVA étranger
)

// IsBusiness reports whether the identifier denotes a registered business
// entity (domestic tax ID or foreign VAT ID). Registration number and capital
// are only meaningful for business partners.
func (t IDType) IsBusiness() bool {
	return t == IDTypeTaxID || t == IDTypeForeignVAT
}

// DocType is a TEIF document type code.
type DocType string

const (
	DocTypeInvoice        DocType = "I-11"
	DocTypeCreditNote     DocType = "I-12"
	DocTypeFeeNote        DocType = "I-13"
	DocTypePublicContract DocType = "I-14"
	DocTypeExportInvoice  DocType = "I-15"
	DocTypePurchaseOrder  DocType = "I-16"
	DocTypeDeliveryNote   DocType = "I-30"
	DocTypeReceiptNote    DocType = "I-31"
	DocTypeReturnNote     DocType = "I-32"
	DocTypePaymentSlip    DocType = "I-33"
	DocTypePaymentOrder   DocType = "I-34"
	DocTypeExpenseNote    DocType = "I-50"
	DocTypeServiceNote    DocType = "I-51"
)

// DocTypeLabels maps document type codes to their official French labels,
// emitted verbatim in the Bgm section.
var DocTypeLabels = map[DocType]string{
	DocTypeInvoice:        "Facture",
	DocTypeCreditNote:     "Facture d'avoir",
	DocTypeFeeNote:        "Note d'honoraire",
	DocTypePublicContract: "Décompte (marché public)",
	DocTypeExportInvoice:  "Facture Export",
	DocTypePurchaseOrder:  "Bon de commande",
	DocTypeDeliveryNote:   "Bon de délivrance",
	DocTypeReceiptNote:    "Bon de réception",
	DocTypeReturnNote:     "Bon de retour",
	DocTypePaymentSlip:    "Bulletin de versement",
	DocTypePaymentOrder:   "Ordre de paiement",
	DocTypeExpenseNote:    "Note de frais",
	DocTypeServiceNote:    "Attestation de service",
}

// DocTypes lists every document type code in display order.
var DocTypes = []DocType{
	DocTypeInvoice, DocTypeCreditNote, DocTypeFeeNote, DocTypePublicContract,
	DocTypeExportInvoice, DocTypePurchaseOrder, DocTypeDeliveryNote,
	DocTypeReceiptNote, DocTypeReturnNote, DocTypePaymentSlip,
	DocTypePaymentOrder, DocTypeExpenseNote, DocTypeServiceNote,
}

// IsServiceDocument reports whether the document type is a service invoice
// (expense note or service attestation).
func (d DocType) IsServiceDocument() bool {
	return d == DocTypeExpenseNote || d == DocTypeServiceNote
}

// PaymentMeans is a TEIF payment means code.
type PaymentMeans string

const (
	PaymentWireTransfer PaymentMeans = "I-114"
	PaymentPostal       PaymentMeans = "I-115"
	PaymentCash         PaymentMeans = "I-116"
	PaymentCheck        PaymentMeans = "I-117"
	PaymentCard         PaymentMeans = "I-118"
	PaymentElectronic   PaymentMeans = "I-119"
	PaymentOther        PaymentMeans = "I-120"
	PaymentBill         PaymentMeans = "I-131"
)

// PaymentMeansLabels maps payment means codes to their French labels.
var PaymentMeansLabels = map[PaymentMeans]string{
	PaymentWireTransfer: "Virement bancaire",
	PaymentPostal:       "Courrier postal",
	PaymentCash:         "Espèce",
	PaymentCheck:        "Chèque",
	PaymentCard:         "Carte bancaire",
	PaymentElectronic:   "Paiement électronique",
	PaymentOther:        "Autre",
	PaymentBill:         "Paiement par effet",
}

// PaymentMeansCodes lists every payment means code.
var PaymentMeansCodes = []PaymentMeans{
	PaymentWireTransfer, PaymentPostal, PaymentCash, PaymentCheck,
	PaymentCard, PaymentElectronic, PaymentOther, PaymentBill,
}

// OperationNature qualifies the commercial operation behind the document.
type OperationNature string

const (
	OpSupply   OperationNature = "OP-SUPPLY"
	OpDelivery OperationNature = "OP-DELIVERY"
	OpImport   OperationNature = "OP-IMPORT"
	OpExport   OperationNature = "OP-EXPORT"
	OpCash     OperationNature = "OP-CASH"
	OpReceipt  OperationNature = "OP-RECEIPT"
)

// OperationNatures lists every operation nature code.
var OperationNatures = []OperationNature{
	OpSupply, OpDelivery, OpImport, OpExport, OpCash, OpReceipt,
}

// AllowanceKind discriminates allowances (reductions) from charges (surcharges).
type AllowanceKind string

const (
	KindAllowance AllowanceKind = "allowance"
	KindCharge    AllowanceKind = "charge"
)

// AllowanceBasis tells whether an allowance/charge applies to a single line or
// to the invoice as a whole. An entry is never both.
type AllowanceBasis string

const (
	BasisLine    AllowanceBasis = "line"
	BasisInvoice AllowanceBasis = "invoice"
)

// Allowance/charge reason codes (I-151 discount .. I-155 other).
const (
	AlcCodeDiscount  = "I-151"
	AlcCodeFreight   = "I-152"
	AlcCodeInsurance = "I-153"
	AlcCodeHandling  = "I-154"
	AlcCodeOther     = "I-155"
)

// Partner is one party of the invoice (supplier or buyer).
type Partner struct {
	IDType             IDType
	IDValue            string
	Name               string
	AddressDescription string
	Street             string
	City               string
	PostalCode         string
	Country            string // ISO 3166-1 alpha-2
	RC                 string // registre de commerce, business partners only
	Capital            string // capital social, business partners only
	Phone              string
	Email              string
	Function           string // partner function code override (default I-62/I-64)
}

// AllowanceCharge is a coded reduction or surcharge, attached either to a line
// or to the invoice.
type AllowanceCharge struct {
	ID          string
	Kind        AllowanceKind
	Code        string // I-151..I-155
	Description string
	Amount      float64
	BasedOn     AllowanceBasis
	LineID      string // set when BasedOn == BasisLine
}

// InvoiceLine is one billed item. DiscountRate is a percentage (0-100);
// TaxRate is a fraction (0-1).
type InvoiceLine struct {
	ID              string
	ItemCode        string
	Description     string
	Quantity        float64
	Unit            string // measurement unit code (UNIT, KG, H, ...)
	UnitPrice       float64
	DiscountRate    float64
	TaxRate         float64
	Fodec           bool
	ExemptionReason string // required by the rule engine when TaxRate == 0
	Allowances      []AllowanceCharge
}

// InvoiceData is the aggregate handed to the engine. It is passed by value and
// never mutated; all dates are ISO YYYY-MM-DD strings except SignatureDate
// which is already in ddMMyyHHmm form.
type InvoiceData struct {
	DocumentType   DocType
	DocumentNumber string
	InvoiceDate    string

	DueDate       string
	DeliveryDate  string
	DispatchDate  string
	PaymentDate   string
	SignatureDate string
	OtherDate     string
	PeriodStart   string
	PeriodEnd     string

	OrderReference        string
	ContractReference     string
	DeliveryNoteReference string
	CreditReason          string

	OperationNature OperationNature
	Currency        string // ISO 4217, typically TND

	Supplier Partner
	Buyer    Partner

	Lines      []InvoiceLine
	Allowances []AllowanceCharge // invoice-level entries

	GlobalDiscount float64
	StampDuty      float64
	TTNReference   string

	PaymentMeans PaymentMeans

	// Wire transfer (I-114)
	BankName         string
	BankCode         string
	BankRIB          string
	BankAccountOwner string
	// Check (I-117)
	CheckNumber string
	// Card (I-118)
	CardType      string
	CardLast4     string
	CardReference string
	// Postal (I-115)
	PostalAccountNumber string
	PostalAccountOwner  string
	PostalBranchCode    string
	PostalServiceName   string
	// E-payment (I-119)
	EPaymentGateway       string
	EPaymentTransactionID string
	// Other (I-120)
	OtherPaymentDescription string
	OtherPaymentReference   string

	// Withholding tax (retenue à la source), percentage 0-100.
	IRCRate            float64
	IRCExemptionReason string

	AmountInWordsOverride string
	QREnabled             bool
}
