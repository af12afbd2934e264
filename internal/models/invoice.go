package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceStatus represents the lifecycle status of a document.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinal     InvoiceStatus = "final"
	InvoiceStatusSubmitted InvoiceStatus = "submitted" // sent to TTN, ReferenceTTN assigned
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice represents a TEIF document of any type (facture, avoir, bon de
// livraison, ...). Monetary totals are not stored: they are recomputed from
// the lines on every read so a stored row can never disagree with its XML.
type Invoice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// UserID is the owner of this document (multi-tenant isolation)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	// DocumentID is the stable public identifier exposed by the API.
	DocumentID string `gorm:"size:36;uniqueIndex;not null" json:"document_id"`

	Number       string `gorm:"size:70;not null" json:"number"`
	DocumentType string `gorm:"size:5;not null;default:'I-11'" json:"document_type"`

	SupplierID uint     `gorm:"index;not null" json:"supplier_id"`
	Supplier   *Partner `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	BuyerID    uint     `gorm:"index;not null" json:"buyer_id"`
	Buyer      *Partner `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`

	// Dates are stored as ISO strings (YYYY-MM-DD): TEIF works in calendar
	// dates, not instants, and an empty string means "not provided".
	InvoiceDate        string `gorm:"size:10;not null" json:"invoice_date"`
	DueDate            string `gorm:"size:10" json:"due_date,omitempty"`
	DeliveryDate       string `gorm:"size:10" json:"delivery_date,omitempty"`
	DispatchDate       string `gorm:"size:10" json:"dispatch_date,omitempty"`
	PaymentDate        string `gorm:"size:10" json:"payment_date,omitempty"`
	OtherDate          string `gorm:"size:10" json:"other_date,omitempty"`
	ServicePeriodStart string `gorm:"size:10" json:"service_period_start,omitempty"`
	ServicePeriodEnd   string `gorm:"size:10" json:"service_period_end,omitempty"`

	// SignatureDate is the I-37 timestamp, already in ddMMyyHHmm form.
	SignatureDate string `gorm:"size:10" json:"signature_date,omitempty"`

	OperationNature string `gorm:"size:20;default:'OP-SUPPLY'" json:"operation_nature"`
	Currency        string `gorm:"size:3;default:'TND'" json:"currency"`

	PaymentMeans string `gorm:"size:5;default:'I-116'" json:"payment_means"`
	PaymentTerms string `gorm:"size:500" json:"payment_terms,omitempty"`

	// Payment detail groups; at most one is meaningful for a given
	// PaymentMeans, the rule engine decides which.
	BankRIB          string `gorm:"size:20" json:"bank_rib,omitempty"`
	BankName         string `gorm:"size:255" json:"bank_name,omitempty"`
	BankCode         string `gorm:"size:10" json:"bank_code,omitempty"`
	BankAccountOwner string `gorm:"size:255" json:"bank_account_owner,omitempty"`

	CheckNumber string `gorm:"size:50" json:"check_number,omitempty"`

	PostalAccount string `gorm:"size:20" json:"postal_account,omitempty"`

	CardType      string `gorm:"size:50" json:"card_type,omitempty"`
	CardLast4     string `gorm:"size:4" json:"card_last4,omitempty"`
	CardReference string `gorm:"size:100" json:"card_reference,omitempty"`

	EPaymentGateway       string `gorm:"size:100" json:"epayment_gateway,omitempty"`
	EPaymentTransactionID string `gorm:"size:100" json:"epayment_transaction_id,omitempty"`

	OtherPaymentDetails string `gorm:"size:500" json:"other_payment_details,omitempty"`

	OrderReference        string `gorm:"size:100" json:"order_reference,omitempty"`
	ContractReference     string `gorm:"size:100" json:"contract_reference,omitempty"`
	DeliveryNoteReference string `gorm:"size:100" json:"delivery_note_reference,omitempty"`
	CreditNoteReason      string `gorm:"size:500" json:"credit_note_reason,omitempty"`

	DeliveryAddress string `gorm:"size:500" json:"delivery_address,omitempty"`
	DeliveryTerms   string `gorm:"size:255" json:"delivery_terms,omitempty"`

	GlobalDiscount float64 `gorm:"type:decimal(14,3);default:0" json:"global_discount"`
	StampDuty      float64 `gorm:"type:decimal(14,3);default:0" json:"stamp_duty"`
	// IRCRate is a percentage (0..100), like DiscountRate on lines.
	IRCRate float64 `gorm:"type:decimal(6,3);default:0" json:"irc_rate"`

	QREnabled    bool   `gorm:"default:true" json:"qr_enabled"`
	ReferenceTTN string `gorm:"size:100" json:"reference_ttn,omitempty"`

	Status InvoiceStatus `gorm:"size:20;default:'draft'" json:"status"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	Lines            []InvoiceLine     `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	AllowanceCharges []AllowanceCharge `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"allowance_charges,omitempty"`
}

// BeforeCreate assigns the public document identifier.
func (i *Invoice) BeforeCreate(_ *gorm.DB) error {
	if i.DocumentID == "" {
		i.DocumentID = uuid.NewString()
	}
	return nil
}

// IsDraft returns true if the document is still editable.
func (i *Invoice) IsDraft() bool { return i.Status == InvoiceStatusDraft }

// CanEdit returns true if the document can still be modified.
func (i *Invoice) CanEdit() bool { return i.Status == InvoiceStatusDraft }

// InvoiceLine represents one line item of a document.
type InvoiceLine struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InvoiceID uint     `gorm:"index;not null" json:"invoice_id"`
	Invoice   *Invoice `gorm:"foreignKey:InvoiceID" json:"-"`

	LineID string `gorm:"size:36;uniqueIndex;not null" json:"line_id"`

	ItemCode    string  `gorm:"size:50" json:"item_code,omitempty"`
	Description string  `gorm:"size:500;not null" json:"description"`
	Quantity    float64 `gorm:"type:decimal(14,5);not null;default:1" json:"quantity"`
	Unit        string  `gorm:"size:10;default:'UNIT'" json:"unit"`
	UnitPrice   float64 `gorm:"type:decimal(14,5);not null" json:"unit_price"`

	// DiscountRate is a percentage (0..100), TaxRate a fraction (0..1).
	DiscountRate    float64 `gorm:"type:decimal(6,3);default:0" json:"discount_rate"`
	TaxRate         float64 `gorm:"type:decimal(5,4);not null" json:"tax_rate"`
	ExemptionReason string  `gorm:"size:500" json:"exemption_reason,omitempty"`
	Fodec           bool    `gorm:"default:false" json:"fodec"`

	// Position for ordering
	Position int `gorm:"default:0" json:"position"`
}

// BeforeCreate assigns the public line identifier.
func (l *InvoiceLine) BeforeCreate(_ *gorm.DB) error {
	if l.LineID == "" {
		l.LineID = uuid.NewString()
	}
	return nil
}

// AllowanceCharge represents an invoice-level remise (allowance) or
// majoration (charge) applied on top of the line totals.
type AllowanceCharge struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InvoiceID uint     `gorm:"index;not null" json:"invoice_id"`
	Invoice   *Invoice `gorm:"foreignKey:InvoiceID" json:"-"`

	Kind        string  `gorm:"size:10;not null;default:'allowance'" json:"kind"` // allowance | charge
	Code        string  `gorm:"size:5" json:"code,omitempty"`                     // I-151..I-155
	Description string  `gorm:"size:255" json:"description,omitempty"`
	Amount      float64 `gorm:"type:decimal(14,3);not null" json:"amount"`
}

// GenerateInvoiceNumber generates the next document number for a user and year.
// Format: F-YYYY-NNNN (e.g. F-2026-0001).
func GenerateInvoiceNumber(db *gorm.DB, userID uint, year int) (string, error) {
	var count int64
	err := db.Model(&Invoice{}).
		Where("user_id = ? AND number LIKE ?", userID, fmt.Sprintf("F-%d-%%", year)).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("F-%d-%04d", year, count+1), nil
}
