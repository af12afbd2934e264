// Package services bridges persisted models and the TEIF engine.
package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/teiftn/facture/internal/models"
	"github.com/teiftn/facture/teif"
)

// InvoiceService loads documents and hands them to the TEIF engine. The
// engine itself never sees GORM types.
type InvoiceService struct {
	db *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db}
}

// Load fetches a document by its public identifier, scoped to its owner,
// with lines, parties and allowance entries preloaded.
func (s *InvoiceService) Load(userID uint, documentID string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.
		Preload("Supplier").
		Preload("Buyer").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("AllowanceCharges").
		Where("document_id = ? AND user_id = ?", documentID, userID).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// BuildInvoiceData converts a stored document to the value the engine consumes.
func BuildInvoiceData(inv *models.Invoice) (teif.InvoiceData, error) {
	if inv.Supplier == nil || inv.Buyer == nil {
		return teif.InvoiceData{}, fmt.Errorf("document %s: supplier and buyer must be loaded", inv.DocumentID)
	}

	data := teif.InvoiceData{
		DocumentType:   teif.DocType(inv.DocumentType),
		DocumentNumber: inv.Number,
		InvoiceDate:    inv.InvoiceDate,

		DueDate:       inv.DueDate,
		DeliveryDate:  inv.DeliveryDate,
		DispatchDate:  inv.DispatchDate,
		PaymentDate:   inv.PaymentDate,
		SignatureDate: inv.SignatureDate,
		OtherDate:     inv.OtherDate,
		PeriodStart:   inv.ServicePeriodStart,
		PeriodEnd:     inv.ServicePeriodEnd,

		OrderReference:        inv.OrderReference,
		ContractReference:     inv.ContractReference,
		DeliveryNoteReference: inv.DeliveryNoteReference,
		CreditReason:          inv.CreditNoteReason,

		OperationNature: teif.OperationNature(inv.OperationNature),
		Currency:        inv.Currency,

		Supplier: inv.Supplier.ToTEIF(),
		Buyer:    inv.Buyer.ToTEIF(),

		GlobalDiscount: inv.GlobalDiscount,
		StampDuty:      inv.StampDuty,
		TTNReference:   inv.ReferenceTTN,

		PaymentMeans: teif.PaymentMeans(inv.PaymentMeans),

		BankName:         inv.BankName,
		BankCode:         inv.BankCode,
		BankRIB:          inv.BankRIB,
		BankAccountOwner: inv.BankAccountOwner,

		CheckNumber: inv.CheckNumber,

		CardType:      inv.CardType,
		CardLast4:     inv.CardLast4,
		CardReference: inv.CardReference,

		PostalAccountNumber: inv.PostalAccount,

		EPaymentGateway:       inv.EPaymentGateway,
		EPaymentTransactionID: inv.EPaymentTransactionID,

		OtherPaymentDescription: inv.OtherPaymentDetails,

		IRCRate:   inv.IRCRate,
		QREnabled: inv.QREnabled,
	}

	for _, l := range inv.Lines {
		data.Lines = append(data.Lines, teif.InvoiceLine{
			ID:              l.LineID,
			ItemCode:        l.ItemCode,
			Description:     l.Description,
			Quantity:        l.Quantity,
			Unit:            l.Unit,
			UnitPrice:       l.UnitPrice,
			DiscountRate:    l.DiscountRate,
			TaxRate:         l.TaxRate,
			Fodec:           l.Fodec,
			ExemptionReason: l.ExemptionReason,
		})
	}
	for _, a := range inv.AllowanceCharges {
		data.Allowances = append(data.Allowances, teif.AllowanceCharge{
			Kind:        teif.AllowanceKind(a.Kind),
			Code:        a.Code,
			Description: a.Description,
			Amount:      a.Amount,
			BasedOn:     teif.BasisInvoice,
		})
	}
	return data, nil
}

// Totals recomputes the financial summary of a stored document.
func (s *InvoiceService) Totals(inv *models.Invoice) (teif.Totals, error) {
	data, err := BuildInvoiceData(inv)
	if err != nil {
		return teif.Totals{}, err
	}
	return teif.ComputeTotals(data), nil
}

// XML renders the TEIF document, pretty-printed or minified.
func (s *InvoiceService) XML(inv *models.Invoice, minify bool) (string, error) {
	data, err := BuildInvoiceData(inv)
	if err != nil {
		return "", err
	}
	return teif.GenerateXML(data, minify)
}

// QR returns the pipe-delimited QR payload for a stored document.
func (s *InvoiceService) QR(inv *models.Invoice) (string, error) {
	data, err := BuildInvoiceData(inv)
	if err != nil {
		return "", err
	}
	return teif.QRPayload(data, teif.ComputeTotals(data)), nil
}

// Fields returns the conditional field visibility map for a stored document.
func (s *InvoiceService) Fields(inv *models.Invoice) (map[string]bool, error) {
	data, err := BuildInvoiceData(inv)
	if err != nil {
		return nil, err
	}
	return teif.FieldVisibility(data), nil
}

// NextNumber allocates the next document number for the user in the current year.
func (s *InvoiceService) NextNumber(userID uint) (string, error) {
	return models.GenerateInvoiceNumber(s.db, userID, time.Now().Year())
}
