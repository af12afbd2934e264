package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teiftn/facture/auth"
	"github.com/teiftn/facture/httpx"
	"github.com/teiftn/facture/internal/models"
	"github.com/teiftn/facture/internal/services"
	"github.com/teiftn/facture/rib"
	"github.com/teiftn/facture/teif"
	"github.com/teiftn/facture/validation"
)

type InvoiceHandler struct {
	db  *gorm.DB
	svc *services.InvoiceService
	log *zap.Logger
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService, log *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{db: db, svc: svc, log: log}
}

type invoiceLineRequest struct {
	ItemCode        string  `json:"item_code,omitempty"`
	Description     string  `json:"description"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `json:"unit,omitempty"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountRate    float64 `json:"discount_rate,omitempty"`
	TaxRate         float64 `json:"tax_rate"`
	ExemptionReason string  `json:"exemption_reason,omitempty"`
	Fodec           bool    `json:"fodec,omitempty"`
}

type allowanceChargeRequest struct {
	Kind        string  `json:"kind"`
	Code        string  `json:"code,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
}

type invoiceRequest struct {
	Number       string `json:"number,omitempty"`
	DocumentType string `json:"document_type,omitempty"`

	SupplierID uint `json:"supplier_id"`
	BuyerID    uint `json:"buyer_id"`

	InvoiceDate        string `json:"invoice_date"`
	DueDate            string `json:"due_date,omitempty"`
	DeliveryDate       string `json:"delivery_date,omitempty"`
	DispatchDate       string `json:"dispatch_date,omitempty"`
	PaymentDate        string `json:"payment_date,omitempty"`
	OtherDate          string `json:"other_date,omitempty"`
	ServicePeriodStart string `json:"service_period_start,omitempty"`
	ServicePeriodEnd   string `json:"service_period_end,omitempty"`

	// SignatureDate is the I-37 timestamp in ddMMyyHHmm form.
	SignatureDate string `json:"signature_date,omitempty"`

	OperationNature string `json:"operation_nature,omitempty"`
	Currency        string `json:"currency,omitempty"`

	PaymentMeans string `json:"payment_means,omitempty"`
	PaymentTerms string `json:"payment_terms,omitempty"`

	BankRIB          string `json:"bank_rib,omitempty"`
	BankName         string `json:"bank_name,omitempty"`
	BankCode         string `json:"bank_code,omitempty"`
	BankAccountOwner string `json:"bank_account_owner,omitempty"`

	CheckNumber   string `json:"check_number,omitempty"`
	PostalAccount string `json:"postal_account,omitempty"`

	CardType      string `json:"card_type,omitempty"`
	CardLast4     string `json:"card_last4,omitempty"`
	CardReference string `json:"card_reference,omitempty"`

	EPaymentGateway       string `json:"epayment_gateway,omitempty"`
	EPaymentTransactionID string `json:"epayment_transaction_id,omitempty"`
	OtherPaymentDetails   string `json:"other_payment_details,omitempty"`

	OrderReference        string `json:"order_reference,omitempty"`
	ContractReference     string `json:"contract_reference,omitempty"`
	DeliveryNoteReference string `json:"delivery_note_reference,omitempty"`
	CreditNoteReason      string `json:"credit_note_reason,omitempty"`

	DeliveryAddress string `json:"delivery_address,omitempty"`
	DeliveryTerms   string `json:"delivery_terms,omitempty"`

	GlobalDiscount float64 `json:"global_discount,omitempty"`
	StampDuty      float64 `json:"stamp_duty,omitempty"`
	IRCRate        float64 `json:"irc_rate,omitempty"`

	QREnabled *bool  `json:"qr_enabled,omitempty"`
	Notes     string `json:"notes,omitempty"`

	Lines            []invoiceLineRequest     `json:"lines"`
	AllowanceCharges []allowanceChargeRequest `json:"allowance_charges,omitempty"`
}

var (
	docTypeCodes = func() []string {
		out := make([]string, 0, len(teif.DocTypes))
		for _, d := range teif.DocTypes {
			out = append(out, string(d))
		}
		return out
	}()
	paymentMeansCodes = func() []string {
		out := make([]string, 0, len(teif.PaymentMeansCodes))
		for _, p := range teif.PaymentMeansCodes {
			out = append(out, string(p))
		}
		return out
	}()
	operationNatureCodes = func() []string {
		out := make([]string, 0, len(teif.OperationNatures))
		for _, o := range teif.OperationNatures {
			out = append(out, string(o))
		}
		return out
	}()
	alcCodes = []string{
		teif.AlcCodeDiscount, teif.AlcCodeFreight, teif.AlcCodeInsurance,
		teif.AlcCodeHandling, teif.AlcCodeOther,
	}
)

func (h *InvoiceHandler) validate(req *invoiceRequest) validation.Violations {
	v := make(validation.Violations)

	validation.DocumentNumber("number", req.Number, v)
	validation.OneOf("document_type", req.DocumentType, docTypeCodes, v)
	validation.OneOf("payment_means", req.PaymentMeans, paymentMeansCodes, v)
	validation.OneOf("operation_nature", req.OperationNature, operationNatureCodes, v)

	validation.Required("invoice_date", req.InvoiceDate, v)
	validation.ISODate("invoice_date", req.InvoiceDate, v)
	validation.ISODate("due_date", req.DueDate, v)
	validation.ISODate("delivery_date", req.DeliveryDate, v)
	validation.ISODate("dispatch_date", req.DispatchDate, v)
	validation.ISODate("payment_date", req.PaymentDate, v)
	validation.ISODate("other_date", req.OtherDate, v)
	validation.ISODate("service_period_start", req.ServicePeriodStart, v)
	validation.ISODate("service_period_end", req.ServicePeriodEnd, v)
	validation.Digits("signature_date", req.SignatureDate, 10, v)

	if req.SupplierID == 0 {
		v["supplier_id"] = "required"
	}
	if req.BuyerID == 0 {
		v["buyer_id"] = "required"
	}

	validation.NonNegativeFloat("global_discount", req.GlobalDiscount, v)
	validation.NonNegativeFloat("stamp_duty", req.StampDuty, v)
	validation.RangeFloat("irc_rate", req.IRCRate, 0, 100, v)

	if teif.PaymentMeans(req.PaymentMeans) == teif.PaymentWireTransfer && req.BankRIB != "" {
		if res := rib.Validate(req.BankRIB); !res.IsValid {
			v["bank_rib"] = res.Error
		}
	}
	validation.Digits("postal_account", req.PostalAccount, 20, v)

	docType := teif.DocType(req.DocumentType)
	for i, l := range req.Lines {
		prefix := "lines." + strconv.Itoa(i) + "."
		validation.Required(prefix+"description", l.Description, v)
		validation.PositiveFloat(prefix+"quantity", l.Quantity, v)
		validation.NonNegativeFloat(prefix+"unit_price", l.UnitPrice, v)
		validation.RangeFloat(prefix+"discount_rate", l.DiscountRate, 0, 100, v)
		validation.RangeFloat(prefix+"tax_rate", l.TaxRate, 0, 1, v)
		if teif.ExemptionReasonRequired(teif.InvoiceLine{TaxRate: l.TaxRate}) && l.ExemptionReason == "" {
			v[prefix+"exemption_reason"] = "required_for_exempt_line"
		}
		if teif.ItemCodeMandatory(teif.InvoiceData{DocumentType: docType}) && l.ItemCode == "" {
			v[prefix+"item_code"] = "required_for_service_document"
		}
	}

	for i, a := range req.AllowanceCharges {
		prefix := "allowance_charges." + strconv.Itoa(i) + "."
		validation.OneOf(prefix+"kind", a.Kind, []string{string(teif.KindAllowance), string(teif.KindCharge)}, v)
		validation.Required(prefix+"kind", a.Kind, v)
		validation.OneOf(prefix+"code", a.Code, alcCodes, v)
		validation.PositiveFloat(prefix+"amount", a.Amount, v)
	}

	return v
}

// apply copies the request onto a model, replacing lines and allowance entries.
func (h *InvoiceHandler) apply(inv *models.Invoice, req *invoiceRequest) {
	inv.Number = req.Number
	inv.DocumentType = req.DocumentType
	inv.SupplierID = req.SupplierID
	inv.BuyerID = req.BuyerID
	inv.InvoiceDate = req.InvoiceDate
	inv.DueDate = req.DueDate
	inv.DeliveryDate = req.DeliveryDate
	inv.DispatchDate = req.DispatchDate
	inv.PaymentDate = req.PaymentDate
	inv.OtherDate = req.OtherDate
	inv.SignatureDate = req.SignatureDate
	inv.ServicePeriodStart = req.ServicePeriodStart
	inv.ServicePeriodEnd = req.ServicePeriodEnd
	inv.OperationNature = req.OperationNature
	inv.Currency = req.Currency
	inv.PaymentMeans = req.PaymentMeans
	inv.PaymentTerms = req.PaymentTerms
	inv.BankRIB = req.BankRIB
	inv.BankName = req.BankName
	inv.BankCode = req.BankCode
	inv.BankAccountOwner = req.BankAccountOwner
	inv.CheckNumber = req.CheckNumber
	inv.PostalAccount = req.PostalAccount
	inv.CardType = req.CardType
	inv.CardLast4 = req.CardLast4
	inv.CardReference = req.CardReference
	inv.EPaymentGateway = req.EPaymentGateway
	inv.EPaymentTransactionID = req.EPaymentTransactionID
	inv.OtherPaymentDetails = req.OtherPaymentDetails
	inv.OrderReference = req.OrderReference
	inv.ContractReference = req.ContractReference
	inv.DeliveryNoteReference = req.DeliveryNoteReference
	inv.CreditNoteReason = req.CreditNoteReason
	inv.DeliveryAddress = req.DeliveryAddress
	inv.DeliveryTerms = req.DeliveryTerms
	inv.GlobalDiscount = req.GlobalDiscount
	inv.StampDuty = req.StampDuty
	inv.IRCRate = req.IRCRate
	inv.Notes = req.Notes
	if req.QREnabled != nil {
		inv.QREnabled = *req.QREnabled
	}

	inv.Lines = inv.Lines[:0]
	for i, l := range req.Lines {
		unit := l.Unit
		if unit == "" {
			unit = "UNIT"
		}
		inv.Lines = append(inv.Lines, models.InvoiceLine{
			ItemCode:        l.ItemCode,
			Description:     l.Description,
			Quantity:        l.Quantity,
			Unit:            unit,
			UnitPrice:       l.UnitPrice,
			DiscountRate:    l.DiscountRate,
			TaxRate:         l.TaxRate,
			ExemptionReason: l.ExemptionReason,
			Fodec:           l.Fodec,
			Position:        i,
		})
	}
	inv.AllowanceCharges = inv.AllowanceCharges[:0]
	for _, a := range req.AllowanceCharges {
		inv.AllowanceCharges = append(inv.AllowanceCharges, models.AllowanceCharge{
			Kind:        a.Kind,
			Code:        a.Code,
			Description: a.Description,
			Amount:      a.Amount,
		})
	}
}

func (h *InvoiceHandler) defaults(req *invoiceRequest) {
	if req.DocumentType == "" {
		req.DocumentType = string(teif.DocTypeInvoice)
	}
	if req.PaymentMeans == "" {
		req.PaymentMeans = string(teif.PaymentCash)
	}
	if req.OperationNature == "" {
		req.OperationNature = string(teif.OpSupply)
	}
	if req.Currency == "" {
		req.Currency = "TND"
	}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit := 20
	offset := (page - 1) * limit

	q := h.db.Where("user_id = ?", userID)
	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if docType := r.URL.Query().Get("document_type"); docType != "" {
		q = q.Where("document_type = ?", docType)
	}

	var total int64
	q.Model(&models.Invoice{}).Count(&total)

	var invoices []models.Invoice
	err := q.Preload("Supplier").Preload("Buyer").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&invoices).Error
	if err != nil {
		h.log.Error("list invoices", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"items": invoices,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req invoiceRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	h.defaults(&req)

	if v := h.validate(&req); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	if !h.partnersOwned(userID, req.SupplierID, req.BuyerID) {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed",
			validation.Violations{"supplier_id": "unknown_partner"})
		return
	}

	inv := models.Invoice{UserID: userID, Status: models.InvoiceStatusDraft, QREnabled: true}
	h.apply(&inv, &req)

	if inv.Number == "" {
		number, err := h.svc.NextNumber(userID)
		if err != nil {
			h.log.Error("allocate invoice number", zap.Error(err))
			httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			return
		}
		inv.Number = number
	}

	if err := h.db.Create(&inv).Error; err != nil {
		h.log.Error("create invoice", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) partnersOwned(userID uint, ids ...uint) bool {
	distinct := map[uint]struct{}{}
	for _, id := range ids {
		distinct[id] = struct{}{}
	}
	var count int64
	keys := make([]uint, 0, len(distinct))
	for id := range distinct {
		keys = append(keys, id)
	}
	h.db.Model(&models.Partner{}).
		Where("user_id = ? AND id IN ?", userID, keys).
		Count(&count)
	return count == int64(len(distinct))
}

func (h *InvoiceHandler) load(r *http.Request) (*models.Invoice, error) {
	userID, _ := auth.UserIDFromContext(r.Context())
	return h.svc.Load(userID, chi.URLParam(r, "id"))
}

func (h *InvoiceHandler) View(w http.ResponseWriter, r *http.Request) {
	inv, err := h.load(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	inv, err := h.load(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
		return
	}
	if !inv.CanEdit() {
		httpx.JSONError(w, http.StatusConflict, "invoice_not_editable", nil)
		return
	}

	var req invoiceRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	h.defaults(&req)
	if req.Number == "" {
		req.Number = inv.Number
	}

	if v := h.validate(&req); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	if !h.partnersOwned(inv.UserID, req.SupplierID, req.BuyerID) {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed",
			validation.Violations{"supplier_id": "unknown_partner"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		// Replace children wholesale; the request carries the full document.
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.AllowanceCharge{}).Error; err != nil {
			return err
		}
		h.apply(inv, &req)
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(inv).Error
	})
	if err != nil {
		h.log.Error("update invoice", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	inv, err := h.load(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
		return
	}
	if !inv.IsDraft() {
		httpx.JSONError(w, http.StatusConflict, "only_drafts_can_be_deleted", nil)
		return
	}
	if err := h.db.Delete(inv).Error; err != nil {
		h.log.Error("delete invoice", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Finalize freezes a draft. A finalized document can be submitted to TTN but
// no longer edited.
func (h *InvoiceHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	inv, err := h.load(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
		return
	}
	if !inv.IsDraft() {
		httpx.JSONError(w, http.StatusConflict, "invoice_not_draft", nil)
		return
	}
	if len(inv.Lines) == 0 {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "invoice_has_no_lines", nil)
		return
	}

	inv.Status = models.InvoiceStatusFinal
	if err := h.db.Model(inv).Update("status", inv.Status).Error; err != nil {
		h.log.Error("finalize invoice", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) XML(w http.ResponseWriter, r *http.Request) {
	inv, err := h.load(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
		return
	}

	minify := r.URL.Query().Get("minify") == "1" || r.URL.Query().Get("minify") == "true"
	out, err := h.svc.XML(inv, minify)
	if err != nil {
		h.log.Error("generate xml", zap.String("document_id", inv.DocumentID), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "xml_generation_failed", nil)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func (h *InvoiceHandler) QR(w http.ResponseWriter, r *http.Request) {
	inv, err := h.load(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
		return
	}
	payload, err := h.svc.QR(inv)
	if err != nil {
		h.log.Error("generate qr", zap.String("document_id", inv.DocumentID), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "qr_generation_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"payload": payload})
}

func (h *InvoiceHandler) Totals(w http.ResponseWriter, r *http.Request) {
	inv, err := h.load(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
		return
	}
	totals, err := h.svc.Totals(inv)
	if err != nil {
		h.log.Error("compute totals", zap.String("document_id", inv.DocumentID), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "totals_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}

func (h *InvoiceHandler) Fields(w http.ResponseWriter, r *http.Request) {
	inv, err := h.load(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
		return
	}
	fields, err := h.svc.Fields(inv)
	if err != nil {
		h.log.Error("field visibility", zap.String("document_id", inv.DocumentID), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "fields_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, fields)
}
