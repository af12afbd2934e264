package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/teiftn/facture/internal/db"
)

// client carries the session cookie across requests like a browser would.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &client{t: t, handler: New(conn, zap.NewNop())}
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return w
}

func (c *client) decode(w *httptest.ResponseRecorder, dst any) {
	c.t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		c.t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func (c *client) register(t *testing.T) {
	t.Helper()
	w := c.do(http.MethodPost, "/auth/register", `{"email":"u@test","password":"secret123"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
}

func (c *client) createPartner(t *testing.T, body string) uint {
	t.Helper()
	w := c.do(http.MethodPost, "/partners/", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create partner: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var p struct {
		ID uint `json:"id"`
	}
	c.decode(w, &p)
	return p.ID
}

func (c *client) createInvoice(t *testing.T, supplierID, buyerID uint) string {
	t.Helper()
	body := fmt.Sprintf(`{
		"supplier_id": %d,
		"buyer_id": %d,
		"invoice_date": "2026-01-15",
		"stamp_duty": 1,
		"lines": [
			{"description": "Marchandise", "quantity": 10, "unit_price": 100, "tax_rate": 0.19}
		]
	}`, supplierID, buyerID)
	w := c.do(http.MethodPost, "/invoices/", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create invoice: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var inv struct {
		DocumentID string `json:"document_id"`
		Number     string `json:"number"`
	}
	c.decode(w, &inv)
	if inv.DocumentID == "" {
		t.Fatalf("missing document_id: %s", w.Body.String())
	}
	if inv.Number == "" {
		t.Fatalf("expected an allocated number: %s", w.Body.String())
	}
	return inv.DocumentID
}

func (c *client) seedDocument(t *testing.T) string {
	t.Helper()
	c.register(t)
	supplierID := c.createPartner(t, `{"identifier":"123456789","id_type":"I-01","name":"Fournisseur SARL","is_supplier":true}`)
	buyerID := c.createPartner(t, `{"identifier":"987654321","id_type":"I-01","name":"Client SA"}`)
	return c.createInvoice(t, supplierID, buyerID)
}

func TestHealthEndpoints(t *testing.T) {
	c := newClient(t)
	if w := c.do(http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
	if w := c.do(http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	c := newClient(t)
	w := c.do(http.MethodGet, "/invoices/", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	c := newClient(t)
	c.register(t)

	w := c.do(http.MethodGet, "/auth/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200 got %d", w.Code)
	}

	// Duplicate email rejected.
	w = c.do(http.MethodPost, "/auth/register", `{"email":"u@test","password":"secret123"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409 got %d", w.Code)
	}

	c.cookies = nil
	w = c.do(http.MethodPost, "/auth/login", `{"email":"u@test","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401 got %d", w.Code)
	}
	w = c.do(http.MethodPost, "/auth/login", `{"email":"u@test","password":"secret123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d", w.Code)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	c := newClient(t)
	docID := c.seedDocument(t)

	// Totals: 10x100 at 19% VAT + 1 TND stamp.
	w := c.do(http.MethodGet, "/invoices/"+docID+"/totals", "")
	if w.Code != http.StatusOK {
		t.Fatalf("totals: %d body=%s", w.Code, w.Body.String())
	}
	var totals struct {
		TotalTTC float64 `json:"total_ttc"`
		TVA      float64 `json:"tva"`
	}
	c.decode(w, &totals)
	if totals.TotalTTC != 1191 {
		t.Fatalf("expected TTC 1191 got %v", totals.TotalTTC)
	}
	if totals.TVA != 190 {
		t.Fatalf("expected TVA 190 got %v", totals.TVA)
	}

	// XML in both renderings.
	w = c.do(http.MethodGet, "/invoices/"+docID+"/xml", "")
	if w.Code != http.StatusOK {
		t.Fatalf("xml: %d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	pretty := w.Body.String()
	if !strings.Contains(pretty, `version="1.8.8"`) {
		t.Fatalf("missing TEIF version: %s", pretty)
	}
	w = c.do(http.MethodGet, "/invoices/"+docID+"/xml?minify=1", "")
	if w.Code != http.StatusOK || len(w.Body.String()) >= len(pretty) {
		t.Fatalf("expected smaller minified output: %d vs %d", len(w.Body.String()), len(pretty))
	}

	// QR payload carries the supplier id and invoice number.
	w = c.do(http.MethodGet, "/invoices/"+docID+"/qr", "")
	if w.Code != http.StatusOK {
		t.Fatalf("qr: %d", w.Code)
	}
	var qr struct {
		Payload string `json:"payload"`
	}
	c.decode(w, &qr)
	if !strings.HasPrefix(qr.Payload, "123456789|F-") {
		t.Fatalf("unexpected qr payload %q", qr.Payload)
	}

	// Field visibility map is non-empty and hides banking details for cash.
	w = c.do(http.MethodGet, "/invoices/"+docID+"/fields", "")
	if w.Code != http.StatusOK {
		t.Fatalf("fields: %d", w.Code)
	}
	var fields map[string]bool
	c.decode(w, &fields)
	if len(fields) == 0 {
		t.Fatal("empty visibility map")
	}
	if fields["rib"] {
		t.Fatal("banking details should be hidden for cash payment")
	}

	// Finalize, then editing is refused.
	w = c.do(http.MethodPost, "/invoices/"+docID+"/finalize", "")
	if w.Code != http.StatusOK {
		t.Fatalf("finalize: %d body=%s", w.Code, w.Body.String())
	}
	w = c.do(http.MethodDelete, "/invoices/"+docID, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("delete finalized: expected 409 got %d", w.Code)
	}
}

func TestInvoiceSupplementaryDatesReachXML(t *testing.T) {
	c := newClient(t)
	c.register(t)
	supplierID := c.createPartner(t, `{"identifier":"123456789","id_type":"I-01","name":"Fournisseur SARL","address_description":"Zone industrielle, Ben Arous","is_supplier":true}`)
	buyerID := c.createPartner(t, `{"identifier":"987654321","id_type":"I-01","name":"Client SA"}`)

	body := fmt.Sprintf(`{
		"supplier_id": %d,
		"buyer_id": %d,
		"invoice_date": "2026-01-15",
		"signature_date": "1501261030",
		"other_date": "2026-03-01",
		"lines": [{"description": "Marchandise", "quantity": 1, "unit_price": 100, "tax_rate": 0.19}]
	}`, supplierID, buyerID)
	w := c.do(http.MethodPost, "/invoices/", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create invoice: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var inv struct {
		DocumentID string `json:"document_id"`
	}
	c.decode(w, &inv)

	w = c.do(http.MethodGet, "/invoices/"+inv.DocumentID+"/xml", "")
	if w.Code != http.StatusOK {
		t.Fatalf("xml: %d body=%s", w.Code, w.Body.String())
	}
	out := w.Body.String()
	for _, want := range []string{
		`functionCode="I-37">1501261030<`,
		`functionCode="I-38">010326<`,
		`<AdressDescription>Zone industrielle, Ben Arous</AdressDescription>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in: %s", want, out)
		}
	}

	// A signature timestamp that is not ddMMyyHHmm is refused.
	body = fmt.Sprintf(`{
		"supplier_id": %d,
		"buyer_id": %d,
		"invoice_date": "2026-01-15",
		"signature_date": "2026-01-15",
		"lines": [{"description": "Art", "quantity": 1, "unit_price": 100, "tax_rate": 0.19}]
	}`, supplierID, buyerID)
	w = c.do(http.MethodPost, "/invoices/", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "signature_date") {
		t.Fatalf("expected signature_date violation: %s", w.Body.String())
	}
}

func TestInvoiceValidation(t *testing.T) {
	c := newClient(t)
	c.register(t)
	supplierID := c.createPartner(t, `{"identifier":"123456789","id_type":"I-01","name":"Fournisseur","is_supplier":true}`)
	buyerID := c.createPartner(t, `{"identifier":"987654321","id_type":"I-01","name":"Client"}`)

	// Exempt line without justification is rejected.
	body := fmt.Sprintf(`{
		"supplier_id": %d,
		"buyer_id": %d,
		"invoice_date": "2026-01-15",
		"lines": [{"description": "Exonéré", "quantity": 1, "unit_price": 100, "tax_rate": 0}]
	}`, supplierID, buyerID)
	w := c.do(http.MethodPost, "/invoices/", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "exemption_reason") {
		t.Fatalf("expected exemption_reason violation: %s", w.Body.String())
	}

	// Wire transfer with a bad RIB is rejected.
	body = fmt.Sprintf(`{
		"supplier_id": %d,
		"buyer_id": %d,
		"invoice_date": "2026-01-15",
		"payment_means": "I-114",
		"bank_rib": "00000000000000000000",
		"lines": [{"description": "Art", "quantity": 1, "unit_price": 100, "tax_rate": 0.19}]
	}`, supplierID, buyerID)
	w = c.do(http.MethodPost, "/invoices/", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "bank_rib") {
		t.Fatalf("expected bank_rib violation: %s", w.Body.String())
	}

	// Malformed date.
	body = fmt.Sprintf(`{
		"supplier_id": %d,
		"buyer_id": %d,
		"invoice_date": "15/01/2026",
		"lines": [{"description": "Art", "quantity": 1, "unit_price": 100, "tax_rate": 0.19}]
	}`, supplierID, buyerID)
	w = c.do(http.MethodPost, "/invoices/", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestPartnerValidation(t *testing.T) {
	c := newClient(t)
	c.register(t)

	// RC on a person identifier is refused.
	w := c.do(http.MethodPost, "/partners/", `{"identifier":"12345678","id_type":"I-02","name":"Personne","rc":"B1234"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}

	// Unknown id type code.
	w = c.do(http.MethodPost, "/partners/", `{"identifier":"12345678","id_type":"I-99","name":"X"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", w.Code)
	}
}

func TestValidateRIBEndpoint(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodPost, "/validate/rib", `{"rib":"87040351200035123456"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var res struct {
		IsValid bool   `json:"isValid"`
		Error   string `json:"error"`
	}
	c.decode(w, &res)
	if !res.IsValid {
		t.Fatalf("expected valid RIB, got error %q", res.Error)
	}

	w = c.do(http.MethodPost, "/validate/rib", `{"rib":"1234"}`)
	c.decode(w, &res)
	if res.IsValid || res.Error == "" {
		t.Fatalf("expected invalid RIB with error, got %+v", res)
	}
}

func TestTenantIsolation(t *testing.T) {
	c := newClient(t)
	docID := c.seedDocument(t)

	// A second user cannot see the first user's document.
	c.cookies = nil
	w := c.do(http.MethodPost, "/auth/register", `{"email":"intrus@test","password":"secret123"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register second user: %d", w.Code)
	}
	w = c.do(http.MethodGet, "/invoices/"+docID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}
