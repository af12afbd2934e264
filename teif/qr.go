package teif

import "strings"

// QRPayload builds the pipe-delimited content string encoded into the invoice
// QR code:
//
//	supplierId|documentNumber|invoiceDate(ddMMyy)|totalTTC(3dp)|totalVAT(3dp)
//
// It returns "" when the invoice has QR generation disabled. The payload is
// opaque to the serializer, which embeds it verbatim (base64) in ReferenceCEV.
func QRPayload(inv InvoiceData, t Totals) string {
	if !inv.QREnabled {
		return ""
	}
	return strings.Join([]string{
		inv.Supplier.IDValue,
		inv.DocumentNumber,
		FormatTTNDate(inv.InvoiceDate),
		FormatAmount(t.TotalTTC),
		FormatAmount(t.TVA),
	}, "|")
}
