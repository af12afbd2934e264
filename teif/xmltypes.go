package teif

import "encoding/xml"

// Struct model of a TEIF 1.8.8 document. Element and attribute names follow
// the standard exactly, including its historical spellings
// (MessageRecieverIdentifier, PartnerAdresses, PaymentTearmsTypeCode).

// Document is the TEIF root element.
type Document struct {
	XMLName          xml.Name      `xml:"TEIF"`
	ControlingAgency string        `xml:"controlingAgency,attr"`
	Version          string        `xml:"version,attr"`
	Header           InvoiceHeader `xml:"InvoiceHeader"`
	Body             InvoiceBody   `xml:"InvoiceBody"`
	RefTTN           RefTtnVal     `xml:"RefTtnVal"`
	Signature        Signature     `xml:"ds:Signature"`
}

// Identifier is a typed identifier (partner id, sender/receiver id).
type Identifier struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type InvoiceHeader struct {
	Sender   Identifier `xml:"MessageSenderIdentifier"`
	Receiver Identifier `xml:"MessageRecieverIdentifier"`
}

type InvoiceBody struct {
	Bgm        Bgm            `xml:"Bgm"`
	Dtm        Dtm            `xml:"Dtm"`
	Partners   PartnerSection `xml:"PartnerSection"`
	Payment    *PytSection    `xml:"PytSection,omitempty"`
	References *RffSection    `xml:"RffSection,omitempty"`
	Lines      LinSection     `xml:"LinSection"`
	Alc        *InvoiceAlc    `xml:"InvoiceAlc,omitempty"`
	Moa        InvoiceMoa     `xml:"InvoiceMoa"`
	Tax        InvoiceTax     `xml:"InvoiceTax"`
}

type Bgm struct {
	DocumentIdentifier string       `xml:"DocumentIdentifier"`
	DocumentType       DocumentType `xml:"DocumentType"`
}

type DocumentType struct {
	Code  string `xml:"code,attr"`
	Label string `xml:",chardata"`
}

type Dtm struct {
	Dates []DateText `xml:"DateText"`
}

// DateText carries one document date in its TEIF function slot (I-31 invoice
// date, I-32 due, I-33 delivery, I-34 dispatch, I-35 payment, I-36 period,
// I-37 signature, I-38 other).
type DateText struct {
	Format       string `xml:"format,attr"`
	FunctionCode string `xml:"functionCode,attr"`
	Value        string `xml:",chardata"`
}

type PartnerSection struct {
	Partners []PartnerDetails `xml:"PartnerDetails"`
}

type PartnerDetails struct {
	FunctionCode string       `xml:"functionCode,attr"`
	Nad          Nad          `xml:"Nad"`
	References   []RffSection `xml:"RffSection,omitempty"`
	Cta          CtaSection   `xml:"CtaSection"`
}

type Nad struct {
	Identifier Identifier      `xml:"PartnerIdentifier"`
	Name       PartnerName     `xml:"PartnerName"`
	Addresses  PartnerAdresses `xml:"PartnerAdresses"`
}

type PartnerName struct {
	NameType string `xml:"nameType,attr"`
	Value    string `xml:",chardata"`
}

type PartnerAdresses struct {
	Lang        string  `xml:"lang,attr"`
	Description string  `xml:"AdressDescription,omitempty"`
	Street      string  `xml:"Street,omitempty"`
	City        string  `xml:"CityName,omitempty"`
	PostalCode  string  `xml:"PostalCode,omitempty"`
	Country     Country `xml:"Country"`
}

type Country struct {
	CodeList string `xml:"codeList,attr"`
	Value    string `xml:",chardata"`
}

type RffSection struct {
	References []Reference `xml:"Reference"`
}

// Reference is a coded cross-reference (I-81 order, I-82 contract, I-83
// delivery note, I-815 trade register, I-816 capital, I-88 TTN).
type Reference struct {
	RefID string `xml:"refID,attr"`
	Value string `xml:",chardata"`
}

type CtaSection struct {
	Contact        Contact         `xml:"Contact"`
	Communications []Communication `xml:"Communication,omitempty"`
}

type Contact struct {
	FunctionCode string `xml:"functionCode,attr"`
	Name         string `xml:"ContactName"`
}

type Communication struct {
	MeansType string `xml:"ComMeansType"`
	Address   string `xml:"ComAdress"`
}

type PytSection struct {
	Details []PytSectionDetails `xml:"PytSectionDetails"`
}

type PytSectionDetails struct {
	Pyt Pyt     `xml:"Pyt"`
	Fii *PytFii `xml:"PytFii,omitempty"`
}

type Pyt struct {
	TypeCode    string `xml:"PaymentTearmsTypeCode"`
	Description string `xml:"PaymentTearmsDescription"`
}

// PytFii carries the payment-means specific detail group. Exactly one of the
// optional children is populated, matching the selected payment means.
type PytFii struct {
	FunctionCode   string                 `xml:"functionCode,attr"`
	AccountHolder  *AccountHolder         `xml:"AccountHolder,omitempty"`
	Institution    *Institution           `xml:"InstitutionIdentification,omitempty"`
	CheckReference string                 `xml:"CheckReference,omitempty"`
	Card           *CardIdentification    `xml:"CardIdentification,omitempty"`
	EPayment       *EPaymentReference     `xml:"EPaymentReference,omitempty"`
	OtherPayment   *OtherPaymentReference `xml:"OtherPaymentReference,omitempty"`
}

type AccountHolder struct {
	AccountNumber   string `xml:"AccountNumber"`
	OwnerIdentifier string `xml:"OwnerIdentifier"`
}

type Institution struct {
	NameCode         string `xml:"nameCode,attr"`
	InstitutionID    string `xml:"InstitutionIdentifier,omitempty"`
	BranchIdentifier string `xml:"BranchIdentifier,omitempty"`
	Name             string `xml:"InstitutionName"`
}

type CardIdentification struct {
	CardType          string `xml:"CardType"`
	CardNumber        string `xml:"CardNumber"`
	AuthorizationCode string `xml:"AuthorizationCode"`
}

type EPaymentReference struct {
	Gateway       string `xml:"Gateway"`
	TransactionID string `xml:"TransactionId"`
}

type OtherPaymentReference struct {
	Description string `xml:"Description"`
	Reference   string `xml:"Reference"`
}

type LinSection struct {
	Lines []Lin `xml:"Lin"`
}

type Lin struct {
	ItemIdentifier int      `xml:"ItemIdentifier"`
	Imd            LinImd   `xml:"LinImd"`
	Qty            LinQty   `xml:"LinQty"`
	Taxes          []LinTax `xml:"LinTax"`
	Allowances     []Alc    `xml:"LinAlc>Alc,omitempty"`
	Moa            LinMoa   `xml:"LinMoa"`
}

type LinImd struct {
	Lang        string `xml:"lang,attr"`
	ItemCode    string `xml:"ItemCode,omitempty"`
	Description string `xml:"ItemDescription"`
}

type LinQty struct {
	Quantity Quantity `xml:"Quantity"`
}

type Quantity struct {
	Unit  string `xml:"measurementUnit,attr"`
	Value string `xml:",chardata"`
}

type LinTax struct {
	TypeName           TaxTypeName `xml:"TaxTypeName"`
	Details            TaxDetails  `xml:"TaxDetails"`
	ExemptionReference string      `xml:"TaxExemptionReference,omitempty"`
}

type TaxTypeName struct {
	Code  string `xml:"code,attr"`
	Label string `xml:",chardata"`
}

type TaxDetails struct {
	Rate string `xml:"TaxRate"`
}

type LinMoa struct {
	Details []MoaEntry `xml:"MoaDetails"`
}

type MoaEntry struct {
	Moa Moa `xml:"Moa"`
}

type Moa struct {
	AmountTypeCode   string             `xml:"amountTypeCode,attr"`
	CurrencyCodeList string             `xml:"currencyCodeList,attr"`
	Amount           Amount             `xml:"Amount"`
	Description      *AmountDescription `xml:"AmountDescription,omitempty"`
}

type Amount struct {
	Currency string `xml:"currencyIdentifier,attr"`
	Value    string `xml:",chardata"`
}

type AmountDescription struct {
	Lang  string `xml:"lang,attr"`
	Value string `xml:",chardata"`
}

type InvoiceAlc struct {
	Entries []Alc `xml:"Alc"`
}

type Alc struct {
	Details        AlcDetails        `xml:"AlcDetails"`
	MonetaryAmount AlcMonetaryAmount `xml:"AlcMonetaryAmount"`
}

type AlcDetails struct {
	Code       string `xml:"AllowanceChargeCode"`
	ReasonCode string `xml:"AllowanceChargeReasonCode"`
}

type AlcMonetaryAmount struct {
	CurrencyCodeList string `xml:"currencyCodeList,attr"`
	Moa              Moa    `xml:"Moa"`
}

type InvoiceMoa struct {
	Details []MoaEntry `xml:"AmountDetails"`
}

type InvoiceTax struct {
	Details []InvoiceTaxDetails `xml:"InvoiceTaxDetails"`
}

type InvoiceTaxDetails struct {
	Tax     Tax        `xml:"Tax"`
	Amounts []MoaEntry `xml:"AmountDetails"`
}

type Tax struct {
	TypeName           TaxTypeName `xml:"TaxTypeName"`
	Details            TaxDetails  `xml:"TaxDetails"`
	ExemptionReference string      `xml:"TaxExemptionReference,omitempty"`
}

type RefTtnVal struct {
	ReferenceTTN Reference `xml:"ReferenceTTN"`
	ReferenceCEV string    `xml:"ReferenceCEV,omitempty"`
}

// Signature is the detached-signature placeholder required at the end of
// every TEIF document; signing itself happens downstream.
type Signature struct {
	Xmlns string `xml:"xmlns:ds,attr"`
	ID    string `xml:"Id,attr"`
}
