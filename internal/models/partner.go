package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/teiftn/facture/teif"
)

// Partner represents an invoicing party: the supplier or a buyer.
// The Identifier/IDType pair is the fiscal identification used in the
// TEIF partner section (matricule fiscal, CIN, passport or foreign VAT id).
type Partner struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// UserID is the owner of this partner record (multi-tenant isolation)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Identifier string `gorm:"size:35;not null" json:"identifier"`
	IDType     string `gorm:"size:5;not null;default:'I-01'" json:"id_type"`
	Name       string `gorm:"size:255;not null" json:"name"`

	// AddressDescription is the free-text line emitted as AdressDescription,
	// alongside the structured street/city/postal fields.
	AddressDescription string `gorm:"size:500" json:"address_description,omitempty"`

	Street     string `gorm:"size:255" json:"street,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	Country    string `gorm:"size:2;default:'TN'" json:"country"`

	// RC and Capital only make sense for business identifier types.
	RC      string `gorm:"size:50" json:"rc,omitempty"`
	Capital string `gorm:"size:50" json:"capital,omitempty"`

	Phone string `gorm:"size:50" json:"phone,omitempty"`
	Email string `gorm:"size:255" json:"email,omitempty"`

	// IsSupplier marks the partner used as MessageSender on generated documents.
	IsSupplier bool `gorm:"default:false" json:"is_supplier"`
}

// ToTEIF converts the stored partner to its document representation.
func (p *Partner) ToTEIF() teif.Partner {
	return teif.Partner{
		IDType:             teif.IDType(p.IDType),
		IDValue:            p.Identifier,
		Name:               p.Name,
		AddressDescription: p.AddressDescription,
		Street:             p.Street,
		City:               p.City,
		PostalCode:         p.PostalCode,
		Country:            p.Country,
		RC:                 p.RC,
		Capital:            p.Capital,
		Phone:              p.Phone,
		Email:              p.Email,
	}
}
