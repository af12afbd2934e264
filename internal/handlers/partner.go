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
	"github.com/teiftn/facture/teif"
	"github.com/teiftn/facture/validation"
)

type PartnerHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPartnerHandler(db *gorm.DB, log *zap.Logger) *PartnerHandler {
	return &PartnerHandler{db: db, log: log}
}

var partnerIDTypes = []string{
	string(teif.IDTypeTaxID), string(teif.IDTypeNationalID),
	string(teif.IDTypePassport), string(teif.IDTypeForeignVAT),
}

func (h *PartnerHandler) validate(p *models.Partner) validation.Violations {
	v := make(validation.Violations)
	validation.Required("identifier", p.Identifier, v)
	validation.Required("name", p.Name, v)
	validation.OneOf("id_type", p.IDType, partnerIDTypes, v)
	if !teif.IDType(p.IDType).IsBusiness() {
		// RC and capital are business-only attributes.
		if p.RC != "" {
			v["rc"] = "business_partners_only"
		}
		if p.Capital != "" {
			v["capital"] = "business_partners_only"
		}
	}
	return v
}

func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit := 50
	offset := (page - 1) * limit

	q := h.db.Where("user_id = ?", userID)
	if search := r.URL.Query().Get("q"); search != "" {
		q = q.Where("name LIKE ? OR identifier LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	q.Model(&models.Partner{}).Count(&total)

	var partners []models.Partner
	if err := q.Order("name").Limit(limit).Offset(offset).Find(&partners).Error; err != nil {
		h.log.Error("list partners", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"items": partners,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var p models.Partner
	if err := httpx.Decode(r, &p); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	p.ID = 0
	p.UserID = userID
	if p.IDType == "" {
		p.IDType = string(teif.IDTypeTaxID)
	}
	if p.Country == "" {
		p.Country = "TN"
	}

	if v := h.validate(&p); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	if err := h.db.Create(&p).Error; err != nil {
		h.log.Error("create partner", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *PartnerHandler) get(r *http.Request) (*models.Partner, error) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var p models.Partner
	if err := h.db.Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *PartnerHandler) View(w http.ResponseWriter, r *http.Request) {
	p, err := h.get(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "partner_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := h.get(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "partner_not_found", nil)
		return
	}

	var in models.Partner
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in.ID = p.ID
	in.UserID = p.UserID
	in.CreatedAt = p.CreatedAt
	if in.IDType == "" {
		in.IDType = p.IDType
	}
	if in.Country == "" {
		in.Country = p.Country
	}

	if v := h.validate(&in); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	if err := h.db.Save(&in).Error; err != nil {
		h.log.Error("update partner", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, in)
}

func (h *PartnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := h.get(r)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "partner_not_found", nil)
		return
	}

	var count int64
	h.db.Model(&models.Invoice{}).
		Where("supplier_id = ? OR buyer_id = ?", p.ID, p.ID).
		Count(&count)
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "partner_in_use", nil)
		return
	}

	if err := h.db.Delete(p).Error; err != nil {
		h.log.Error("delete partner", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
