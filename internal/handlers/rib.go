package handlers

import (
	"net/http"

	"github.com/teiftn/facture/httpx"
	"github.com/teiftn/facture/rib"
)

type ribRequest struct {
	RIB string `json:"rib"`
}

// ValidateRIB checks a 20-digit Tunisian bank account number (MOD-97).
// Public endpoint: front-ends call it on keystroke while composing documents.
func ValidateRIB(w http.ResponseWriter, r *http.Request) {
	var req ribRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, rib.Validate(req.RIB))
}
