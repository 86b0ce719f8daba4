package dto

import "ribscan/internal/models"

type UpdateCardRequest struct {
	CINNumber    string `json:"cin_number" validate:"required"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	BirthDate    string `json:"birth_date"`
	ValidityDate string `json:"validity_date"`
	Address      string `json:"address"`
}

type CardResponse struct {
	ID                  string `json:"id"`
	PeriodID            string `json:"period_id"`
	FileName            string `json:"file_name"`
	CINNumber           string `json:"cin_number"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	BirthDate           string `json:"birth_date"`
	ValidityDate        string `json:"validity_date"`
	Address             string `json:"address"`
	Status              string `json:"status"`
	IsManuallyCorrected bool   `json:"is_manually_corrected"`
	CreatedAt           string `json:"created_at"`
}

func NewCardResponse(c *models.CINCard) CardResponse {
	return CardResponse{
		ID:                  c.ID.String(),
		PeriodID:            c.PeriodID.String(),
		FileName:            c.FileName,
		CINNumber:           c.CINNumber,
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		BirthDate:           c.BirthDate,
		ValidityDate:        c.ValidityDate,
		Address:             c.Address,
		Status:              string(c.Status),
		IsManuallyCorrected: c.IsManuallyCorrected,
		CreatedAt:           c.CreatedAt.Format(timeLayout),
	}
}

func NewCardListResponse(cards []*models.CINCard) []CardResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, NewCardResponse(c))
	}
	return out
}

type CardUploadResponse struct {
	Uploaded int            `json:"uploaded"`
	Records  []CardResponse `json:"records"`
}
