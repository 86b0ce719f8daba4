package dto

import "ribscan/internal/models"

type CreateBankRequest struct {
	Code string `json:"code" validate:"required,len=3,numeric"`
	Name string `json:"name" validate:"required"`
}

type BankResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func NewBankResponse(b *models.Bank) BankResponse {
	return BankResponse{Code: b.Code, Name: b.Name}
}

func NewBankListResponse(banks []*models.Bank) []BankResponse {
	out := make([]BankResponse, 0, len(banks))
	for _, b := range banks {
		out = append(out, NewBankResponse(b))
	}
	return out
}
