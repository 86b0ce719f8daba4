package dto

import "ribscan/internal/models"

const timeLayout = "2006-01-02T15:04:05Z07:00"

type UpdateSlipRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RIB       string `json:"rib" validate:"required"`
}

type SlipResponse struct {
	ID                  string `json:"id"`
	PeriodID            string `json:"period_id"`
	FileName            string `json:"file_name"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	RIB                 string `json:"rib"`
	BankName            string `json:"bank_name"`
	Status              string `json:"status"`
	IsManuallyCorrected bool   `json:"is_manually_corrected"`
	CreatedAt           string `json:"created_at"`
}

func NewSlipResponse(s *models.RIBSlip) SlipResponse {
	return SlipResponse{
		ID:                  s.ID.String(),
		PeriodID:            s.PeriodID.String(),
		FileName:            s.FileName,
		FirstName:           s.FirstName,
		LastName:            s.LastName,
		RIB:                 s.RIB,
		BankName:            s.AIBankName,
		Status:              string(s.Status),
		IsManuallyCorrected: s.IsManuallyCorrected,
		CreatedAt:           s.CreatedAt.Format(timeLayout),
	}
}

func NewSlipListResponse(slips []*models.RIBSlip) []SlipResponse {
	out := make([]SlipResponse, 0, len(slips))
	for _, s := range slips {
		out = append(out, NewSlipResponse(s))
	}
	return out
}

type UploadResponse struct {
	Uploaded int            `json:"uploaded"`
	Records  []SlipResponse `json:"records"`
}

type RetryResponse struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}
