package dto

import "ribscan/internal/models"

type CreatePeriodRequest struct {
	Name string `json:"name" validate:"required"`
}

type PeriodResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsLocked  bool   `json:"is_locked"`
	CreatedAt string `json:"created_at"`
}

func NewPeriodResponse(p *models.Period) PeriodResponse {
	return PeriodResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		IsLocked:  p.IsLocked,
		CreatedAt: p.CreatedAt.Format(timeLayout),
	}
}

func NewPeriodListResponse(periods []*models.Period) []PeriodResponse {
	out := make([]PeriodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, NewPeriodResponse(p))
	}
	return out
}

type BankCountResponse struct {
	Bank  string `json:"bank"`
	Count int    `json:"count"`
}

type PeriodStatsResponse struct {
	TotalFiles       int                 `json:"total_files"`
	ValidRIBs        int                 `json:"valid_ribs"`
	Discrepancies    int                 `json:"discrepancies"`
	BankDistribution []BankCountResponse `json:"bank_distribution"`
}
