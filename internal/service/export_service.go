package service

import (
	"context"
	"fmt"
	"strings"

	"ribscan/internal/models"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	slipSheet = "Données RIB"
	cardSheet = "Données CIN"
)

// ExportService renders a period's validated records as an XLSX workbook
// for the payroll handoff.
type ExportService struct {
	periods PeriodStore
	slips   SlipStore
	cards   CardStore
	logger  *zap.Logger
}

func NewExportService(periods PeriodStore, slips SlipStore, cards CardStore, logger *zap.Logger) *ExportService {
	return &ExportService{periods: periods, slips: slips, cards: cards, logger: logger}
}

// Export is the generated workbook plus the filename to serve it under.
type Export struct {
	FileName string
	Content  []byte
}

func (s *ExportService) ExportPeriod(ctx context.Context, periodID uuid.UUID) (*Export, error) {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}

	slips, err := s.slips.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	cards, err := s.cards.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", slipSheet)
	if err := s.writeSlipSheet(f, slips); err != nil {
		return nil, err
	}

	if len(cards) > 0 {
		if _, err := f.NewSheet(cardSheet); err != nil {
			return nil, err
		}
		if err := s.writeCardSheet(f, cards); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return &Export{
		FileName: fmt.Sprintf("Export_%s.xlsx", strings.ReplaceAll(period.Name, " ", "_")),
		Content:  buf.Bytes(),
	}, nil
}

func (s *ExportService) writeSlipSheet(f *excelize.File, slips []*models.RIBSlip) error {
	headers := []string{"Statut", "Nom", "Prénom", "RIB", "Banque", "Fichier Source", "Date d'ajout"}
	if err := writeHeaderRow(f, slipSheet, headers); err != nil {
		return err
	}

	for i, slip := range slips {
		row := i + 2
		cells := []interface{}{
			string(slip.Status),
			slip.LastName,
			slip.FirstName,
			slip.RIB,
			slip.AIBankName,
			slip.FileName,
			slip.CreatedAt.Format("02/01/2006 15:04"),
		}
		if err := writeRow(f, slipSheet, row, cells); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) writeCardSheet(f *excelize.File, cards []*models.CINCard) error {
	headers := []string{"Statut", "N° CIN", "Nom", "Prénom", "Date Naissance", "Date Validité", "Adresse", "Fichier Source", "Date d'ajout"}
	if err := writeHeaderRow(f, cardSheet, headers); err != nil {
		return err
	}

	for i, card := range cards {
		row := i + 2
		cells := []interface{}{
			string(card.Status),
			card.CINNumber,
			card.LastName,
			card.FirstName,
			card.BirthDate,
			card.ValidityDate,
			card.Address,
			card.FileName,
			card.CreatedAt.Format("02/01/2006 15:04"),
		}
		if err := writeRow(f, cardSheet, row, cells); err != nil {
			return err
		}
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	for i, value := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}
