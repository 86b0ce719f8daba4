package handlers

import (
	"errors"
	"fmt"

	"ribscan/internal/dto"
	"ribscan/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PeriodHandler struct {
	periodService *service.PeriodService
	exportService *service.ExportService
	logger        *zap.Logger
}

func NewPeriodHandler(periodService *service.PeriodService, exportService *service.ExportService, logger *zap.Logger) *PeriodHandler {
	return &PeriodHandler{
		periodService: periodService,
		exportService: exportService,
		logger:        logger,
	}
}

func (h *PeriodHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePeriodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	period, err := h.periodService.Create(c.Context(), req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPeriodName) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Period name is required",
			})
		}
		h.logger.Error("Failed to create period", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create period",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewPeriodResponse(period))
}

func (h *PeriodHandler) List(c *fiber.Ctx) error {
	periods, err := h.periodService.List(c.Context())
	if err != nil {
		h.logger.Error("Failed to list periods", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list periods",
		})
	}
	return c.JSON(dto.NewPeriodListResponse(periods))
}

func (h *PeriodHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	period, err := h.periodService.Get(c.Context(), id)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to get period", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get period",
		})
	}
	return c.JSON(dto.NewPeriodResponse(period))
}

func (h *PeriodHandler) ToggleLock(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	period, err := h.periodService.ToggleLock(c.Context(), id)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to toggle period lock", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to toggle period lock",
		})
	}
	return c.JSON(dto.NewPeriodResponse(period))
}

func (h *PeriodHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	if err := h.periodService.Delete(c.Context(), id); err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to delete period", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete period",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PeriodHandler) Stats(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	stats, err := h.periodService.Stats(c.Context(), id)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to compute period stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute period stats",
		})
	}
	resp := dto.PeriodStatsResponse{
		TotalFiles:       stats.TotalFiles,
		ValidRIBs:        stats.ValidRIBs,
		Discrepancies:    stats.Discrepancies,
		BankDistribution: make([]dto.BankCountResponse, 0, len(stats.BankDistribution)),
	}
	for _, bc := range stats.BankDistribution {
		resp.BankDistribution = append(resp.BankDistribution, dto.BankCountResponse{Bank: bc.Bank, Count: bc.Count})
	}
	return c.JSON(resp)
}

func (h *PeriodHandler) Export(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	export, err := h.exportService.ExportPeriod(c.Context(), id)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to export period", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export period",
		})
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.FileName))
	return c.Send(export.Content)
}
