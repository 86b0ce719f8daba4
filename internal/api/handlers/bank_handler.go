package handlers

import (
	"errors"
	"regexp"
	"strings"

	"ribscan/internal/dto"
	"ribscan/internal/models"
	"ribscan/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var bankCodeRe = regexp.MustCompile(`^\d{3}$`)

type BankHandler struct {
	bankRepo *repository.BankRepository
	logger   *zap.Logger
}

func NewBankHandler(bankRepo *repository.BankRepository, logger *zap.Logger) *BankHandler {
	return &BankHandler{
		bankRepo: bankRepo,
		logger:   logger,
	}
}

func (h *BankHandler) List(c *fiber.Ctx) error {
	banks, err := h.bankRepo.List(c.Context())
	if err != nil {
		h.logger.Error("Failed to list banks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list banks",
		})
	}
	return c.JSON(dto.NewBankListResponse(banks))
}

func (h *BankHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateBankRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if !bankCodeRe.MatchString(code) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Bank code must be 3 digits",
		})
	}
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Bank name is required",
		})
	}

	bank := &models.Bank{Code: code, Name: name}
	if err := h.bankRepo.Create(c.Context(), bank); err != nil {
		if errors.Is(err, repository.ErrBankExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Bank code already registered",
			})
		}
		h.logger.Error("Failed to create bank", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create bank",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewBankResponse(bank))
}

func (h *BankHandler) Delete(c *fiber.Ctx) error {
	code := c.Params("code")
	if !bankCodeRe.MatchString(code) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Bank code must be 3 digits",
		})
	}

	if err := h.bankRepo.Delete(c.Context(), code); err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to delete bank", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete bank",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
