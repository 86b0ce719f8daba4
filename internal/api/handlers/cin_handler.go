package handlers

import (
	"ribscan/internal/dto"
	"ribscan/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CardHandler struct {
	cardService *service.CardService
	logger      *zap.Logger
}

func NewCardHandler(cardService *service.CardService, logger *zap.Logger) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		logger:      logger,
	}
}

func (h *CardHandler) Upload(c *fiber.Ctx) error {
	periodID, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Multipart form is required",
		})
	}

	files, err := readUploads(form)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded files",
		})
	}
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one file is required",
		})
	}

	cards, err := h.cardService.UploadCards(c.Context(), periodID, files)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to upload cards", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload cards",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CardUploadResponse{
		Uploaded: len(cards),
		Records:  dto.NewCardListResponse(cards),
	})
}

func (h *CardHandler) List(c *fiber.Ctx) error {
	periodID, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	cards, err := h.cardService.ListCards(c.Context(), periodID)
	if err != nil {
		h.logger.Error("Failed to list cards", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list cards",
		})
	}
	return c.JSON(dto.NewCardListResponse(cards))
}

func (h *CardHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "cardId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	var req dto.UpdateCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	card, err := h.cardService.UpdateCard(c.Context(), id, service.CardEdit{
		CINNumber:    req.CINNumber,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BirthDate:    req.BirthDate,
		ValidityDate: req.ValidityDate,
		Address:      req.Address,
	})
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to update card", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update card",
		})
	}
	return c.JSON(dto.NewCardResponse(card))
}

func (h *CardHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "cardId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	if err := h.cardService.DeleteCard(c.Context(), id); err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to delete card", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete card",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CardHandler) DeleteAll(c *fiber.Ctx) error {
	periodID, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	deleted, err := h.cardService.DeleteAllCards(c.Context(), periodID)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to delete cards", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete cards",
		})
	}
	return c.JSON(dto.BulkDeleteResponse{Deleted: deleted})
}

func (h *CardHandler) Retry(c *fiber.Ctx) error {
	id, err := parseID(c, "cardId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	card, err := h.cardService.RetryCard(c.Context(), id)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Warn("Card retry failed", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(dto.NewCardResponse(card))
}

func (h *CardHandler) RetryAll(c *fiber.Ctx) error {
	periodID, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	processed, failed, err := h.cardService.RetryPeriod(c.Context(), periodID)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to retry period cards", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retry period",
		})
	}
	return c.JSON(dto.RetryResponse{Processed: processed, Failed: failed})
}
