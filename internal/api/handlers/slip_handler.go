package handlers

import (
	"io"
	"mime/multipart"

	"ribscan/internal/dto"
	"ribscan/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SlipHandler struct {
	slipService *service.SlipService
	logger      *zap.Logger
}

func NewSlipHandler(slipService *service.SlipService, logger *zap.Logger) *SlipHandler {
	return &SlipHandler{
		slipService: slipService,
		logger:      logger,
	}
}

// readUploads loads every file of the multipart "files" field into memory.
func readUploads(form *multipart.Form) ([]service.UploadedFile, error) {
	headers := form.File["files"]
	files := make([]service.UploadedFile, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, service.UploadedFile{Name: header.Filename, Content: content})
	}
	return files, nil
}

func (h *SlipHandler) Upload(c *fiber.Ctx) error {
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

	slips, err := h.slipService.UploadSlips(c.Context(), periodID, files)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to upload slips", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload slips",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{
		Uploaded: len(slips),
		Records:  dto.NewSlipListResponse(slips),
	})
}

func (h *SlipHandler) List(c *fiber.Ctx) error {
	periodID, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	slips, err := h.slipService.ListSlips(c.Context(), periodID)
	if err != nil {
		h.logger.Error("Failed to list slips", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list slips",
		})
	}
	return c.JSON(dto.NewSlipListResponse(slips))
}

func (h *SlipHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "slipId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid slip ID",
		})
	}

	var req dto.UpdateSlipRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	slip, err := h.slipService.UpdateSlip(c.Context(), id, service.SlipEdit{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RIB:       req.RIB,
	})
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to update slip", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update slip",
		})
	}
	return c.JSON(dto.NewSlipResponse(slip))
}

func (h *SlipHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "slipId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid slip ID",
		})
	}

	if err := h.slipService.DeleteSlip(c.Context(), id); err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to delete slip", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete slip",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SlipHandler) DeleteAll(c *fiber.Ctx) error {
	periodID, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	deleted, err := h.slipService.DeleteAllSlips(c.Context(), periodID)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to delete slips", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete slips",
		})
	}
	return c.JSON(dto.BulkDeleteResponse{Deleted: deleted})
}

func (h *SlipHandler) Retry(c *fiber.Ctx) error {
	id, err := parseID(c, "slipId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid slip ID",
		})
	}

	slip, err := h.slipService.RetrySlip(c.Context(), id)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Warn("Slip retry failed", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(dto.NewSlipResponse(slip))
}

func (h *SlipHandler) RetryAll(c *fiber.Ctx) error {
	periodID, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period ID",
		})
	}

	processed, failed, err := h.slipService.RetryPeriod(c.Context(), periodID)
	if err != nil {
		if resp, ok := repoError(c, err); ok {
			return resp
		}
		h.logger.Error("Failed to retry period slips", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retry period",
		})
	}
	return c.JSON(dto.RetryResponse{Processed: processed, Failed: failed})
}
