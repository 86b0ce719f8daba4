package service

import (
	"bytes"
	"context"
	"image/jpeg"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// minPDFTextLen is the trimmed text-layer length under which a PDF is
// treated as a scan and sent down the raster+OCR path.
const minPDFTextLen = 50

// TextractService turns document bytes into raw text. PDFs get their text
// layer read first; scanned PDFs fall back to rasterizing the first page
// and recognizing that. Plain images go straight to Tesseract.
//
// Recognition failures are never fatal: every error path degrades to an
// empty string and is logged for later retry.
type TextractService struct {
	languages []string
	logger    *zap.Logger
}

func NewTextractService(languages []string, logger *zap.Logger) *TextractService {
	return &TextractService{
		languages: languages,
		logger:    logger,
	}
}

func (s *TextractService) ExtractText(ctx context.Context, content []byte, contentType string) string {
	if contentType == "application/pdf" {
		text := s.pdfText(content)
		if len(strings.TrimSpace(text)) >= minPDFTextLen {
			return strings.TrimSpace(text)
		}

		// No usable text layer: scanned PDF. Only the first page is
		// rasterized to keep recognition cost bounded.
		raster := s.rasterizeFirstPage(content)
		if raster == nil {
			return strings.TrimSpace(text)
		}
		return s.imageText(raster)
	}

	return s.imageText(content)
}

func (s *TextractService) pdfText(content []byte) string {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		s.logger.Warn("Failed to open PDF", zap.Error(err))
		return ""
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}
		if pageText != "" {
			b.WriteString(pageText)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *TextractService) rasterizeFirstPage(content []byte) []byte {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		s.logger.Warn("Failed to open PDF for rasterization", zap.Error(err))
		return nil
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil
	}

	img, err := doc.Image(0)
	if err != nil {
		s.logger.Warn("Failed to rasterize first page", zap.Error(err))
		return nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		s.logger.Warn("Failed to encode rasterized page", zap.Error(err))
		return nil
	}
	return buf.Bytes()
}

func (s *TextractService) imageText(content []byte) string {
	client := gosseract.NewClient()
	defer client.Close()

	if len(s.languages) > 0 {
		if err := client.SetLanguage(s.languages...); err != nil {
			s.logger.Warn("Failed to set OCR languages", zap.Strings("languages", s.languages), zap.Error(err))
		}
	}
	if err := client.SetImageFromBytes(content); err != nil {
		s.logger.Warn("Failed to load image for OCR", zap.Error(err))
		return ""
	}

	text, err := client.Text()
	if err != nil {
		s.logger.Warn("OCR recognition failed", zap.Error(err))
		return ""
	}

	s.logger.Info("OCR extraction completed", zap.Int("text_length", len(text)))
	return strings.TrimSpace(text)
}
