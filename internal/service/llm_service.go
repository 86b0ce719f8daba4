package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ribscan/internal/banking"
	"ribscan/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

// maxModelInput caps the raw text sent to the extraction model. The cap
// bounds cost and latency per document and must stay in sync with the
// storage cap on raw text.
const maxModelInput = 5000

const systemInstruction = `Tu es un agent de saisie expert pour un service RH marocain.
On te fournit le texte OCR brut de documents scannés (attestations de RIB et cartes d'identité nationales CIN).
Ta seule tâche: extraire les champs demandés et répondre en JSON strictement valide, sans commentaire, sans balise markdown.
Règles:
- N'invente jamais une valeur absente du texte. Utilise null.
- RIB: 24 chiffres. Corrige les confusions OCR courantes (O->0, B->8, S->5).
- Noms: gère les préfixes marocains (AIT, BEN, EL) et mets en MAJUSCULES.
- Dates: format JJ/MM/AAAA.`

// LLMService is the structured-extraction adapter over GigaChat. The
// model is an untrusted oracle: whatever happens on the wire or in its
// output, the adapter returns a result carrying either the parsed fields
// or a failure reason, never an error.
type LLMService struct {
	client  *gigago.Client
	model   *gigago.GenerativeModel
	timeout time.Duration
	logger  *zap.Logger
}

func NewLLMService(cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = systemInstruction
	model.Temperature = 0.1

	return &LLMService{
		client:  client,
		model:   model,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}, nil
}

// ExtractSlipFields asks the model for the bank-slip fields. The current
// bank directory is passed as in-context hints only; validation happens
// downstream against the directory itself.
func (s *LLMService) ExtractSlipFields(ctx context.Context, rawText string, banks banking.Directory) *SlipExtraction {
	rawText = truncateText(rawText, maxModelInput)
	if strings.TrimSpace(rawText) == "" {
		return &SlipExtraction{FailureReason: "empty source text"}
	}

	content, reason := s.generate(ctx, buildSlipPrompt(rawText, banks))
	if reason != "" {
		return &SlipExtraction{FailureReason: reason}
	}
	return parseSlipPayload(content)
}

// ExtractCardFields asks the model for the identity-card fields.
func (s *LLMService) ExtractCardFields(ctx context.Context, rawText string) *CardExtraction {
	rawText = truncateText(rawText, maxModelInput)
	if strings.TrimSpace(rawText) == "" {
		return &CardExtraction{FailureReason: "empty source text"}
	}

	content, reason := s.generate(ctx, buildCardPrompt(rawText))
	if reason != "" {
		return &CardExtraction{FailureReason: reason}
	}
	return parseCardPayload(content)
}

// generate runs one bounded model call and returns the raw content, or a
// failure reason when anything went wrong.
func (s *LLMService) generate(ctx context.Context, prompt string) (content, failureReason string) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.model.Generate(ctx, []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	})
	if err != nil {
		s.logger.Warn("Structured extraction call failed", zap.Error(err))
		return "", fmt.Sprintf("model call failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		s.logger.Warn("Structured extraction returned no choices")
		return "", "no response from model"
	}
	return resp.Choices[0].Message.Content, ""
}

func buildSlipPrompt(rawText string, banks banking.Directory) string {
	var hints strings.Builder
	for _, code := range banks.Codes() {
		fmt.Fprintf(&hints, "- %s: %s\n", code, banks[code])
	}

	return fmt.Sprintf(`Analyse ce texte OCR d'une attestation de RIB bancaire marocaine.
Extrais:
1. Le nom du titulaire du compte.
2. Le RIB (24 chiffres).
3. Le nom de la banque (en-têtes, logos, mentions comme 'Banque Populaire', 'CIH', 'Crédit Agricole').

Banques enregistrées (code RIB: nom):
%s
Réponds uniquement avec ce JSON:
{
  "rib": "string_or_null",
  "firstName": "string_or_null",
  "lastName": "string_or_null",
  "bankName": "string_or_null"
}

TEXTE OCR:
%s`, hints.String(), rawText)
}

func buildCardPrompt(rawText string) string {
	return fmt.Sprintf(`Analyse ce texte OCR d'une carte d'identité nationale marocaine (CIN).
Extrais:
1. Numéro de CIN: 1-2 lettres suivies de chiffres (ex: BJ42291, A40020).
2. Prénom et Nom: en MAJUSCULES.
3. Date de naissance: format JJ/MM/AAAA.
4. Date de validité ("Valable jusqu'au"): format JJ/MM/AAAA.
5. Adresse: souvent au verso de la carte.

Ignore les filigranes et le texte d'arrière-plan.

Réponds uniquement avec ce JSON:
{
  "cin_number": "string_or_null",
  "first_name": "string_or_null",
  "last_name": "string_or_null",
  "birth_date": "string_or_null",
  "validity_date": "string_or_null",
  "address": "string_or_null"
}

TEXTE OCR:
%s`, rawText)
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
