package service

import (
	"encoding/json"
	"strings"

	"ribscan/internal/banking"
	"ribscan/internal/cinid"
)

// SlipExtraction is the candidate record for a bank slip. Either the
// fields are populated, or FailureReason says why the model produced
// nothing usable. RIB is already normalized by the two-tier cleaner.
type SlipExtraction struct {
	RIB           string
	FirstName     string
	LastName      string
	BankName      string
	FailureReason string
}

func (e *SlipExtraction) Failed() bool { return e.FailureReason != "" }

// CardExtraction is the candidate record for an identity card. Dates stay
// unparsed strings.
type CardExtraction struct {
	Number        string
	FirstName     string
	LastName      string
	BirthDate     string
	ValidityDate  string
	Address       string
	FailureReason string
}

func (e *CardExtraction) Failed() bool { return e.FailureReason != "" }

// parseSlipPayload turns the raw model output into a SlipExtraction,
// repairing the usual deviations (code fences, prose around the JSON).
func parseSlipPayload(content string) *SlipExtraction {
	var payload struct {
		RIB       *string `json:"rib"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		BankName  *string `json:"bankName"`
	}
	if reason := unmarshalPayload(content, &payload); reason != "" {
		return &SlipExtraction{FailureReason: reason}
	}

	return &SlipExtraction{
		RIB:       banking.CleanRIB(deref(payload.RIB)),
		FirstName: strings.ToUpper(deref(payload.FirstName)),
		LastName:  strings.ToUpper(deref(payload.LastName)),
		BankName:  strings.TrimSpace(deref(payload.BankName)),
	}
}

func parseCardPayload(content string) *CardExtraction {
	var payload struct {
		Number       *string `json:"cin_number"`
		FirstName    *string `json:"first_name"`
		LastName     *string `json:"last_name"`
		BirthDate    *string `json:"birth_date"`
		ValidityDate *string `json:"validity_date"`
		Address      *string `json:"address"`
	}
	if reason := unmarshalPayload(content, &payload); reason != "" {
		return &CardExtraction{FailureReason: reason}
	}

	return &CardExtraction{
		Number:       cinid.CleanNumber(deref(payload.Number)),
		FirstName:    strings.ToUpper(deref(payload.FirstName)),
		LastName:     strings.ToUpper(deref(payload.LastName)),
		BirthDate:    deref(payload.BirthDate),
		ValidityDate: deref(payload.ValidityDate),
		Address:      strings.TrimSpace(deref(payload.Address)),
	}
}

func unmarshalPayload(content string, dst any) (failureReason string) {
	jsonStr := extractJSONObject(stripCodeFences(content))
	if jsonStr == "" {
		return "no JSON object in model output"
	}
	if err := json.Unmarshal([]byte(jsonStr), dst); err != nil {
		return "malformed JSON in model output: " + err.Error()
	}
	return ""
}

// stripCodeFences removes a surrounding markdown code block, which the
// model adds despite being told not to.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// extractJSONObject returns the outermost {...} window, dropping any
// prose the model wrapped around it.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return content[start : end+1]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// truncateText bounds a string to max bytes, dropping any rune cut in
// half at the boundary.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.ToValidUTF8(s[:max], "")
}
