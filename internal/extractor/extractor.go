// Package extractor delegates PDF statements to a large-language-model
// collaborator and returns the structured payload the parser package
// understands. The model is an untrusted oracle: its output is cleaned up
// and then validated row by row exactly like any manually uploaded input.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the model used for statement extraction.
const DefaultModelName = "gemini-2.5-flash"

// Extractor turns PDF bytes into a structured statement payload.
// The interface exists so the import pipeline can be tested without a live
// model behind it.
type Extractor interface {
	ExtractStatement(ctx context.Context, pdfBytes []byte) ([]byte, error)
}

// GeminiExtractor is the concrete Extractor backed by Gemini.
type GeminiExtractor struct {
	model string
}

// NewGeminiExtractor creates an extractor using the default model.
func NewGeminiExtractor() *GeminiExtractor {
	return &GeminiExtractor{model: DefaultModelName}
}

const extractionPrompt = "You are a financial statement parser for US bank statements of a " +
	"homeowners association.\n\n" +
	"Task:\n" +
	"- Parse ALL transactions in the attached statement.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON object with these fields:\n" +
	"  - \"transactions\": array of objects\n" +
	"  - \"beginning_balance\": number or null\n" +
	"  - \"ending_balance\": number or null\n" +
	"  - \"statement_period\": string \"YYYY-MM\" or null\n\n" +
	"Each transaction object must have these fields:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string, verbatim from the statement\n" +
	"- \"amount\": number (positive for money IN, negative for money OUT)\n" +
	"- \"detail\": string, one of \"DEBIT\", \"CREDIT\", \"DSLIP\", \"CHECK\" or null\n" +
	"- \"type\": string, the bank's transaction type code or null\n" +
	"- \"balance_after\": number or null\n" +
	"- \"check_number\": string or null\n\n" +
	"Rules:\n" +
	"- Do NOT classify, categorize or interpret transactions.\n" +
	"- If the running balance is missing, set \"balance_after\" to null.\n" +
	"- Keep the statement's own ordering of transactions.\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n"

// ExtractStatement sends the PDF to the model and returns the raw structured
// payload. Callers must validate the payload with parser.ParseStructured;
// nothing here is trusted beyond being syntactically valid JSON.
func (e *GeminiExtractor) ExtractStatement(ctx context.Context, pdfBytes []byte) ([]byte, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("ExtractStatement: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdfBytes,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("ExtractStatement: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("ExtractStatement: empty response from model")
	}

	clean := cleanModelJSON(rawText)
	if !json.Valid([]byte(clean)) {
		return nil, fmt.Errorf("ExtractStatement: model returned invalid JSON")
	}
	return []byte(clean), nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON value if there is still junk around it.
	// Whichever opener appears first decides whether it is an object or an
	// array.
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")
	opener, closer := "{", "}"
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		opener, closer = "[", "]"
	}
	start := strings.Index(s, opener)
	end := strings.LastIndex(s, closer)
	if start != -1 && end > start {
		return strings.TrimSpace(s[start : end+1])
	}
	return s
}
