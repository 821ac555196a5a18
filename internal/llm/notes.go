package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/acedatacloud/dashsnap/internal/domain"
)

// NotesSummarizer turns a merged pull request into release-notes metadata
// (pretty title, summary, tags) via the configured LLM provider.
type NotesSummarizer struct {
	provider domain.LLMProvider
}

func NewNotesSummarizer(provider domain.LLMProvider) *NotesSummarizer {
	return &NotesSummarizer{provider: provider}
}

// SummarizeRequest identifies the pull request and carries its diff digest.
type SummarizeRequest struct {
	Org    string
	Repo   string
	Number int
	Title  string
	Body   string
	Digest *domain.FilesDigest
}

type notesPayload struct {
	Org          string               `json:"org"`
	Repo         string               `json:"repo"`
	Number       int                  `json:"number"`
	Title        string               `json:"title"`
	Body         string               `json:"body"`
	Files        []domain.ChangedFile `json:"files"`
	PatchExcerpt string               `json:"patch_excerpt"`
}

const notesSystemPrompt = "You write formal, external-facing release notes for merged GitHub PRs.\n" +
	"Return ONLY a JSON object with keys: title, summary, tags.\n" +
	"- title: short, professional, <= 90 chars, no trailing period.\n" +
	"- summary: 2-4 sentences, factual, avoid speculation; mention key changes and impact.\n" +
	"- tags: 0-6 short lower-case tags; avoid duplicates.\n"

// Summarize requests release notes for one pull request. The reply must
// contain a JSON object; fields that are missing or of the wrong type are
// dropped rather than failing the call.
func (s *NotesSummarizer) Summarize(ctx context.Context, req SummarizeRequest) (*domain.Enrichment, error) {
	payload := notesPayload{
		Org:    req.Org,
		Repo:   req.Repo,
		Number: req.Number,
		Title:  req.Title,
		Body:   req.Body,
	}
	if req.Digest != nil {
		payload.Files = req.Digest.Files
		payload.PatchExcerpt = req.Digest.PatchExcerpt
	}
	if payload.Files == nil {
		payload.Files = []domain.ChangedFile{}
	}

	userContent, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prompt payload: %w", err)
	}

	llmReq := &domain.LLMRequest{
		Messages: []domain.LLMMessage{
			{Role: domain.RoleSystem, Content: notesSystemPrompt},
			{Role: domain.RoleUser, Content: string(userContent)},
		},
		JSONObject: true,
	}

	resp, err := s.provider.Complete(ctx, llmReq)
	if err != nil {
		return nil, fmt.Errorf("LLM completion failed: %w", err)
	}

	jsonStr := extractJSON(resp.Content)
	if jsonStr == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrLLMMalformedReply, truncateForError(resp.Content))
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrLLMMalformedReply, truncateForError(jsonStr))
	}

	return &domain.Enrichment{
		Title:   stringField(obj, "title"),
		Summary: stringField(obj, "summary"),
		Tags:    tagList(obj, "tags"),
	}, nil
}

// stringField returns the trimmed string value of key, or empty when the
// value is missing or not a string.
func stringField(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// tagList returns the trimmed, order-preserving unique string entries of
// key. Non-string entries are skipped.
func tagList(obj map[string]interface{}, key string) []string {
	raw, ok := obj[key].([]interface{})
	if !ok {
		return nil
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if json.Valid([]byte(text)) && strings.HasPrefix(text, "{") {
		return text
	}

	text = stripMarkdownCodeBlocks(text)
	if json.Valid([]byte(text)) && strings.HasPrefix(text, "{") {
		return text
	}

	if jsonObj := findJSONObjectByBraceMatching(text); jsonObj != "" {
		return jsonObj
	}

	re := regexp.MustCompile(`\{[^{}]*"title"[^{}]*"summary"[^{}]*"tags"[^{}]*\}`)
	if match := re.FindString(text); match != "" && json.Valid([]byte(match)) {
		return match
	}

	return ""
}

func stripMarkdownCodeBlocks(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func findJSONObjectByBraceMatching(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate
				}
			}
		}
	}

	return ""
}

func truncateForError(s string) string {
	const maxLen = 200
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
