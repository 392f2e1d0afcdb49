package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tb0hdan/adapta-history/pkg/types"
)

// ToolConfig is the fixed identity of one generation tool.
type ToolConfig struct {
	ID       string
	Type     string
	Name     string
	Credits  int
	Endpoint string
	// InputFields compose the history input. The first one receives replayed input.
	InputFields []string
	// InputLabels label each input field when more than one is present.
	InputLabels []string
	// OutputField names the response field holding the result. Empty stores
	// the whole response object.
	OutputField string
	// FormatInput overrides the default labeled composition.
	FormatInput func(fields map[string]any) string
}

// PrimaryField is the field a replayed input is written to.
func (c ToolConfig) PrimaryField() string {
	if len(c.InputFields) == 0 {
		return ""
	}
	return c.InputFields[0]
}

// HistoryInput renders the input fields as the text stored in history.
func (c ToolConfig) HistoryInput(fields map[string]any) string {
	if c.FormatInput != nil {
		return c.FormatInput(fields)
	}
	if len(c.InputFields) == 1 {
		return types.Stringify(fields[c.InputFields[0]])
	}
	parts := make([]string, 0, len(c.InputFields))
	for i, name := range c.InputFields {
		value := types.Stringify(fields[name])
		if value == "" {
			continue
		}
		label := name
		if i < len(c.InputLabels) {
			label = c.InputLabels[i]
		}
		parts = append(parts, fmt.Sprintf("%s: %s", label, value))
	}
	return strings.Join(parts, "\n\n")
}

func (c ToolConfig) isInputField(name string) bool {
	for _, f := range c.InputFields {
		if f == name {
			return true
		}
	}
	return false
}

var Catalog = map[string]ToolConfig{
	"image-prompt": {
		Type: "image", Name: "Gerador de Prompt para Imagens", Credits: 1,
		Endpoint: "/generate-prompt", InputFields: []string{"idea"}, OutputField: "advanced_prompt",
	},
	"image-generate": {
		Type: "image", Name: "Gerador de Imagens (SDXL)", Credits: 2,
		Endpoint: "/generate-image", InputFields: []string{"prompt"}, OutputField: "image_url",
	},
	"video-prompt": {
		Type: "video-prompt", Name: "Gerador de Prompts para Vídeo", Credits: 1,
		Endpoint: "/generate-veo3-prompt", InputFields: []string{"idea"}, OutputField: "prompt",
	},
	"text-summary": {
		Type: "text-summary", Name: "Resumidor de Textos", Credits: 1,
		Endpoint: "/summarize-text", InputFields: []string{"text"}, OutputField: "summary",
	},
	"video-summary": {
		Type: "video-summary", Name: "Resumidor de Vídeos", Credits: 1,
		Endpoint: "/summarize-video", InputFields: []string{"url"}, OutputField: "summary",
	},
	"abnt": {
		Type: "abnt", Name: "Formatador ABNT", Credits: 1,
		Endpoint: "/format-abnt", InputFields: []string{"text"}, OutputField: "formatted_text",
	},
	"translation": {
		Type: "translation", Name: "Tradutor Corporativo", Credits: 1,
		Endpoint: "/corporate-translator", InputFields: []string{"text"}, OutputField: "translated_text",
	},
	"cover-letter": {
		Type: "cover-letter", Name: "Gerador de Carta de Apresentação", Credits: 1,
		Endpoint: "/generate-cover-letter", InputFields: []string{"cv_text", "job_desc"},
		InputLabels: []string{"Currículo", "Vaga"}, OutputField: "cover_letter",
	},
	"spreadsheet": {
		Type: "spreadsheet", Name: "Gerador de Planilhas", Credits: 1,
		Endpoint: "/generate-spreadsheet", InputFields: []string{"description"},
	},
	"social": {
		Type: "social", Name: "Gerador de Social Media", Credits: 1,
		Endpoint: "/generate-social-media", InputFields: []string{"text"},
	},
	"essay": {
		Type: "essay", Name: "Corretor de Redação", Credits: 1,
		Endpoint: "/correct-essay", InputFields: []string{"theme", "essay"},
		FormatInput: func(fields map[string]any) string {
			return fmt.Sprintf("Tema: %s\n\nRedação:\n%s", types.Stringify(fields["theme"]), types.Stringify(fields["essay"]))
		},
	},
	"interview": {
		Type: "interview", Name: "Simulador de Entrevista", Credits: 1,
		Endpoint: "/mock-interview", InputFields: []string{"role", "description"},
		InputLabels: []string{"Cargo", "Descrição"},
	},
	"study": {
		Type: "study", Name: "Gerador de Material de Estudo", Credits: 1,
		Endpoint: "/generate-study-material", InputFields: []string{"text"},
	},
	"chat-pdf": {
		Type: "chat-pdf", Name: "Chat com PDF", Credits: 0,
		Endpoint: "/ask-document", InputFields: []string{"question"}, OutputField: "answer",
	},
}

func init() {
	for id, cfg := range Catalog {
		cfg.ID = id
		Catalog[id] = cfg
	}
}

func Lookup(id string) (ToolConfig, error) {
	cfg, ok := Catalog[id]
	if !ok {
		return ToolConfig{}, fmt.Errorf("unknown tool %q", id)
	}
	return cfg, nil
}

// IDs returns the catalog keys in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(Catalog))
	for id := range Catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
