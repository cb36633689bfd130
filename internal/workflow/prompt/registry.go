package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptRecipeGenV1    PromptID = "recipe_gen_v1"
	PromptRecipeModifyV1 PromptID = "recipe_modify_v1"
	PromptRecipeRepairV1 PromptID = "recipe_repair_v1"
	PromptRecipeImportV1 PromptID = "recipe_import_v1"
)

// Version 提示词版本号，随模板内容一起变更
const Version = "2025-12-17-style-v1"

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptRecipeGenV1:
		return "templates/recipe_gen_v1.system.txt", "templates/recipe_gen_v1.user.txt", nil
	case PromptRecipeModifyV1:
		return "templates/recipe_modify_v1.system.txt", "templates/recipe_modify_v1.user.txt", nil
	case PromptRecipeRepairV1:
		return "templates/recipe_repair_v1.system.txt", "templates/recipe_repair_v1.user.txt", nil
	case PromptRecipeImportV1:
		return "templates/recipe_import_v1.system.txt", "templates/recipe_import_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
