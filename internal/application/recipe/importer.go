package recipe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"culinova-ai-api/internal/config"
	"culinova-ai-api/internal/infrastructure/persistence/redis"
	wfnode "culinova-ai-api/internal/workflow/node"
	"culinova-ai-api/pkg/logger"
	"culinova-ai-api/pkg/metrics"
)

// PageFetcher 抓取外部菜谱页面。同一 URL 的结果走 Redis 缓存，
// 页面里带 schema.org Recipe 的 JSON-LD 时优先返回结构化内容。
type PageFetcher struct {
	cfg    *config.Config
	cache  *redis.Cache
	client *http.Client
}

func NewPageFetcher(cfg *config.Config, cache *redis.Cache) *PageFetcher {
	return &PageFetcher{
		cfg:   cfg,
		cache: cache,
		client: &http.Client{
			Timeout: cfg.Pipeline.ImportFetchTimeout,
		},
	}
}

const maxFetchBodyBytes = 4 << 20

// Fetch 返回页面的文本内容
func (f *PageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	key := buildPageCacheKey(url)

	data, err := f.cache.GetOrLoadSafe(ctx, key, f.cfg.Pipeline.ImportCacheTTL, func() (interface{}, error) {
		content, err := f.fetchPage(ctx, url)
		if err != nil {
			metrics.ImportFetchTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.ImportFetchTotal.WithLabelValues("success").Inc()
		return content, nil
	})
	if err != nil {
		return "", err
	}

	var content string
	if err := json.Unmarshal(data, &content); err != nil {
		return "", fmt.Errorf("failed to decode cached page: %w", err)
	}
	return content, nil
}

func (f *PageFetcher) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid import url: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", "culinova-ai-api/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}
	html := string(body)

	// JSON-LD 命中时直接用结构化数据，比整页 HTML 可靠得多
	if ld := ExtractJSONLDRecipe(html); ld != "" {
		metrics.ImportJSONLDHits.Inc()
		logger.Debug(ctx, "import page contained schema.org recipe", "url", url)
		return ld, nil
	}

	return stripHTMLTags(html), nil
}

func buildPageCacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "import:page:" + hex.EncodeToString(sum[:16])
}

var jsonLDScriptRe = regexp.MustCompile(`(?is)<script[^>]+type\s*=\s*["']application/ld\+json["'][^>]*>(.*?)</script>`)

// ExtractJSONLDRecipe 从 HTML 中找 schema.org 的 Recipe 节点。
// 兼容顶层对象、数组和 @graph 包裹三种形态。
func ExtractJSONLDRecipe(html string) string {
	for _, match := range jsonLDScriptRe.FindAllStringSubmatch(html, -1) {
		raw := strings.TrimSpace(match[1])
		if raw == "" {
			continue
		}
		raw = wfnode.ExtractJSONObject(raw)

		var doc any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			continue
		}
		if node := findRecipeNode(doc); node != nil {
			if b, err := json.Marshal(node); err == nil {
				return string(b)
			}
		}
	}
	return ""
}

func findRecipeNode(doc any) map[string]any {
	switch v := doc.(type) {
	case map[string]any:
		if isRecipeType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"].([]any); ok {
			return findRecipeNode(graph)
		}
	case []any:
		for _, item := range v {
			if node := findRecipeNode(item); node != nil {
				return node
			}
		}
	}
	return nil
}

func isRecipeType(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Recipe")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

var (
	htmlScriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	htmlTagRe    = regexp.MustCompile(`(?s)<[^>]+>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// stripHTMLTags 去掉脚本和标签，留下可读文本给模型
func stripHTMLTags(html string) string {
	text := htmlScriptRe.ReplaceAllString(html, " ")
	text = htmlTagRe.ReplaceAllString(text, "\n")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
