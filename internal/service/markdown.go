package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	notesSanitizer = bluemonday.UGCPolicy()
	textSanitizer  = bluemonday.StrictPolicy()
)

// RenderMarkdown 将 Markdown 渲染为消毒后的 HTML，供目标备注展示
func RenderMarkdown(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return notesSanitizer.Sanitize(buf.String()), nil
}

// SanitizeText 剥离用户自由文本中的全部标记，只留纯文本
func SanitizeText(input string) string {
	return strings.TrimSpace(textSanitizer.Sanitize(input))
}
