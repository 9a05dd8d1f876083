// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ParseDeepDive extracts {research: [], insights: []}. Missing or malformed
// JSON yields an empty result and ok=false.
func ParseDeepDive(raw string) (DeepDiveResult, bool) {
	doc, ok := jsonPayload(raw)
	if !ok {
		return DeepDiveResult{Research: []string{}, Insights: []string{}}, false
	}
	res := DeepDiveResult{
		Research: stringsOf(doc.Get("research")),
		Insights: stringsOf(doc.Get("insights")),
	}
	ok = doc.IsObject() && (doc.Get("research").Exists() || doc.Get("insights").Exists())
	return res, ok
}

// ParseOutline extracts outline sections. It accepts {sections: [...]},
// {outline: [...]} or a bare array.
func ParseOutline(raw string) ([]string, bool) {
	doc, ok := jsonPayload(raw)
	if !ok {
		return []string{}, false
	}
	if doc.IsArray() {
		return stringsOf(doc), true
	}
	for _, key := range []string{"sections", "outline"} {
		if v := doc.Get(key); v.Exists() {
			return stringsOf(v), v.IsArray()
		}
	}
	return []string{}, false
}

// ParseRefine extracts the refined point text. A JSON {text} object, a JSON
// string, or plain prose are all accepted; an empty result reports ok=false.
func ParseRefine(raw string) (string, bool) {
	body := stripFences(raw)
	if doc, ok := jsonPayload(body); ok {
		var text string
		switch {
		case doc.Type == gjson.String:
			text = doc.String()
		case doc.IsObject():
			text = firstString(doc, "text", "point", "content")
		}
		text = strings.TrimSpace(text)
		return text, text != ""
	}
	if looksLikeJSON(body) {
		return "", false
	}
	text := strings.TrimSpace(body)
	return text, text != ""
}

// ParseDraft returns the draft text. Drafts are free text; a JSON wrapper
// such as {"draft": "..."} is unwrapped and a fence around the whole
// document is removed.
func ParseDraft(raw string) string {
	body := strings.TrimSpace(raw)
	if strings.HasPrefix(body, "{") && gjson.Valid(body) {
		doc := gjson.Parse(body)
		return strings.TrimSpace(firstString(doc, "draft", "text", "markdown", "content"))
	}
	return stripFences(body)
}

// jsonPayload finds the JSON document in a model response, tolerating code
// fences and leading or trailing prose.
func jsonPayload(raw string) (gjson.Result, bool) {
	body := stripFences(raw)
	if body == "" {
		return gjson.Result{}, false
	}
	if gjson.Valid(body) {
		return gjson.Parse(body), true
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(body, pair[0])
		end := strings.LastIndex(body, pair[1])
		if start >= 0 && end > start {
			candidate := body[start : end+1]
			if gjson.Valid(candidate) {
				return gjson.Parse(candidate), true
			}
		}
	}
	return gjson.Result{}, false
}

// stripFences removes a Markdown code fence wrapping the whole response.
func stripFences(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") || !strings.HasSuffix(body, "```") || len(body) < 6 {
		return body
	}
	body = strings.TrimSuffix(body, "```")
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "```")
	}
	return strings.TrimSpace(body)
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// stringsOf turns a JSON array into trimmed, non-empty strings. Objects
// contribute their most text-like field; anything else is skipped.
func stringsOf(v gjson.Result) []string {
	out := []string{}
	if !v.IsArray() {
		return out
	}
	for _, el := range v.Array() {
		var s string
		switch {
		case el.Type == gjson.String:
			s = el.String()
		case el.IsObject():
			s = objectText(el)
		case el.Type == gjson.Number:
			s = el.Raw
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// objectText reads a section-like object: {text}, or {title, description}.
func objectText(el gjson.Result) string {
	if s := firstString(el, "text", "point", "content", "instruction"); s != "" {
		return s
	}
	title := strings.TrimSpace(el.Get("title").String())
	desc := strings.TrimSpace(firstString(el, "description", "summary"))
	switch {
	case title != "" && desc != "":
		return title + ": " + desc
	case title != "":
		return title
	default:
		return desc
	}
}

func firstString(doc gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := doc.Get(k); v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
			return v.String()
		}
	}
	return ""
}
