// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bridge hands finished drafts to the editing surface. A published
// document is addressed by the ContentItem id so the editor and the pipeline
// agree on identity.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/pdiddy/content-engine/internal/logger"
	"github.com/pdiddy/content-engine/pkg/types"
)

// ErrEmptyDocument is returned when a document has no id or no body.
var ErrEmptyDocument = errors.New("document id and markdown are required")

// Document is a draft ready for editing.
type Document struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Markdown    string    `json:"markdown" yaml:"-"`
	HTML        string    `json:"html,omitempty" yaml:"-"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
}

// Publisher delivers documents to the editing surface.
type Publisher interface {
	// Publish stores doc under doc.ID, replacing any previous version.
	Publish(ctx context.Context, doc Document) error
	// Location tells the author where the document for id lives.
	Location(id string) string
}

// NewDocument builds a document from an item's hook and draft.
func NewDocument(item types.ContentItem) Document {
	return Document{ID: item.ID, Title: item.Hook, Markdown: item.DraftText}
}

// render validates doc and fills the HTML and timestamp.
func render(doc Document) (Document, error) {
	if doc.ID == "" || strings.TrimSpace(doc.Markdown) == "" {
		return Document{}, ErrEmptyDocument
	}
	if doc.HTML == "" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(doc.Markdown), &buf); err != nil {
			return Document{}, fmt.Errorf("rendering markdown: %w", err)
		}
		doc.HTML = buf.String()
	}
	if doc.PublishedAt.IsZero() {
		doc.PublishedAt = time.Now().UTC()
	}
	return doc, nil
}

// New selects a publisher from configuration. A Redis bridge needs client
// settings from the store configuration.
func New(ctx context.Context, cfg types.BridgeConfig, redisCfg types.RedisConfig, log logger.Logger) (Publisher, error) {
	switch cfg.Backend {
	case types.BridgeFile, "":
		dir := cfg.OutputDir
		if dir == "" {
			dir = "output/drafts"
		}
		return NewFileBridge(dir, log), nil
	case types.BridgeRedis:
		return NewRedisBridge(ctx, redisCfg, cfg.Channel, log)
	}
	return nil, fmt.Errorf("unknown bridge backend %q: use file or redis", cfg.Backend)
}
