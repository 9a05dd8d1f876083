// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/content-engine/internal/logger"
)

// FileBridge writes <dir>/<id>.md, <id>.html and <id>.yaml.
type FileBridge struct {
	dir string
	log logger.Logger
}

// NewFileBridge returns a bridge rooted at dir.
func NewFileBridge(dir string, log logger.Logger) *FileBridge {
	if log == nil {
		log = logger.NewNop()
	}
	return &FileBridge{dir: dir, log: log}
}

// Location returns the Markdown path for id.
func (b *FileBridge) Location(id string) string {
	return filepath.Join(b.dir, id+".md")
}

// Publish writes the document files, overwriting earlier versions.
func (b *FileBridge) Publish(_ context.Context, doc Document) error {
	doc, err := render(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	meta, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	files := map[string][]byte{
		doc.ID + ".md":   []byte(doc.Markdown),
		doc.ID + ".html": []byte(doc.HTML),
		doc.ID + ".yaml": meta,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(b.dir, name), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	b.log.Info("draft published", logger.ItemID(doc.ID), logger.String("path", b.Location(doc.ID)))
	return nil
}
