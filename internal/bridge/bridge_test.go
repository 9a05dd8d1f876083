// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bridge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/pkg/types"
)

func testDoc() Document {
	return NewDocument(types.ContentItem{
		ID:        "item-1",
		Hook:      "Mentorship at a distance",
		DraftText: "# Mentorship at a distance\n\nPairing *works*.",
	})
}

func TestFileBridgePublish(t *testing.T) {
	dir := t.TempDir()
	b := NewFileBridge(dir, nil)

	require.NoError(t, b.Publish(context.Background(), testDoc()))
	assert.Equal(t, filepath.Join(dir, "item-1.md"), b.Location("item-1"))

	md, err := os.ReadFile(filepath.Join(dir, "item-1.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Pairing *works*.")

	html, err := os.ReadFile(filepath.Join(dir, "item-1.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Mentorship at a distance</h1>")
	assert.Contains(t, string(html), "<em>works</em>")

	meta, err := os.ReadFile(filepath.Join(dir, "item-1.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(meta), "id: item-1")
}

func TestFileBridgeOverwrites(t *testing.T) {
	dir := t.TempDir()
	b := NewFileBridge(dir, nil)
	doc := testDoc()
	require.NoError(t, b.Publish(context.Background(), doc))

	doc.Markdown = "# Second version"
	require.NoError(t, b.Publish(context.Background(), doc))

	md, err := os.ReadFile(filepath.Join(dir, "item-1.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Second version", string(md))
}

func TestPublishRejectsEmpty(t *testing.T) {
	b := NewFileBridge(t.TempDir(), nil)
	err := b.Publish(context.Background(), Document{ID: "x", Markdown: "  "})
	assert.ErrorIs(t, err, ErrEmptyDocument)
	err = b.Publish(context.Background(), Document{Markdown: "body"})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestRedisBridgePublish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisBridgeWithClient(client, "", nil)
	defer b.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, DefaultChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, testDoc()))
	assert.Equal(t, "doc:item-1", b.Location("item-1"))

	raw, err := mr.Get("doc:item-1")
	require.NoError(t, err)
	var stored Document
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "item-1", stored.ID)
	assert.Contains(t, stored.HTML, "<em>works</em>")

	select {
	case msg := <-sub.Channel():
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, EventPublished, ev.Type)
		assert.Equal(t, "item-1", ev.DocID)
		assert.Equal(t, "doc:item-1", ev.Key)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	p, err := New(context.Background(), types.BridgeConfig{OutputDir: t.TempDir()}, types.RedisConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileBridge{}, p)

	_, err = New(context.Background(), types.BridgeConfig{Backend: "ftp"}, types.RedisConfig{}, nil)
	assert.Error(t, err)
}
