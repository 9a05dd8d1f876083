// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/internal/board"
	"github.com/pdiddy/content-engine/internal/bridge"
	"github.com/pdiddy/content-engine/pkg/types"
)

func envViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CONTENT_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig(envViper())
	require.NoError(t, err)

	assert.Equal(t, types.StoreSQLite, c.Store.Backend)
	assert.Equal(t, "data", c.Store.DataDir)
	assert.Equal(t, "content", c.Store.KeyPrefix)
	assert.Equal(t, "claude", c.Generation.Provider)
	assert.Equal(t, 3, c.Generation.MaxRetries)
	assert.Equal(t, 2*time.Minute, c.Generation.Timeout)
	assert.Equal(t, 4096, c.Generation.MaxTokens)
	assert.Equal(t, types.BridgeFile, c.Bridge.Backend)
	assert.Equal(t, "output/drafts", c.Bridge.OutputDir)
	assert.Equal(t, bridge.DefaultChannel, c.Bridge.Channel)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CONTENT_ENGINE_STORE_BACKEND", "redis")
	t.Setenv("CONTENT_ENGINE_STORE_REDIS_ADDR", "cache:6380")
	t.Setenv("CONTENT_ENGINE_GENERATION_PROVIDER", "echo")
	t.Setenv("CONTENT_ENGINE_GENERATION_TIMEOUT", "30s")
	t.Setenv("CONTENT_ENGINE_BRIDGE_BACKEND", "redis")

	c, err := loadConfig(envViper())
	require.NoError(t, err)

	assert.Equal(t, types.StoreRedis, c.Store.Backend)
	assert.Equal(t, "cache:6380", c.Store.Redis.Addr)
	assert.Equal(t, "echo", c.Generation.Provider)
	assert.Equal(t, 30*time.Second, c.Generation.Timeout)
	assert.Equal(t, types.BridgeRedis, c.Bridge.Backend)
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	t.Setenv("CONTENT_ENGINE_STORE_BACKEND", "postgres")

	_, err := loadConfig(envViper())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestApplyProfileFlags(t *testing.T) {
	existing := types.StrategyProfile{
		Outcome:  "adopt tracing",
		Audience: types.Audience{Role: "SRE", Pain: "noisy alerts"},
		Format:   "essay",
	}

	tests := []struct {
		name string
		args []string
		want types.StrategyProfile
	}{
		{
			name: "no flags keeps profile",
			want: existing,
		},
		{
			name: "set one field",
			args: []string{"--stance", "sampling is underrated"},
			want: types.StrategyProfile{
				Outcome:  "adopt tracing",
				Audience: types.Audience{Role: "SRE", Pain: "noisy alerts"},
				Format:   "essay",
				Stance:   "sampling is underrated",
			},
		},
		{
			name: "explicit empty clears a field",
			args: []string{"--pain", ""},
			want: types.StrategyProfile{
				Outcome:  "adopt tracing",
				Audience: types.Audience{Role: "SRE"},
				Format:   "essay",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := pflag.NewFlagSet("set", pflag.ContinueOnError)
			for _, name := range []string{"outcome", "role", "pain", "stance", "format"} {
				fs.String(name, "", "")
			}
			require.NoError(t, fs.Parse(tt.args))
			assert.Equal(t, tt.want, applyProfileFlags(fs, existing))
		})
	}
}

func TestPrintColumns(t *testing.T) {
	cols := []board.Column{
		{Stage: types.StageIdea, Items: []types.ContentItem{{ID: "a1", Hook: "Tracing costs"}}},
		{Stage: types.StageDeveloping, Items: []types.ContentItem{
			{ID: "b2", Hook: "Queue backpressure", DevStep: types.DevStepOutlineReview},
		}},
		{Stage: types.StageDraft, Items: []types.ContentItem{}},
	}

	var buf bytes.Buffer
	printColumns(&buf, cols)

	assert.Equal(t, "IDEA (1)\n"+
		"  a1  Tracing costs\n"+
		"DEVELOPING (1)\n"+
		"  b2  Queue backpressure [outline_review]\n"+
		"DRAFT (0)\n", buf.String())
}

func TestPrintList(t *testing.T) {
	var buf bytes.Buffer
	printList(&buf, "Research", []types.ResearchPoint{
		{Text: "first", Notes: []string{"cite it"}},
		{Text: "second", IsNew: true},
	})

	assert.Equal(t, "Research (2)\n"+
		"  0. first\n"+
		"       note 0: cite it\n"+
		"  1. second [new]\n\n", buf.String())
}
