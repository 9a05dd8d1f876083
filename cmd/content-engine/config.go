// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/content-engine/internal/bridge"
	"github.com/pdiddy/content-engine/pkg/types"
)

// setDefaults registers every config key so environment variables can
// override keys that no config file mentions.
func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", string(types.StoreSQLite))
	v.SetDefault("store.data_dir", "data")
	v.SetDefault("store.key_prefix", "content")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)

	v.SetDefault("generation.provider", "claude")
	v.SetDefault("generation.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.base_url", "")
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.timeout", "2m")
	v.SetDefault("generation.max_tokens", 4096)

	v.SetDefault("bridge.backend", string(types.BridgeFile))
	v.SetDefault("bridge.output_dir", "output/drafts")
	v.SetDefault("bridge.channel", bridge.DefaultChannel)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("metrics_addr", "")
}

// loadConfig reads the merged configuration into a types.Config.
func loadConfig(v *viper.Viper) (types.Config, error) {
	setDefaults(v)
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	switch c.Store.Backend {
	case types.StoreSQLite, types.StoreRedis:
	default:
		return types.Config{}, fmt.Errorf("unknown store backend %q: use sqlite or redis", c.Store.Backend)
	}
	return c, nil
}
