// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/pdiddy/content-engine/internal/board"
	"github.com/pdiddy/content-engine/internal/bridge"
	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/internal/session"
	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/pkg/types"
)

// openStore opens the configured record store.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Backend {
	case types.StoreRedis:
		return store.NewRedisStore(ctx, cfg.Store.Redis, cfg.Store.KeyPrefix, log)
	default:
		return store.NewSQLiteStore(cfg.Store.DataDir, log)
	}
}

// openBoard opens the store and bridge behind a board. The returned func
// releases them.
func openBoard(ctx context.Context) (*board.Board, func(), error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	pub, err := bridge.New(ctx, cfg.Bridge, cfg.Store.Redis, log)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	b := board.New(st, pub, board.WithLogger(log), board.WithMetrics(met))
	return b, func() { st.Close() }, nil
}

// openSession checks the item on the board and hydrates a controller for it.
// Warnings from write-through failures are printed to stderr. Commands that
// never generate pass needGen false so they work without an API key.
func openSession(ctx context.Context, id string, needGen bool) (*session.Controller, func(), error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { st.Close() }

	pub, err := bridge.New(ctx, cfg.Bridge, cfg.Store.Redis, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	item, err := board.New(st, pub, board.WithLogger(log), board.WithMetrics(met)).Develop(ctx, id)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var gen session.Generator
	client, err := newGenerator()
	switch {
	case err == nil:
		gen = client
	case needGen:
		cleanup()
		return nil, nil, err
	default:
		gen = unavailableGenerator{err: err}
	}

	ctrl := session.New(item, gen, st, pub,
		session.WithLogger(log),
		session.WithMetrics(met),
		session.WithWarningFunc(func(err error) {
			fmt.Fprintln(errOut, "warning:", err)
		}),
	)
	return ctrl, func() {
		ctrl.Close()
		cleanup()
	}, nil
}

// newGenerator builds the generation client from configuration.
func newGenerator() (*generate.Client, error) {
	backend, err := generate.NewBackend(cfg.Generation, loadedSecrets)
	if err != nil {
		return nil, err
	}
	return generate.NewClient(backend,
		generate.WithMaxRetries(cfg.Generation.MaxRetries),
		generate.WithTimeout(cfg.Generation.Timeout),
		generate.WithLogger(log),
		generate.WithMetrics(met),
	)
}

// unavailableGenerator stands in when no backend could be configured.
type unavailableGenerator struct{ err error }

func (u unavailableGenerator) DeepDive(context.Context, generate.Request) (generate.DeepDiveResult, error) {
	return generate.DeepDiveResult{}, u.err
}

func (u unavailableGenerator) RefinePoint(context.Context, generate.Request) (string, error) {
	return "", u.err
}

func (u unavailableGenerator) Outline(context.Context, generate.Request) ([]string, error) {
	return nil, u.err
}

func (u unavailableGenerator) Draft(context.Context, generate.Request) (string, error) {
	return "", u.err
}
