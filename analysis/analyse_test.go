// Copyright 2024 The OpenMARL Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmarl/vaultscope/vault"
	"github.com/openmarl/vaultscope/vault/memory"
)

// fixtureEpisode builds a single-state-dim, single-agent-pair episode whose
// rewards are the same for both agents
func fixtureEpisode(rewards []float32) *vault.Episode {
	steps := len(rewards)
	episode := &vault.Episode{
		Rewards:   make([][]float32, steps),
		Terminals: make([][]bool, steps),
		States:    make([][]float32, steps),
		Actions:   make([][]float32, steps),
	}
	for t := 0; t < steps; t++ {
		episode.Rewards[t] = []float32{rewards[t], rewards[t] * 2}
		episode.Terminals[t] = []bool{t == steps-1, t == steps-1}
		episode.States[t] = []float32{float32(t)}
		episode.Actions[t] = []float32{0, 0}
	}
	return episode
}

func fixtureStore(t *testing.T) vault.Store {
	store, err := memory.CreateMemoryStore(memory.DefaultMaxDatasets)
	require.NoError(t, err)
	t.Cleanup(store.Destroy)

	descriptor := &vault.Descriptor{NumAgents: 2, StateDim: 1, ActionDim: 2}
	err = store.CreateOrUpdateDatasets(context.Background(), []*vault.DatasetParams{
		{UID: "good", Descriptor: descriptor},
		{UID: "medium", Descriptor: descriptor},
		{UID: "poor", Descriptor: descriptor},
	})
	require.NoError(t, err)

	err = store.AddEpisodes(context.Background(), "good", []*vault.Episode{
		fixtureEpisode([]float32{1, 2, 3}),
		fixtureEpisode([]float32{4, 4}),
	})
	require.NoError(t, err)
	err = store.AddEpisodes(context.Background(), "medium", []*vault.Episode{
		fixtureEpisode([]float32{1}),
	})
	require.NoError(t, err)
	err = store.AddEpisodes(context.Background(), "poor", []*vault.Episode{
		fixtureEpisode([]float32{-1, -1}),
	})
	require.NoError(t, err)

	return store
}

func TestAnalyseVault(t *testing.T) {
	store := fixtureStore(t)

	results, err := AnalyseVault(
		context.Background(),
		store,
		[]string{"good", "medium", "poor"},
		DefaultOptions,
	)
	assert.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "good", results[0].UID)
	assert.Equal(t, []float32{6, 8}, results[0].Returns)
	assert.Equal(t, "medium", results[1].UID)
	assert.Equal(t, []float32{1}, results[1].Returns)
	assert.Equal(t, "poor", results[2].UID)
	assert.Equal(t, []float32{-2}, results[2].Returns)

	for _, result := range results {
		assert.Nil(t, result.Coverage)
	}
}

func TestAnalyseVaultDesignatedAgent(t *testing.T) {
	store := fixtureStore(t)

	options := DefaultOptions
	options.AgentIndex = 1
	results, err := AnalyseVault(context.Background(), store, []string{"good"}, options)
	assert.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []float32{12, 16}, results[0].Returns)
}

func TestAnalyseVaultAgentIndexOutOfRange(t *testing.T) {
	store := fixtureStore(t)

	options := DefaultOptions
	options.AgentIndex = 5
	_, err := AnalyseVault(context.Background(), store, []string{"good"}, options)
	assert.ErrorIs(t, err, vault.ErrInvalidInput)
}

func TestAnalyseVaultComputesCoverage(t *testing.T) {
	store := fixtureStore(t)

	options := DefaultOptions
	options.ComputeCoverage = true
	results, err := AnalyseVault(context.Background(), store, []string{"good"}, options)
	assert.NoError(t, err)
	require.Len(t, results, 1)

	// "good" holds 5 timesteps with states 0,1,2,0,1 and a constant action,
	// so 3 distinct state-action pairs
	require.NotNil(t, results[0].Coverage)
	assert.Equal(t, 3.0/5.0, *results[0].Coverage)
}

func TestAnalyseVaultUnknownUIDAborts(t *testing.T) {
	store := fixtureStore(t)

	_, err := AnalyseVault(
		context.Background(),
		store,
		[]string{"good", "unknown", "poor"},
		DefaultOptions,
	)
	assert.Error(t, err)
}

func TestAnalyseVaultSkipFailingUIDs(t *testing.T) {
	store := fixtureStore(t)

	options := DefaultOptions
	options.SkipFailingUIDs = true
	results, err := AnalyseVault(
		context.Background(),
		store,
		[]string{"good", "unknown", "poor"},
		options,
	)
	assert.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "good", results[0].UID)
	assert.Equal(t, "poor", results[1].UID)
}

func TestAnalyseVaultCancelledContext(t *testing.T) {
	store := fixtureStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnalyseVault(ctx, store, []string{"good", "medium", "poor"}, DefaultOptions)
	assert.ErrorIs(t, err, context.Canceled)

	// Cancellation is not a skippable per-dataset failure
	options := DefaultOptions
	options.SkipFailingUIDs = true
	_, err = AnalyseVault(ctx, store, []string{"good", "medium", "poor"}, options)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyseVaultParallelismPreservesOrder(t *testing.T) {
	store := fixtureStore(t)

	sequential, err := AnalyseVault(
		context.Background(),
		store,
		[]string{"good", "medium", "poor"},
		DefaultOptions,
	)
	require.NoError(t, err)

	options := DefaultOptions
	options.Parallelism = 4
	parallel, err := AnalyseVault(
		context.Background(),
		store,
		[]string{"good", "medium", "poor"},
		options,
	)
	assert.NoError(t, err)
	assert.Equal(t, sequential, parallel)
}
