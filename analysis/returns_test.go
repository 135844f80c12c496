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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openmarl/vaultscope/vault"
)

func TestEpisodeReturnsSingleEpisode(t *testing.T) {
	returns, err := EpisodeReturns(
		[]float32{1, 2, 3},
		[]bool{false, false, true},
	)
	assert.NoError(t, err)
	assert.Equal(t, []float32{6}, returns)
}

func TestEpisodeReturnsMultipleEpisodes(t *testing.T) {
	returns, err := EpisodeReturns(
		[]float32{1, 1, 5, 2},
		[]bool{false, true, false, true},
	)
	assert.NoError(t, err)
	assert.Equal(t, []float32{2, 7}, returns)
}

func TestEpisodeReturnsResetKeepsTerminalReward(t *testing.T) {
	// The reward at a terminal timestep belongs to the episode it ends, the
	// one right after it opens the next episode
	returns, err := EpisodeReturns(
		[]float32{1, 10, 2, 3, 20},
		[]bool{false, true, false, false, true},
	)
	assert.NoError(t, err)
	assert.Equal(t, []float32{11, 25}, returns)
}

func TestEpisodeReturnsNoTerminal(t *testing.T) {
	returns, err := EpisodeReturns(
		[]float32{1, 2, 3},
		[]bool{false, false, false},
	)
	assert.NoError(t, err)
	assert.Empty(t, returns)
}

func TestEpisodeReturnsTrailingPartialEpisodeDropped(t *testing.T) {
	returns, err := EpisodeReturns(
		[]float32{1, 1, 5, 2},
		[]bool{false, true, false, false},
	)
	assert.NoError(t, err)
	assert.Equal(t, []float32{2}, returns)
}

func TestEpisodeReturnsEveryTimestepTerminal(t *testing.T) {
	returns, err := EpisodeReturns(
		[]float32{3, 4, 5},
		[]bool{true, true, true},
	)
	assert.NoError(t, err)
	assert.Equal(t, []float32{3, 4, 5}, returns)
}

func TestEpisodeReturnsLengthMatchesTerminalCount(t *testing.T) {
	rewards := make([]float32, 100)
	terminals := make([]bool, 100)
	terminalCount := 0
	for t := range rewards {
		rewards[t] = float32(t) * 0.25
		// Pseudo-regular episode boundaries
		terminals[t] = t%7 == 6
		if terminals[t] {
			terminalCount++
		}
	}

	returns, err := EpisodeReturns(rewards, terminals)
	assert.NoError(t, err)
	assert.Len(t, returns, terminalCount)
}

func TestEpisodeReturnsNegativeRewards(t *testing.T) {
	returns, err := EpisodeReturns(
		[]float32{-1, -0.5, 2, -3},
		[]bool{false, true, false, true},
	)
	assert.NoError(t, err)
	assert.Equal(t, []float32{-1.5, -1}, returns)
}

func TestEpisodeReturnsMismatchedLengths(t *testing.T) {
	_, err := EpisodeReturns(
		[]float32{1, 2, 3},
		[]bool{false, true},
	)
	assert.ErrorIs(t, err, vault.ErrInvalidInput)
}

func TestEpisodeReturnsDeterminism(t *testing.T) {
	rewards := []float32{0.1, 0.2, 0.30000001, 4000, -0.25}
	terminals := []bool{false, true, false, false, true}

	first, err := EpisodeReturns(rewards, terminals)
	assert.NoError(t, err)
	second, err := EpisodeReturns(rewards, terminals)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}
