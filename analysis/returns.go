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
	"github.com/openmarl/vaultscope/vault"
)

// EpisodeReturns computes the total reward of every completed episode in a
// flat batch of timesteps, one value per terminal flag, in completion order.
//
// The running sum resets on the timestep following a terminal flag: the
// reward at the terminal timestep itself still belongs to the episode it
// ends. A trailing partial episode, one not closed by a terminal flag, is
// dropped.
func EpisodeReturns(rewards []float32, terminals []bool) ([]float32, error) {
	if len(rewards) != len(terminals) {
		return nil, vault.NewInvalidInputError(
			"%d rewards and %d terminals, expected index-aligned sequences",
			len(rewards), len(terminals),
		)
	}

	returns := []float32{}
	var carry float32
	previousTerminal := false
	for t, reward := range rewards {
		if previousTerminal {
			// New episode, the accumulation restarts from the current reward
			carry = reward
		} else {
			carry += reward
		}
		if terminals[t] {
			returns = append(returns, carry)
		}
		previousTerminal = terminals[t]
	}
	return returns, nil
}
