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
	"encoding/binary"
	"math"

	"github.com/openmarl/vaultscope/vault"
)

// StateActionCoverage computes the SACO score of a batch: the number of
// distinct (state, action) rows divided by the total number of timesteps.
// A score of 1.0 means every timestep is unique, lower scores indicate
// repeated state-action pairs.
//
// Rows are compared under exact bit-for-bit float32 equality. Two states
// produced through different computation paths may differ in their last bit
// and be counted as distinct, this is a known limitation of the metric and
// switching to tolerance-based matching would change its meaning.
func StateActionCoverage(states [][]float32, actions [][]float32) (float64, error) {
	if len(states) != len(actions) {
		return 0, vault.NewInvalidInputError(
			"%d states and %d actions, expected index-aligned sequences",
			len(states), len(actions),
		)
	}
	if len(states) == 0 {
		return 0, vault.NewInvalidInputError("empty batch")
	}

	stateDim := len(states[0])
	actionDim := len(actions[0])
	row := make([]byte, 4*(stateDim+actionDim))
	distinctRows := map[string]struct{}{}
	for t := range states {
		if len(states[t]) != stateDim {
			return 0, vault.NewInvalidInputError(
				"state at timestep %d has dimension %d, expected %d", t, len(states[t]), stateDim,
			)
		}
		if len(actions[t]) != actionDim {
			return 0, vault.NewInvalidInputError(
				"action row at timestep %d has dimension %d, expected %d", t, len(actions[t]), actionDim,
			)
		}
		offset := 0
		for _, v := range states[t] {
			binary.LittleEndian.PutUint32(row[offset:], math.Float32bits(v))
			offset += 4
		}
		for _, v := range actions[t] {
			binary.LittleEndian.PutUint32(row[offset:], math.Float32bits(v))
			offset += 4
		}
		distinctRows[string(row)] = struct{}{}
	}

	return float64(len(distinctRows)) / float64(len(states)), nil
}
