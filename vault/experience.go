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

package vault

// Episode is one complete episode of recorded multi-agent experience, the
// unit of everything written to a vault. All the arrays are index-aligned on
// the time dimension. Actions are already flattened across the per-agent and
// per-action-dimension structure into a single row per timestep.
type Episode struct {
	Rewards   [][]float32 // steps x agents
	Terminals [][]bool    // steps x agents
	States    [][]float32 // steps x state dim
	Actions   [][]float32 // steps x flattened action dim
}

func (e *Episode) Steps() int {
	return len(e.Rewards)
}

// Validate checks the episode's internal alignment. A valid episode has at
// least one timestep, index-aligned arrays, and ends on a timestep where
// every agent is terminal.
func (e *Episode) Validate() error {
	steps := e.Steps()
	if steps == 0 {
		return NewInvalidInputError("episode has no timesteps")
	}
	if len(e.Terminals) != steps || len(e.States) != steps || len(e.Actions) != steps {
		return NewInvalidInputError(
			"episode arrays are not index-aligned, got %d rewards, %d terminals, %d states, %d actions",
			steps, len(e.Terminals), len(e.States), len(e.Actions),
		)
	}
	for t := 0; t < steps; t++ {
		if len(e.Terminals[t]) != len(e.Rewards[t]) {
			return NewInvalidInputError(
				"episode step %d has %d rewards and %d terminal flags, expected one of each per agent",
				t, len(e.Rewards[t]), len(e.Terminals[t]),
			)
		}
	}
	for _, terminal := range e.Terminals[steps-1] {
		if !terminal {
			return NewInvalidInputError("episode does not end on an all-agents terminal timestep")
		}
	}
	return nil
}

// Experience is the flat episode-batch read back from a vault, one or more
// episodes concatenated along the time dimension, each ending on an
// all-agents terminal timestep.
type Experience struct {
	NumAgents int
	Rewards   [][]float32 // steps x agents
	Terminals [][]bool    // steps x agents
	States    [][]float32 // steps x state dim
	Actions   [][]float32 // steps x flattened action dim
}

func (e *Experience) Steps() int {
	return len(e.Rewards)
}

// AgentRewards extracts the reward column of one designated agent
func (e *Experience) AgentRewards(agentIdx int) ([]float32, error) {
	if agentIdx < 0 || agentIdx >= e.NumAgents {
		return nil, NewInvalidInputError(
			"agent index %d out of range, the batch holds %d agents", agentIdx, e.NumAgents,
		)
	}
	rewards := make([]float32, e.Steps())
	for t, stepRewards := range e.Rewards {
		rewards[t] = stepRewards[agentIdx]
	}
	return rewards, nil
}

// JointTerminals reduces the per-agent terminal flags to a single flag per
// timestep, true only when every agent terminated at that timestep. Partial
// terminations (some but not all agents done) never mark an episode boundary.
func (e *Experience) JointTerminals() []bool {
	terminals := make([]bool, e.Steps())
	for t, stepTerminals := range e.Terminals {
		joint := true
		for _, terminal := range stepTerminals {
			if !terminal {
				joint = false
				break
			}
		}
		terminals[t] = joint
	}
	return terminals
}

// SplitEpisodes cuts the flat batch back into episodes at the all-agents
// terminal timesteps. Trailing timesteps after the last joint terminal don't
// form a complete episode and are dropped.
func (e *Experience) SplitEpisodes() []*Episode {
	episodes := []*Episode{}
	start := 0
	for t, terminal := range e.JointTerminals() {
		if !terminal {
			continue
		}
		episodes = append(episodes, &Episode{
			Rewards:   e.Rewards[start : t+1],
			Terminals: e.Terminals[start : t+1],
			States:    e.States[start : t+1],
			Actions:   e.Actions[start : t+1],
		})
		start = t + 1
	}
	return episodes
}

// AppendEpisode concatenates a validated episode at the end of the batch
func (e *Experience) AppendEpisode(episode *Episode) {
	e.Rewards = append(e.Rewards, episode.Rewards...)
	e.Terminals = append(e.Terminals, episode.Terminals...)
	e.States = append(e.States, episode.States...)
	e.Actions = append(e.Actions, episode.Actions...)
}
