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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEpisode(steps int, agents int) *Episode {
	episode := &Episode{
		Rewards:   make([][]float32, steps),
		Terminals: make([][]bool, steps),
		States:    make([][]float32, steps),
		Actions:   make([][]float32, steps),
	}
	for t := 0; t < steps; t++ {
		episode.Rewards[t] = make([]float32, agents)
		episode.Terminals[t] = make([]bool, agents)
		for agent := 0; agent < agents; agent++ {
			episode.Rewards[t][agent] = float32(t*agents + agent)
			episode.Terminals[t][agent] = t == steps-1
		}
		episode.States[t] = []float32{float32(t), float32(t) + 0.5}
		episode.Actions[t] = []float32{float32(t)}
	}
	return episode
}

func TestEpisodeValidate(t *testing.T) {
	assert.NoError(t, makeEpisode(3, 2).Validate())
}

func TestEpisodeValidateEmpty(t *testing.T) {
	assert.ErrorIs(t, (&Episode{}).Validate(), ErrInvalidInput)
}

func TestEpisodeValidateMisaligned(t *testing.T) {
	episode := makeEpisode(3, 2)
	episode.States = episode.States[:2]
	assert.ErrorIs(t, episode.Validate(), ErrInvalidInput)

	episode = makeEpisode(3, 2)
	episode.Terminals[1] = []bool{true}
	assert.ErrorIs(t, episode.Validate(), ErrInvalidInput)
}

func TestEpisodeValidateNotEndingOnTerminal(t *testing.T) {
	episode := makeEpisode(3, 2)
	episode.Terminals[2][1] = false
	assert.ErrorIs(t, episode.Validate(), ErrInvalidInput)
}

func TestExperienceAgentRewards(t *testing.T) {
	experience := &Experience{NumAgents: 2}
	experience.AppendEpisode(makeEpisode(3, 2))

	first, err := experience.AgentRewards(0)
	assert.NoError(t, err)
	assert.Equal(t, []float32{0, 2, 4}, first)

	second, err := experience.AgentRewards(1)
	assert.NoError(t, err)
	assert.Equal(t, []float32{1, 3, 5}, second)

	_, err = experience.AgentRewards(2)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = experience.AgentRewards(-1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExperienceJointTerminals(t *testing.T) {
	experience := &Experience{
		NumAgents: 2,
		Terminals: [][]bool{
			{false, false},
			{true, false}, // partial termination is not an episode boundary
			{true, true},
		},
		Rewards: [][]float32{{0, 0}, {0, 0}, {0, 0}},
	}
	assert.Equal(t, []bool{false, false, true}, experience.JointTerminals())
}

func TestExperienceSplitEpisodes(t *testing.T) {
	experience := &Experience{NumAgents: 2}
	experience.AppendEpisode(makeEpisode(3, 2))
	experience.AppendEpisode(makeEpisode(2, 2))

	episodes := experience.SplitEpisodes()
	require.Len(t, episodes, 2)
	assert.Equal(t, 3, episodes[0].Steps())
	assert.Equal(t, 2, episodes[1].Steps())
	assert.NoError(t, episodes[0].Validate())
	assert.NoError(t, episodes[1].Validate())
	assert.Equal(t, experience.Rewards[3], episodes[1].Rewards[0])
}

func TestExperienceSplitEpisodesDropsTrailingPartial(t *testing.T) {
	experience := &Experience{NumAgents: 2}
	experience.AppendEpisode(makeEpisode(3, 2))
	// Trailing timesteps without a joint terminal
	experience.Rewards = append(experience.Rewards, []float32{9, 9})
	experience.Terminals = append(experience.Terminals, []bool{true, false})
	experience.States = append(experience.States, []float32{9, 9.5})
	experience.Actions = append(experience.Actions, []float32{9})

	episodes := experience.SplitEpisodes()
	require.Len(t, episodes, 1)
	assert.Equal(t, 3, episodes[0].Steps())
}

func TestExperienceAppendEpisode(t *testing.T) {
	experience := &Experience{NumAgents: 2}
	experience.AppendEpisode(makeEpisode(3, 2))
	experience.AppendEpisode(makeEpisode(2, 2))

	require.Equal(t, 5, experience.Steps())
	assert.Equal(t, []bool{false, false, true, false, true}, experience.JointTerminals())
	assert.Equal(t, []float32{0, 0.5}, experience.States[3])
}
