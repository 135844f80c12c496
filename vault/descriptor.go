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
	"gopkg.in/yaml.v2"
)

// Descriptor holds the fixed shape and the provenance of one dataset.
// Every episode added to a dataset must match its descriptor.
type Descriptor struct {
	Environment string            `yaml:"environment,omitempty"`
	NumAgents   int               `yaml:"num_agents"`
	StateDim    int               `yaml:"state_dim"`
	// ActionDim is the per-timestep action width once flattened across agents
	ActionDim  int               `yaml:"action_dim"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

func (d *Descriptor) Validate() error {
	if d.NumAgents <= 0 {
		return NewInvalidInputError("descriptor requires at least one agent, got %d", d.NumAgents)
	}
	if d.StateDim <= 0 {
		return NewInvalidInputError("descriptor requires a strictly positive state dimension, got %d", d.StateDim)
	}
	if d.ActionDim <= 0 {
		return NewInvalidInputError("descriptor requires a strictly positive action dimension, got %d", d.ActionDim)
	}
	return nil
}

// CheckEpisode verifies that an episode has the shape announced by the descriptor
func (d *Descriptor) CheckEpisode(episode *Episode) error {
	if err := episode.Validate(); err != nil {
		return err
	}
	for t := 0; t < episode.Steps(); t++ {
		if len(episode.Rewards[t]) != d.NumAgents {
			return NewInvalidInputError(
				"episode step %d has %d agent rewards, descriptor announces %d agents",
				t, len(episode.Rewards[t]), d.NumAgents,
			)
		}
		if len(episode.States[t]) != d.StateDim {
			return NewInvalidInputError(
				"episode step %d has a state of dimension %d, descriptor announces %d",
				t, len(episode.States[t]), d.StateDim,
			)
		}
		if len(episode.Actions[t]) != d.ActionDim {
			return NewInvalidInputError(
				"episode step %d has an action row of dimension %d, descriptor announces %d",
				t, len(episode.Actions[t]), d.ActionDim,
			)
		}
	}
	return nil
}

func EncodeDescriptor(descriptor *Descriptor) ([]byte, error) {
	v, err := yaml.Marshal(descriptor)
	if err != nil {
		return nil, NewUnexpectedError("unable to serialize dataset descriptor (%w)", err)
	}
	return v, nil
}

func DecodeDescriptor(v []byte) (*Descriptor, error) {
	descriptor := &Descriptor{}
	err := yaml.Unmarshal(v, descriptor)
	if err != nil {
		return nil, NewUnexpectedError("unable to deserialize dataset descriptor (%w)", err)
	}
	return descriptor, nil
}
