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
	"bytes"
	"encoding/binary"
	"io"
)

// Episodes are stored as fixed-shape little-endian arrays behind a small
// shape header. The layout is
//
//	header    > steps, agents, state dim, action dim (uint32 each)
//	rewards   > steps x agents (float32)
//	terminals > steps x agents (1 byte each)
//	states    > steps x state dim (float32)
//	actions   > steps x action dim (float32)

type episodeHeader struct {
	Steps     uint32
	Agents    uint32
	StateDim  uint32
	ActionDim uint32
}

func flattenFloat32(rows [][]float32, width int) []float32 {
	flat := make([]float32, 0, len(rows)*width)
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return flat
}

func unflattenFloat32(flat []float32, width int) [][]float32 {
	rows := make([][]float32, len(flat)/width)
	for i := range rows {
		rows[i] = flat[i*width : (i+1)*width]
	}
	return rows
}

// EncodeEpisode serializes a validated episode to its storage representation
func EncodeEpisode(episode *Episode) ([]byte, error) {
	steps := episode.Steps()
	agents := len(episode.Rewards[0])
	stateDim := len(episode.States[0])
	actionDim := len(episode.Actions[0])

	buf := &bytes.Buffer{}
	header := episodeHeader{
		Steps:     uint32(steps),
		Agents:    uint32(agents),
		StateDim:  uint32(stateDim),
		ActionDim: uint32(actionDim),
	}
	if err := binary.Write(buf, binary.LittleEndian, &header); err != nil {
		return nil, NewUnexpectedError("unable to serialize episode header (%w)", err)
	}

	terminals := make([]bool, 0, steps*agents)
	for _, stepTerminals := range episode.Terminals {
		terminals = append(terminals, stepTerminals...)
	}

	for _, block := range []interface{}{
		flattenFloat32(episode.Rewards, agents),
		terminals,
		flattenFloat32(episode.States, stateDim),
		flattenFloat32(episode.Actions, actionDim),
	} {
		if err := binary.Write(buf, binary.LittleEndian, block); err != nil {
			return nil, NewUnexpectedError("unable to serialize episode arrays (%w)", err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeEpisode deserializes an episode from its storage representation
func DecodeEpisode(v []byte) (*Episode, error) {
	reader := bytes.NewReader(v)
	header := episodeHeader{}
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return nil, NewUnexpectedError("unable to deserialize episode header (%w)", err)
	}

	steps := int(header.Steps)
	agents := int(header.Agents)
	stateDim := int(header.StateDim)
	actionDim := int(header.ActionDim)

	// Stored episodes always hold at least one timestep, agent and dimension
	if steps == 0 || agents == 0 || stateDim == 0 || actionDim == 0 {
		return nil, NewUnexpectedError(
			"stored episode header announces an empty shape (%d steps, %d agents, %d state dims, %d action dims)",
			steps, agents, stateDim, actionDim,
		)
	}

	expectedSize := binary.Size(header) +
		steps*agents*4 + // rewards
		steps*agents + // terminals
		steps*stateDim*4 + // states
		steps*actionDim*4 // actions
	if len(v) != expectedSize {
		return nil, NewUnexpectedError(
			"stored episode holds %d bytes, its header announces %d", len(v), expectedSize,
		)
	}

	rewards := make([]float32, steps*agents)
	terminals := make([]bool, steps*agents)
	states := make([]float32, steps*stateDim)
	actions := make([]float32, steps*actionDim)
	for _, block := range []interface{}{rewards, terminals, states, actions} {
		if err := binary.Read(reader, binary.LittleEndian, block); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, NewUnexpectedError("stored episode is truncated")
			}
			return nil, NewUnexpectedError("unable to deserialize episode arrays (%w)", err)
		}
	}

	episode := &Episode{
		Rewards:   unflattenFloat32(rewards, agents),
		States:    unflattenFloat32(states, stateDim),
		Actions:   unflattenFloat32(actions, actionDim),
		Terminals: make([][]bool, steps),
	}
	for t := 0; t < steps; t++ {
		episode.Terminals[t] = terminals[t*agents : (t+1)*agents]
	}
	return episode, nil
}
