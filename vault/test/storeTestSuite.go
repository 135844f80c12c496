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

package test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmarl/vaultscope/vault"
)

// GenerateDescriptor builds a valid dataset descriptor for suite fixtures
func GenerateDescriptor(numAgents int, stateDim int, actionDim int) *vault.Descriptor {
	return &vault.Descriptor{
		Environment: "test-env",
		NumAgents:   numAgents,
		StateDim:    stateDim,
		ActionDim:   actionDim,
		Properties:  map[string]string{"quality": "test"},
	}
}

// GenerateEpisode builds a complete episode matching a descriptor, with
// deterministic content derived from the seed
func GenerateEpisode(descriptor *vault.Descriptor, steps int, seed int) *vault.Episode {
	episode := &vault.Episode{
		Rewards:   make([][]float32, steps),
		Terminals: make([][]bool, steps),
		States:    make([][]float32, steps),
		Actions:   make([][]float32, steps),
	}
	for t := 0; t < steps; t++ {
		episode.Rewards[t] = make([]float32, descriptor.NumAgents)
		episode.Terminals[t] = make([]bool, descriptor.NumAgents)
		for agent := 0; agent < descriptor.NumAgents; agent++ {
			episode.Rewards[t][agent] = float32(seed + t + agent)
			episode.Terminals[t][agent] = t == steps-1
		}
		episode.States[t] = make([]float32, descriptor.StateDim)
		for i := range episode.States[t] {
			episode.States[t][i] = float32(seed*1000 + t*10 + i)
		}
		episode.Actions[t] = make([]float32, descriptor.ActionDim)
		for i := range episode.Actions[t] {
			episode.Actions[t][i] = float32(seed*100 + t)
		}
	}
	return episode
}

func extractUIDs(datasetInfos []*vault.DatasetInfo) []string {
	uids := []string{}
	for _, datasetInfo := range datasetInfos {
		uids = append(uids, datasetInfo.UID)
	}
	return uids
}

// RunSuite runs the full store test suite
func RunSuite(t *testing.T, createStore func() vault.Store, destroyStore func(vault.Store)) {
	t.Run("TestCreateStore", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		assert.NotNil(t, s)
	})
	t.Run("TestCreateOrUpdateDatasets", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		err := s.CreateOrUpdateDatasets(context.Background(), []*vault.DatasetParams{
			{UID: "good", Descriptor: GenerateDescriptor(2, 4, 2)},
			{UID: "medium", Descriptor: GenerateDescriptor(2, 4, 2)},
			{UID: "poor", Descriptor: GenerateDescriptor(2, 4, 2)},
		})
		assert.NoError(t, err)

		datasetInfos, err := s.ListDatasets(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, []string{"good", "medium", "poor"}, extractUIDs(datasetInfos))
		for _, datasetInfo := range datasetInfos {
			assert.Equal(t, 0, datasetInfo.Episodes)
			assert.Equal(t, 0, datasetInfo.Steps)
			assert.Equal(t, 2, datasetInfo.Descriptor.NumAgents)
		}

		// Updating an existing dataset must not duplicate it nor change its rank
		err = s.CreateOrUpdateDatasets(context.Background(), []*vault.DatasetParams{
			{UID: "medium", Descriptor: GenerateDescriptor(2, 4, 2)},
		})
		assert.NoError(t, err)

		datasetInfos, err = s.ListDatasets(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, []string{"good", "medium", "poor"}, extractUIDs(datasetInfos))
	})
	t.Run("TestCreateDatasetInvalidDescriptor", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		err := s.CreateOrUpdateDatasets(context.Background(), []*vault.DatasetParams{
			{UID: "broken", Descriptor: &vault.Descriptor{NumAgents: 0, StateDim: 4, ActionDim: 2}},
		})
		assert.ErrorIs(t, err, vault.ErrInvalidInput)
	})
	t.Run("TestGetDatasets", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		descriptor := GenerateDescriptor(3, 6, 3)
		err := s.CreateOrUpdateDatasets(context.Background(), []*vault.DatasetParams{
			{UID: "good", Descriptor: descriptor},
		})
		require.NoError(t, err)

		paramsList, err := s.GetDatasets(context.Background(), []string{"good"})
		assert.NoError(t, err)
		require.Len(t, paramsList, 1)
		assert.Equal(t, "good", paramsList[0].UID)
		assert.Equal(t, descriptor, paramsList[0].Descriptor)

		_, err = s.GetDatasets(context.Background(), []string{"unknown"})
		assert.Error(t, err)
		assert.IsType(t, &vault.UnknownDatasetError{}, err)
	})
	t.Run("TestAddEpisodesAndReadExperience", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		descriptor := GenerateDescriptor(2, 4, 2)
		err := s.CreateOrUpdateDatasets(context.Background(), []*vault.DatasetParams{
			{UID: "good", Descriptor: descriptor},
		})
		require.NoError(t, err)

		first := GenerateEpisode(descriptor, 3, 1)
		second := GenerateEpisode(descriptor, 5, 2)
		err = s.AddEpisodes(context.Background(), "good", []*vault.Episode{first, second})
		assert.NoError(t, err)

		datasetInfos, err := s.ListDatasets(context.Background())
		assert.NoError(t, err)
		require.Len(t, datasetInfos, 1)
		assert.Equal(t, 2, datasetInfos[0].Episodes)
		assert.Equal(t, 8, datasetInfos[0].Steps)

		experience, err := s.ReadExperience(context.Background(), "good")
		assert.NoError(t, err)
		assert.Equal(t, 2, experience.NumAgents)
		assert.Equal(t, 8, experience.Steps())
		assert.Equal(t, first.Rewards[0], experience.Rewards[0])
		assert.Equal(t, second.Rewards[0], experience.Rewards[3])
		assert.Equal(t, second.States[4], experience.States[7])
		// Episode boundaries are preserved through concatenation
		assert.Equal(t, []bool{
			false, false, true,
			false, false, false, false, true,
		}, (&vault.Experience{
			NumAgents: experience.NumAgents,
			Rewards:   experience.Rewards,
			Terminals: experience.Terminals,
		}).JointTerminals())
	})
	t.Run("TestAddEpisodesUnknownDataset", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		descriptor := GenerateDescriptor(2, 4, 2)
		err := s.AddEpisodes(context.Background(), "unknown", []*vault.Episode{
			GenerateEpisode(descriptor, 3, 1),
		})
		assert.Error(t, err)
		assert.IsType(t, &vault.UnknownDatasetError{}, err)
	})
	t.Run("TestAddEpisodesShapeMismatch", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		descriptor := GenerateDescriptor(2, 4, 2)
		err := s.CreateOrUpdateDatasets(context.Background(), []*vault.DatasetParams{
			{UID: "good", Descriptor: descriptor},
		})
		require.NoError(t, err)

		mismatched := GenerateEpisode(GenerateDescriptor(2, 6, 2), 3, 1)
		err = s.AddEpisodes(context.Background(), "good", []*vault.Episode{mismatched})
		assert.ErrorIs(t, err, vault.ErrInvalidInput)

		// The rejected episode must not be partially stored
		datasetInfos, err := s.ListDatasets(context.Background())
		assert.NoError(t, err)
		require.Len(t, datasetInfos, 1)
		assert.Equal(t, 0, datasetInfos[0].Episodes)
	})
	t.Run("TestReadExperienceUnknownDataset", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		_, err := s.ReadExperience(context.Background(), "unknown")
		assert.Error(t, err)
		assert.IsType(t, &vault.UnknownDatasetError{}, err)
	})
	t.Run("TestDeleteDatasets", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		descriptor := GenerateDescriptor(2, 4, 2)
		paramsList := []*vault.DatasetParams{}
		for i := 0; i < 4; i++ {
			paramsList = append(paramsList, &vault.DatasetParams{
				UID:        fmt.Sprintf("dataset-%d", i),
				Descriptor: descriptor,
			})
		}
		err := s.CreateOrUpdateDatasets(context.Background(), paramsList)
		require.NoError(t, err)

		err = s.DeleteDatasets(context.Background(), []string{"dataset-1", "dataset-2"})
		assert.NoError(t, err)

		datasetInfos, err := s.ListDatasets(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, []string{"dataset-0", "dataset-3"}, extractUIDs(datasetInfos))

		_, err = s.ReadExperience(context.Background(), "dataset-1")
		assert.IsType(t, &vault.UnknownDatasetError{}, err)

		// Deleting an unknown dataset is a no-op
		err = s.DeleteDatasets(context.Background(), []string{"dataset-1", "unknown"})
		assert.NoError(t, err)
	})
}
