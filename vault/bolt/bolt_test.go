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

package bolt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmarl/vaultscope/vault"
	"github.com/openmarl/vaultscope/vault/test"
)

func TestSuiteBoltStore(t *testing.T) {
	test.RunSuite(t, func() vault.Store {
		// create and open a temporary file
		f, err := os.CreateTemp("", "vaultscope-bolt-test")
		assert.NoError(t, err)

		// close and remove the temporary file
		defer f.Close()

		s, err := CreateBoltStore(f.Name())
		assert.NoError(t, err)
		return s
	}, func(s vault.Store) {
		bs := s.(*boltStore)

		defer os.Remove(bs.filePath)
		defer bs.Destroy()
	})
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "vault.db")

	descriptor := test.GenerateDescriptor(2, 4, 2)
	episode := test.GenerateEpisode(descriptor, 4, 7)

	{
		s, err := CreateBoltStore(filePath)
		require.NoError(t, err)

		err = s.CreateOrUpdateDatasets(context.Background(), []*vault.DatasetParams{
			{UID: "good", Descriptor: descriptor},
		})
		require.NoError(t, err)
		err = s.AddEpisodes(context.Background(), "good", []*vault.Episode{episode})
		require.NoError(t, err)

		s.Destroy()
	}

	s, err := CreateBoltStore(filePath)
	require.NoError(t, err)
	defer s.Destroy()

	datasetInfos, err := s.ListDatasets(context.Background())
	assert.NoError(t, err)
	require.Len(t, datasetInfos, 1)
	assert.Equal(t, "good", datasetInfos[0].UID)
	assert.Equal(t, 1, datasetInfos[0].Episodes)
	assert.Equal(t, 4, datasetInfos[0].Steps)

	experience, err := s.ReadExperience(context.Background(), "good")
	assert.NoError(t, err)
	assert.Equal(t, episode.Rewards, experience.Rewards)
	assert.Equal(t, episode.Terminals, experience.Terminals)
	assert.Equal(t, episode.States, experience.States)
	assert.Equal(t, episode.Actions, experience.Actions)
}
