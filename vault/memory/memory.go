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

package memory

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/openmarl/vaultscope/vault"
)

var log = logrus.WithField("component", "vault/memory")

type datasetData struct {
	descriptor *vault.Descriptor
	episodes   []*vault.Episode
	steps      int
}

type memoryStore struct {
	datasets *lru.Cache // uid -> *datasetData
	order    []string   // dataset UIDs in insertion order
	mutex    sync.Mutex
}

var DefaultMaxDatasets = 256

// CreateMemoryStore creates a Store holding at most maxDatasets datasets in
// memory, evicting the least recently used one beyond that
func CreateMemoryStore(maxDatasets int) (vault.Store, error) {
	store := &memoryStore{}
	// The eviction callback runs synchronously within cache mutations, which
	// all happen with the store mutex held, it must not lock it again
	datasets, err := lru.NewWithEvict(maxDatasets, func(key interface{}, _ interface{}) {
		uid := key.(string)
		for i, orderedUID := range store.order {
			if orderedUID == uid {
				store.order = append(store.order[:i], store.order[i+1:]...)
				break
			}
		}
	})
	if err != nil {
		return nil, err
	}
	store.datasets = datasets
	return store, nil
}

// Destroy terminates the underlying storage
func (s *memoryStore) Destroy() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.datasets.Purge()
}

func (s *memoryStore) CreateOrUpdateDatasets(_ context.Context, paramsList []*vault.DatasetParams) error {
	for _, params := range paramsList {
		if err := params.Descriptor.Validate(); err != nil {
			return fmt.Errorf("dataset %q: %w", params.UID, err)
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, params := range paramsList {
		if dataV, ok := s.datasets.Get(params.UID); ok {
			data := dataV.(*datasetData)
			data.descriptor = params.Descriptor
			continue
		}
		s.order = append(s.order, params.UID)
		evicted := s.datasets.Add(params.UID, &datasetData{descriptor: params.Descriptor})
		if evicted {
			log.WithField("added_uid", params.UID).Debug("least recently used dataset evicted")
		}
	}
	return nil
}

func (s *memoryStore) ListDatasets(_ context.Context) ([]*vault.DatasetInfo, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	datasetInfos := []*vault.DatasetInfo{}
	for _, uid := range s.order {
		// Peek to not disturb the eviction ordering
		dataV, ok := s.datasets.Peek(uid)
		if !ok {
			return nil, vault.NewUnexpectedError("no data for listed dataset %q", uid)
		}
		data := dataV.(*datasetData)
		datasetInfos = append(datasetInfos, &vault.DatasetInfo{
			UID:        uid,
			Episodes:   len(data.episodes),
			Steps:      data.steps,
			Descriptor: data.descriptor,
		})
	}
	return datasetInfos, nil
}

func (s *memoryStore) GetDatasets(_ context.Context, uids []string) ([]*vault.DatasetParams, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	paramsList := []*vault.DatasetParams{}
	for _, uid := range uids {
		dataV, ok := s.datasets.Get(uid)
		if !ok {
			return []*vault.DatasetParams{}, &vault.UnknownDatasetError{UID: uid}
		}
		data := dataV.(*datasetData)
		paramsList = append(paramsList, &vault.DatasetParams{
			UID:        uid,
			Descriptor: data.descriptor,
		})
	}
	return paramsList, nil
}

func (s *memoryStore) AddEpisodes(_ context.Context, uid string, episodes []*vault.Episode) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dataV, ok := s.datasets.Get(uid)
	if !ok {
		return &vault.UnknownDatasetError{UID: uid}
	}
	data := dataV.(*datasetData)

	for _, episode := range episodes {
		if err := data.descriptor.CheckEpisode(episode); err != nil {
			return fmt.Errorf("dataset %q: %w", uid, err)
		}
	}
	for _, episode := range episodes {
		data.episodes = append(data.episodes, episode)
		data.steps += episode.Steps()
	}
	return nil
}

func (s *memoryStore) ReadExperience(_ context.Context, uid string) (*vault.Experience, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dataV, ok := s.datasets.Get(uid)
	if !ok {
		return nil, &vault.UnknownDatasetError{UID: uid}
	}
	data := dataV.(*datasetData)

	experience := &vault.Experience{NumAgents: data.descriptor.NumAgents}
	for _, episode := range data.episodes {
		experience.AppendEpisode(episode)
	}
	return experience, nil
}

func (s *memoryStore) DeleteDatasets(_ context.Context, uids []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, uid := range uids {
		// Remove triggers the eviction callback which maintains the ordering
		s.datasets.Remove(uid)
	}
	return nil
}
