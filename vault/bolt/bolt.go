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
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/openmarl/vaultscope/vault"
)

var log = logrus.WithField("component", "vault/bolt")

type boltStore struct {
	db       *bolt.DB
	filePath string
}

// metadata holds the store-internal bookkeeping of one dataset
type metadata struct {
	DatasetIdx uint64
	Steps      int
}

// Bucket structure is
//	datasets	> {uid}	> episodes	> {episode_idx}	> {encoded episode}
//							> descriptor	> {yaml vault.Descriptor}
//							> metadata		> {boltStore.metadata}
//	dataset_indices	> dataset_idx	> {dataset_idx}	> {uid}

var datasetsBucketName = []byte("datasets")

func getDatasetsBucket(tx *bolt.Tx) *bolt.Bucket {
	datasetsBucket := tx.Bucket(datasetsBucketName)
	if datasetsBucket == nil {
		log.Fatal("datasets bucket doesn't exist")
	}
	return datasetsBucket
}

var episodesBucketName = []byte("episodes")

var descriptorKey = []byte("descriptor")

var metadataKey = []byte("metadata")

var indicesBucketName = []byte("dataset_indices")

var datasetsIdxBucketName = []byte("dataset_idx")

func getDatasetsIdxBucket(tx *bolt.Tx) *bolt.Bucket {
	indicesBucket := tx.Bucket(indicesBucketName)
	if indicesBucket == nil {
		log.Fatal("indices bucket doesn't exist")
	}
	datasetsIdxBucket := indicesBucket.Bucket(datasetsIdxBucketName)
	if datasetsIdxBucket == nil {
		log.Fatal("datasets idx bucket doesn't exist")
	}
	return datasetsIdxBucket
}

func serializeNumID(id uint64) []byte {
	// Format using a hex representation of a fixed length of 16 characters padded with 0
	return []byte(fmt.Sprintf("%016x", id))
}

func serializeUID(uid string) []byte {
	return []byte(uid)
}

func deserializeUID(value []byte) string {
	return string(value)
}

func serializeMetadata(metadata *metadata) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	err := enc.Encode(*metadata)
	if err != nil {
		return nil, vault.NewUnexpectedError("unable to serialize dataset metadata (%w)", err)
	}
	return buf.Bytes(), nil
}

func deserializeMetadata(v []byte) (*metadata, error) {
	dec := gob.NewDecoder(bytes.NewBuffer(v))
	metadata := &metadata{}
	err := dec.Decode(metadata)
	if err != nil {
		return nil, vault.NewUnexpectedError("unable to deserialize dataset metadata (%w)", err)
	}
	return metadata, nil
}

// CreateBoltStore creates a Store persisting datasets in a bolt-managed file
func CreateBoltStore(filePath string) (vault.Store, error) {
	db, err := bolt.Open(filePath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		// Opening of the file failed
		return nil, err
	}
	// Create the root buckets
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(datasetsBucketName)
		if err != nil {
			return vault.NewUnexpectedError("unable to create the datasets bucket (%w)", err)
		}
		indicesBucket, err := tx.CreateBucketIfNotExists(indicesBucketName)
		if err != nil {
			return vault.NewUnexpectedError("unable to create the dataset indices bucket (%w)", err)
		}
		_, err = indicesBucket.CreateBucketIfNotExists(datasetsIdxBucketName)
		if err != nil {
			return vault.NewUnexpectedError("unable to create the dataset idx bucket (%w)", err)
		}
		return nil
	})
	if err != nil {
		// Creation of the root buckets failed
		return nil, err
	}

	s := &boltStore{
		db:       db,
		filePath: filePath,
	}
	return s, nil
}

func (s *boltStore) Destroy() {
	s.db.Close()
	s.db = nil
}

func (s *boltStore) CreateOrUpdateDatasets(_ context.Context, paramsList []*vault.DatasetParams) error {
	for _, params := range paramsList {
		if err := params.Descriptor.Validate(); err != nil {
			return fmt.Errorf("dataset %q: %w", params.UID, err)
		}
	}

	err := s.db.Batch(func(tx *bolt.Tx) error {
		// Function must be idempotent as it might be called multiple times
		datasetsBucket := getDatasetsBucket(tx)
		datasetsIdxBucket := getDatasetsIdxBucket(tx)
		for _, params := range paramsList {
			uidKey := serializeUID(params.UID)
			datasetBucket := datasetsBucket.Bucket(uidKey)

			if datasetBucket == nil {
				// This is a new dataset, inserting its idx
				var err error
				datasetBucket, err = datasetsBucket.CreateBucket(uidKey)
				if err != nil {
					return vault.NewUnexpectedError("unable to add dataset %q bucket (%w)", params.UID, err)
				}

				datasetIdx, _ := datasetsIdxBucket.NextSequence()
				err = datasetsIdxBucket.Put(serializeNumID(datasetIdx), uidKey)
				if err != nil {
					return vault.NewUnexpectedError("unable to add dataset %q insertion index (%w)", params.UID, err)
				}

				_, err = datasetBucket.CreateBucket(episodesBucketName)
				if err != nil {
					return vault.NewUnexpectedError("unable to add dataset %q episodes bucket (%w)", params.UID, err)
				}

				metadataV, err := serializeMetadata(&metadata{DatasetIdx: datasetIdx, Steps: 0})
				if err != nil {
					return err
				}
				err = datasetBucket.Put(metadataKey, metadataV)
				if err != nil {
					return vault.NewUnexpectedError("unable to add dataset %q metadata (%w)", params.UID, err)
				}
			}

			// Insert / Update the descriptor
			descriptorV, err := vault.EncodeDescriptor(params.Descriptor)
			if err != nil {
				return err
			}
			err = datasetBucket.Put(descriptorKey, descriptorV)
			if err != nil {
				return vault.NewUnexpectedError("unable to add dataset %q descriptor (%w)", params.UID, err)
			}
		}
		return nil
	})
	if err != nil {
		// Error during the insertion
		return err
	}

	return nil
}

func (s *boltStore) ListDatasets(_ context.Context) ([]*vault.DatasetInfo, error) {
	datasetInfos := []*vault.DatasetInfo{}
	err := s.db.View(func(tx *bolt.Tx) error {
		datasetsBucket := getDatasetsBucket(tx)
		datasetsIdxBucket := getDatasetsIdxBucket(tx)

		c := datasetsIdxBucket.Cursor()
		for idxKey, uidKey := c.First(); idxKey != nil; idxKey, uidKey = c.Next() {
			uid := deserializeUID(uidKey)
			datasetBucket := datasetsBucket.Bucket(uidKey)
			if datasetBucket == nil {
				return vault.NewUnexpectedError("no bucket for dataset %q", uid)
			}

			descriptor, metadata, err := getDatasetEntries(datasetBucket, uid)
			if err != nil {
				return err
			}

			episodesBucket := datasetBucket.Bucket(episodesBucketName)
			if episodesBucket == nil {
				return vault.NewUnexpectedError("no episodes bucket for dataset %q", uid)
			}

			datasetInfos = append(datasetInfos, &vault.DatasetInfo{
				UID:        uid,
				Episodes:   episodesBucket.Stats().KeyN,
				Steps:      metadata.Steps,
				Descriptor: descriptor,
			})
		}
		return nil
	})
	if err != nil {
		return nil, vault.NewUnexpectedError("unable to list the stored datasets (%w)", err)
	}

	return datasetInfos, nil
}

func getDatasetEntries(datasetBucket *bolt.Bucket, uid string) (*vault.Descriptor, *metadata, error) {
	descriptorV := datasetBucket.Get(descriptorKey)
	if descriptorV == nil {
		return nil, nil, vault.NewUnexpectedError("no descriptor for dataset %q", uid)
	}
	descriptor, err := vault.DecodeDescriptor(descriptorV)
	if err != nil {
		return nil, nil, err
	}

	metadataV := datasetBucket.Get(metadataKey)
	if metadataV == nil {
		return nil, nil, vault.NewUnexpectedError("no metadata for dataset %q", uid)
	}
	metadata, err := deserializeMetadata(metadataV)
	if err != nil {
		return nil, nil, err
	}

	return descriptor, metadata, nil
}

func (s *boltStore) GetDatasets(_ context.Context, uids []string) ([]*vault.DatasetParams, error) {
	paramsList := []*vault.DatasetParams{}
	err := s.db.View(func(tx *bolt.Tx) error {
		datasetsBucket := getDatasetsBucket(tx)
		for _, uid := range uids {
			datasetBucket := datasetsBucket.Bucket(serializeUID(uid))
			if datasetBucket == nil {
				return &vault.UnknownDatasetError{UID: uid}
			}

			descriptor, _, err := getDatasetEntries(datasetBucket, uid)
			if err != nil {
				return err
			}

			paramsList = append(paramsList, &vault.DatasetParams{
				UID:        uid,
				Descriptor: descriptor,
			})
		}
		return nil
	})
	if err != nil {
		return []*vault.DatasetParams{}, err
	}

	return paramsList, nil
}

func (s *boltStore) AddEpisodes(_ context.Context, uid string, episodes []*vault.Episode) error {
	err := s.db.Batch(func(tx *bolt.Tx) error {
		// Function must be idempotent as it might be called multiple times
		datasetsBucket := getDatasetsBucket(tx)
		datasetBucket := datasetsBucket.Bucket(serializeUID(uid))
		if datasetBucket == nil {
			return &vault.UnknownDatasetError{UID: uid}
		}

		descriptor, metadata, err := getDatasetEntries(datasetBucket, uid)
		if err != nil {
			return err
		}

		episodesBucket := datasetBucket.Bucket(episodesBucketName)
		if episodesBucket == nil {
			return vault.NewUnexpectedError("no episodes bucket for dataset %q", uid)
		}

		for _, episode := range episodes {
			if err := descriptor.CheckEpisode(episode); err != nil {
				return fmt.Errorf("dataset %q: %w", uid, err)
			}

			episodeV, err := vault.EncodeEpisode(episode)
			if err != nil {
				return err
			}

			episodeIdx, _ := episodesBucket.NextSequence()
			err = episodesBucket.Put(serializeNumID(episodeIdx), episodeV)
			if err != nil {
				return vault.NewUnexpectedError("unable to put episode %d of dataset %q (%w)", episodeIdx, uid, err)
			}

			metadata.Steps += episode.Steps()
		}

		metadataV, err := serializeMetadata(metadata)
		if err != nil {
			return err
		}
		err = datasetBucket.Put(metadataKey, metadataV)
		if err != nil {
			return vault.NewUnexpectedError("unable to update dataset %q metadata (%w)", uid, err)
		}
		return nil
	})
	if err != nil {
		// Error during the insertion
		return err
	}

	return nil
}

func (s *boltStore) ReadExperience(_ context.Context, uid string) (*vault.Experience, error) {
	experience := &vault.Experience{}
	err := s.db.View(func(tx *bolt.Tx) error {
		datasetsBucket := getDatasetsBucket(tx)
		datasetBucket := datasetsBucket.Bucket(serializeUID(uid))
		if datasetBucket == nil {
			return &vault.UnknownDatasetError{UID: uid}
		}

		descriptor, _, err := getDatasetEntries(datasetBucket, uid)
		if err != nil {
			return err
		}
		experience.NumAgents = descriptor.NumAgents

		episodesBucket := datasetBucket.Bucket(episodesBucketName)
		if episodesBucket == nil {
			return vault.NewUnexpectedError("no episodes bucket for dataset %q", uid)
		}

		c := episodesBucket.Cursor()
		for episodeIdxKey, episodeV := c.First(); episodeIdxKey != nil; episodeIdxKey, episodeV = c.Next() {
			episode, err := vault.DecodeEpisode(episodeV)
			if err != nil {
				return fmt.Errorf("dataset %q: %w", uid, err)
			}
			experience.AppendEpisode(episode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return experience, nil
}

func (s *boltStore) DeleteDatasets(_ context.Context, uids []string) error {
	err := s.db.Batch(func(tx *bolt.Tx) error {
		// Function must be idempotent as it might be called multiple times
		datasetsBucket := getDatasetsBucket(tx)
		datasetsIdxBucket := getDatasetsIdxBucket(tx)
		for _, uid := range uids {
			uidKey := serializeUID(uid)
			datasetBucket := datasetsBucket.Bucket(uidKey)
			if datasetBucket == nil {
				// The dataset already doesn't exist
				continue
			}

			_, metadata, err := getDatasetEntries(datasetBucket, uid)
			if err != nil {
				return err
			}

			err = datasetsBucket.DeleteBucket(uidKey)
			if err != nil {
				return vault.NewUnexpectedError("unable to delete dataset %q bucket (%w)", uid, err)
			}

			err = datasetsIdxBucket.Delete(serializeNumID(metadata.DatasetIdx))
			if err != nil {
				return vault.NewUnexpectedError("unable to delete dataset %q idx (%w)", uid, err)
			}
		}
		return nil
	})
	if err != nil {
		// Error during the deletion
		return err
	}

	return nil
}
