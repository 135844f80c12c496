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

import "context"

// DatasetParams holds what's needed to register a dataset in a store
type DatasetParams struct {
	UID        string
	Descriptor *Descriptor
}

// DatasetInfo describes one stored dataset
type DatasetInfo struct {
	UID        string
	Episodes   int
	Steps      int
	Descriptor *Descriptor
}

// Store defines the interface for a vault storage implementation.
// Datasets are identified by UID and listed in insertion order.
type Store interface {
	// CreateOrUpdateDatasets registers datasets, updating the descriptor of
	// the ones already present
	CreateOrUpdateDatasets(ctx context.Context, paramsList []*DatasetParams) error

	// ListDatasets retrieves the stored datasets in insertion order
	ListDatasets(ctx context.Context) ([]*DatasetInfo, error)

	// GetDatasets retrieves the registration params of the given datasets
	GetDatasets(ctx context.Context, uids []string) ([]*DatasetParams, error)

	// AddEpisodes appends complete episodes at the end of a dataset's batch
	AddEpisodes(ctx context.Context, uid string, episodes []*Episode) error

	// ReadExperience retrieves a dataset's full episode-batch, episodes
	// concatenated in insertion order
	ReadExperience(ctx context.Context, uid string) (*Experience, error)

	// DeleteDatasets removes datasets, unknown UIDs are ignored
	DeleteDatasets(ctx context.Context, uids []string) error

	// Destroy terminates the underlying storage
	Destroy()
}
