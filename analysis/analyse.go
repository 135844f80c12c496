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
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/openmarl/vaultscope/vault"
)

var log = logrus.WithField("component", "analysis")

// ExperienceSource provides the episode-batches to analyse, typically a vault.Store
type ExperienceSource interface {
	ReadExperience(ctx context.Context, uid string) (*vault.Experience, error)
}

type Options struct {
	// AgentIndex designates the agent whose reward column is accumulated
	AgentIndex int
	// ComputeCoverage additionally computes the SACO score of each dataset
	ComputeCoverage bool
	// Parallelism bounds the number of datasets analysed concurrently
	Parallelism int
	// SkipFailingUIDs drops failing datasets from the result instead of
	// aborting the whole run
	SkipFailingUIDs bool
}

var DefaultOptions = Options{
	AgentIndex:      0,
	ComputeCoverage: false,
	Parallelism:     1,
	SkipFailingUIDs: false,
}

// DatasetResult holds the analysis of one dataset
type DatasetResult struct {
	UID     string    `json:"uid"`
	Returns []float32 `json:"returns"`
	// Coverage is only set when Options.ComputeCoverage is enabled
	Coverage *float64 `json:"coverage,omitempty"`
}

// AnalyseVault computes the episode returns, and optionally the SACO score,
// of every given dataset. Results preserve the order UIDs were provided in,
// whatever the parallelism. Each dataset is pure and independent, a failing
// one either aborts the run or, with SkipFailingUIDs, is dropped from the
// result.
func AnalyseVault(
	ctx context.Context,
	source ExperienceSource,
	uids []string,
	options Options,
) ([]*DatasetResult, error) {
	slots := make([]*DatasetResult, len(uids))

	group, ctx := errgroup.WithContext(ctx)
	parallelism := options.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultOptions.Parallelism
	}
	group.SetLimit(parallelism)

	for idx, uid := range uids {
		idx, uid := idx, uid
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := analyseDataset(ctx, source, uid, options)
			if err != nil {
				// A cancelled run is never reported as a partial success
				if options.SkipFailingUIDs && ctx.Err() == nil {
					log.WithField("uid", uid).WithError(err).Warn("skipping failing dataset")
					return nil
				}
				return err
			}
			slots[idx] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	results := make([]*DatasetResult, 0, len(slots))
	for _, result := range slots {
		if result != nil {
			results = append(results, result)
		}
	}
	return results, nil
}

func analyseDataset(
	ctx context.Context,
	source ExperienceSource,
	uid string,
	options Options,
) (*DatasetResult, error) {
	experience, err := source.ReadExperience(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("unable to read the experience of dataset %q: %w", uid, err)
	}

	rewards, err := experience.AgentRewards(options.AgentIndex)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", uid, err)
	}

	returns, err := EpisodeReturns(rewards, experience.JointTerminals())
	if err != nil {
		return nil, fmt.Errorf("unable to compute the returns of dataset %q: %w", uid, err)
	}

	result := &DatasetResult{
		UID:     uid,
		Returns: returns,
	}

	if options.ComputeCoverage {
		coverage, err := StateActionCoverage(experience.States, experience.Actions)
		if err != nil {
			return nil, fmt.Errorf("unable to compute the coverage of dataset %q: %w", uid, err)
		}
		result.Coverage = &coverage
	}

	log.WithFields(logrus.Fields{
		"uid":      uid,
		"steps":    experience.Steps(),
		"episodes": len(returns),
	}).Debug("dataset analysed")

	return result, nil
}
