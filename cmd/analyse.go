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

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openmarl/vaultscope/analysis"
	"github.com/openmarl/vaultscope/cmd/utils"
	"github.com/openmarl/vaultscope/version"
)

// analyseViper represents the configuration of the analyse command
var analyseViper = viper.New()

var analyseUIDsKey = "uids"
var analyseAgentKey = "agent"
var analyseSacoKey = "saco"
var analyseParallelismKey = "parallelism"
var analyseSkipFailingKey = "skip_failing"

// analyseCmd represents the analyse command
var analyseCmd = &cobra.Command{
	Use:     "analyse",
	Aliases: []string{"analyze"},
	Short:   "Compute the episode returns of each dataset in a vault",
	Args:    cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		err := configureLog(rootViper)
		if err != nil {
			return err
		}

		outputFormat, err := retrieveOutputFormat(analyseViper)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"version": version.Version,
			"hash":    version.Hash,
		}).Debug("starting the vault analysis")

		store, err := openVault(analyseViper)
		if err != nil {
			return err
		}
		defer store.Destroy()

		ctx := utils.ContextWithUserTermination(context.Background())

		uids := analyseViper.GetStringSlice(analyseUIDsKey)
		if len(uids) == 0 {
			// Default to every stored dataset, in insertion order
			datasetInfos, err := store.ListDatasets(ctx)
			if err != nil {
				return err
			}
			for _, datasetInfo := range datasetInfos {
				uids = append(uids, datasetInfo.UID)
			}
		}

		options := analysis.Options{
			AgentIndex:      analyseViper.GetInt(analyseAgentKey),
			ComputeCoverage: analyseViper.GetBool(analyseSacoKey),
			Parallelism:     analyseViper.GetInt(analyseParallelismKey),
			SkipFailingUIDs: analyseViper.GetBool(analyseSkipFailingKey),
		}

		results, err := analysis.AnalyseVault(ctx, store, uids, options)
		if err != nil {
			if ctx.Err() == context.Canceled {
				log.Info("interrupted by user")
				return nil
			}
			return err
		}

		switch outputFormat {
		case text:
			renderAnalysisTable(results, options.ComputeCoverage, analyseViper.GetString(vaultNameKey))
		case json:
			err := renderJSON(results)
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func renderAnalysisTable(results []*analysis.DatasetResult, withCoverage bool, vaultName string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetBorder(false)
	header := []string{"uid", "episodes", "mean", "std dev", "min", "max"}
	if withCoverage {
		header = append(header, "saco")
	}
	table.SetHeader(header)
	for _, result := range results {
		summary := analysis.Summarize(result.Returns)
		row := []string{
			result.UID,
			fmt.Sprintf("%d", summary.Episodes),
			fmt.Sprintf("%.3f", summary.Mean),
			fmt.Sprintf("%.3f", summary.StdDev),
			fmt.Sprintf("%.3f", summary.Min),
			fmt.Sprintf("%.3f", summary.Max),
		}
		if withCoverage && result.Coverage != nil {
			row = append(row, fmt.Sprintf("%.4f", *result.Coverage))
		}
		table.Append(row)
	}
	table.SetCaption(true, fmt.Sprintf("%d datasets analysed from vault %q", len(results), vaultName))
	table.Render()
}

func init() {
	populateVaultFlags(analyseCmd, analyseViper)

	analyseViper.SetDefault(analyseUIDsKey, []string{})
	analyseCmd.Flags().StringSlice(
		analyseUIDsKey,
		analyseViper.GetStringSlice(analyseUIDsKey),
		"Dataset UIDs to analyse, defaults to every dataset in the vault",
	)

	analyseViper.SetDefault(analyseAgentKey, analysis.DefaultOptions.AgentIndex)
	analyseCmd.Flags().Int(
		analyseAgentKey,
		analyseViper.GetInt(analyseAgentKey),
		"Index of the designated agent whose rewards are accumulated",
	)

	analyseViper.SetDefault(analyseSacoKey, analysis.DefaultOptions.ComputeCoverage)
	analyseCmd.Flags().Bool(
		analyseSacoKey,
		analyseViper.GetBool(analyseSacoKey),
		"Additionally compute the state-action coverage (SACO) of each dataset",
	)

	analyseViper.SetDefault(analyseParallelismKey, analysis.DefaultOptions.Parallelism)
	analyseCmd.Flags().Int(
		analyseParallelismKey,
		analyseViper.GetInt(analyseParallelismKey),
		"Number of datasets analysed concurrently",
	)

	analyseViper.SetDefault(analyseSkipFailingKey, analysis.DefaultOptions.SkipFailingUIDs)
	analyseCmd.Flags().Bool(
		analyseSkipFailingKey,
		analyseViper.GetBool(analyseSkipFailingKey),
		"Skip the datasets failing to analyse instead of aborting",
	)

	populateOutputFlag(analyseCmd, analyseViper)

	// Don't sort alphabetically, keep insertion order
	analyseCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = analyseViper.BindPFlags(analyseCmd.Flags())
}
