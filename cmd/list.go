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
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtils "github.com/openmarl/vaultscope/cmd/utils"
	"github.com/openmarl/vaultscope/utils"
	"github.com/openmarl/vaultscope/vault"
)

// listViper represents the configuration of the list command
var listViper = viper.New()

var listUIDsKey = "uids"

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the datasets stored in a vault",
	Args:  cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		err := configureLog(rootViper)
		if err != nil {
			return err
		}

		outputFormat, err := retrieveOutputFormat(listViper)
		if err != nil {
			return err
		}

		store, err := openVault(listViper)
		if err != nil {
			return err
		}
		defer store.Destroy()

		ctx := cmdUtils.ContextWithUserTermination(context.Background())

		allInfos, err := store.ListDatasets(ctx)
		if err != nil {
			return err
		}

		filter := utils.NewUIDFilter(listViper.GetStringSlice(listUIDsKey))
		datasetInfos := []*vault.DatasetInfo{}
		for _, info := range allInfos {
			if filter.Selects(info.UID) {
				datasetInfos = append(datasetInfos, info)
			}
		}

		switch outputFormat {
		case text:
			renderDatasetsTable(datasetInfos, listViper.GetString(vaultNameKey))
		case json:
			type datasetRow struct {
				UID         string `json:"uid"`
				Environment string `json:"environment"`
				NumAgents   int    `json:"num_agents"`
				Episodes    int    `json:"episodes"`
				Steps       int    `json:"steps"`
			}
			rows := []datasetRow{}
			for _, info := range datasetInfos {
				rows = append(rows, datasetRow{
					UID:         info.UID,
					Environment: info.Descriptor.Environment,
					NumAgents:   info.Descriptor.NumAgents,
					Episodes:    info.Episodes,
					Steps:       info.Steps,
				})
			}
			err := renderJSON(rows)
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func renderDatasetsTable(datasetInfos []*vault.DatasetInfo, vaultName string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetBorder(false)
	table.SetHeader([]string{"uid", "environment", "agents", "episodes", "steps"})
	for _, info := range datasetInfos {
		table.Append([]string{
			info.UID,
			info.Descriptor.Environment,
			fmt.Sprintf("%d", info.Descriptor.NumAgents),
			fmt.Sprintf("%d", info.Episodes),
			fmt.Sprintf("%d", info.Steps),
		})
	}
	table.SetCaption(true, fmt.Sprintf("%d datasets in vault %q", len(datasetInfos), vaultName))
	table.Render()
}

func init() {
	populateVaultFlags(listCmd, listViper)

	listViper.SetDefault(listUIDsKey, []string{})
	listCmd.Flags().StringSlice(
		listUIDsKey,
		listViper.GetStringSlice(listUIDsKey),
		"Dataset UIDs to list, defaults to every dataset in the vault",
	)

	populateOutputFlag(listCmd, listViper)

	// Don't sort alphabetically, keep insertion order
	listCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = listViper.BindPFlags(listCmd.Flags())
}
