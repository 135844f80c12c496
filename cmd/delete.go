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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openmarl/vaultscope/cmd/utils"
)

// deleteViper represents the configuration of the delete command
var deleteViper = viper.New()

var deleteUIDsKey = "uids"

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete datasets from a vault",
	Args:  cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		err := configureLog(rootViper)
		if err != nil {
			return err
		}

		uids := deleteViper.GetStringSlice(deleteUIDsKey)
		if len(uids) == 0 {
			return fmt.Errorf("no dataset uids provided")
		}

		store, err := openVault(deleteViper)
		if err != nil {
			return err
		}
		defer store.Destroy()

		ctx := utils.ContextWithUserTermination(context.Background())

		err = store.DeleteDatasets(ctx, uids)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"uids": uids,
		}).Info("datasets deleted")
		return nil
	},
}

func init() {
	populateVaultFlags(deleteCmd, deleteViper)

	deleteViper.SetDefault(deleteUIDsKey, []string{})
	deleteCmd.Flags().StringSlice(
		deleteUIDsKey,
		deleteViper.GetStringSlice(deleteUIDsKey),
		"UIDs of the datasets to delete",
	)

	// Don't sort alphabetically, keep insertion order
	deleteCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = deleteViper.BindPFlags(deleteCmd.Flags())
}
