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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openmarl/vaultscope/cmd/utils"
	"github.com/openmarl/vaultscope/vault"
)

// exportViper represents the configuration of the export command
var exportViper = viper.New()

var exportFileKey = "file"
var exportUIDKey = "uid"

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a dataset from a vault to an episodes file",
	Args:  cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		err := configureLog(rootViper)
		if err != nil {
			return err
		}

		filePath := exportViper.GetString(exportFileKey)
		if filePath == "" {
			return fmt.Errorf("no episodes file provided")
		}
		uid := exportViper.GetString(exportUIDKey)
		if uid == "" {
			return fmt.Errorf("no dataset uid provided")
		}

		store, err := openVault(exportViper)
		if err != nil {
			return err
		}
		defer store.Destroy()

		ctx := utils.ContextWithUserTermination(context.Background())

		paramsList, err := store.GetDatasets(ctx, []string{uid})
		if err != nil {
			return err
		}

		experience, err := store.ReadExperience(ctx, uid)
		if err != nil {
			return err
		}

		file, err := os.Create(filePath)
		if err != nil {
			return fmt.Errorf("unable to create episodes file %q: %w", filePath, err)
		}
		defer file.Close()

		writer := vault.CreateEpisodesFileWriter(file)
		err = writer.WriteHeader(paramsList[0].Descriptor)
		if err != nil {
			return fmt.Errorf("unable to write the episodes file header: %w", err)
		}

		episodes := experience.SplitEpisodes()
		for _, episode := range episodes {
			err = writer.WriteEpisode(episode)
			if err != nil {
				return fmt.Errorf("unable to write an episode: %w", err)
			}
		}

		log.WithFields(logrus.Fields{
			"uid":      uid,
			"episodes": len(episodes),
			"bytes":    writer.Bytes,
			"file":     filePath,
		}).Info("dataset exported")
		return nil
	},
}

func init() {
	populateVaultFlags(exportCmd, exportViper)

	exportViper.SetDefault(exportFileKey, "")
	exportCmd.Flags().String(
		exportFileKey,
		exportViper.GetString(exportFileKey),
		"Path to the episodes file to create",
	)

	exportViper.SetDefault(exportUIDKey, "")
	exportCmd.Flags().String(
		exportUIDKey,
		exportViper.GetString(exportUIDKey),
		"UID of the dataset to export",
	)

	// Don't sort alphabetically, keep insertion order
	exportCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = exportViper.BindPFlags(exportCmd.Flags())
}
