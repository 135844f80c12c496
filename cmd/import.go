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
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openmarl/vaultscope/cmd/utils"
	"github.com/openmarl/vaultscope/vault"
)

// importViper represents the configuration of the import command
var importViper = viper.New()

var importFileKey = "file"
var importUIDKey = "uid"

// importEpisodesBatchSize is the number of episodes stored per AddEpisodes call
const importEpisodesBatchSize = 64

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a dataset from an episodes file into a vault",
	Args:  cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		err := configureLog(rootViper)
		if err != nil {
			return err
		}

		filePath := importViper.GetString(importFileKey)
		if filePath == "" {
			return fmt.Errorf("no episodes file provided")
		}
		uid := importViper.GetString(importUIDKey)
		if uid == "" {
			return fmt.Errorf("no dataset uid provided")
		}

		file, err := os.Open(filePath)
		if err != nil {
			return fmt.Errorf("unable to open episodes file %q: %w", filePath, err)
		}
		defer file.Close()

		store, err := openOrCreateVault(importViper)
		if err != nil {
			return err
		}
		defer store.Destroy()

		ctx := utils.ContextWithUserTermination(context.Background())

		reader := vault.CreateEpisodesFileReader(file)
		header, err := reader.ReadHeader()
		if err != nil {
			return fmt.Errorf("unable to read the episodes file header: %w", err)
		}

		err = store.CreateOrUpdateDatasets(ctx, []*vault.DatasetParams{
			{UID: uid, Descriptor: header.Descriptor},
		})
		if err != nil {
			return err
		}

		episodesCount := 0
		batch := []*vault.Episode{}
		for {
			episode, err := reader.ReadEpisode()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("unable to read an episode: %w", err)
			}
			batch = append(batch, episode)
			if len(batch) >= importEpisodesBatchSize {
				err = store.AddEpisodes(ctx, uid, batch)
				if err != nil {
					return err
				}
				episodesCount += len(batch)
				batch = batch[:0]
			}
		}
		if len(batch) > 0 {
			err = store.AddEpisodes(ctx, uid, batch)
			if err != nil {
				return err
			}
			episodesCount += len(batch)
		}

		log.WithFields(logrus.Fields{
			"uid":      uid,
			"episodes": episodesCount,
			"file":     filePath,
		}).Info("dataset imported")
		return nil
	},
}

func init() {
	populateVaultFlags(importCmd, importViper)

	importViper.SetDefault(importFileKey, "")
	importCmd.Flags().String(
		importFileKey,
		importViper.GetString(importFileKey),
		"Path to the episodes file to import",
	)

	importViper.SetDefault(importUIDKey, "")
	importCmd.Flags().String(
		importUIDKey,
		importViper.GetString(importUIDKey),
		"UID of the dataset to import into",
	)

	// Don't sort alphabetically, keep insertion order
	importCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = importViper.BindPFlags(importCmd.Flags())
}
