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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openmarl/vaultscope/vault"
	"github.com/openmarl/vaultscope/vault/bolt"
)

const (
	vaultDirKey  = "vault_dir"
	vaultNameKey = "vault_name"
)

const defaultVaultDir = "vaults"

// populateVaultFlags registers the vault location flags shared by the
// commands operating on a stored vault
func populateVaultFlags(cmd *cobra.Command, cfg *viper.Viper) {
	cfg.SetDefault(vaultDirKey, defaultVaultDir)
	_ = cfg.BindEnv(vaultDirKey, "VAULTSCOPE_VAULT_DIR")
	cmd.Flags().String(
		vaultDirKey,
		cfg.GetString(vaultDirKey),
		"Base directory holding the vaults",
	)

	_ = cfg.BindEnv(vaultNameKey, "VAULTSCOPE_VAULT_NAME")
	cmd.Flags().String(
		vaultNameKey,
		cfg.GetString(vaultNameKey),
		"Name of the vault to operate on",
	)
}

func vaultFilePath(cfg *viper.Viper) (string, error) {
	vaultName := cfg.GetString(vaultNameKey)
	if vaultName == "" {
		return "", fmt.Errorf("missing required argument \"--%s\"", vaultNameKey)
	}
	return filepath.Join(cfg.GetString(vaultDirKey), vaultName+".db"), nil
}

// openVault opens an existing vault store
func openVault(cfg *viper.Viper) (vault.Store, error) {
	filePath, err := vaultFilePath(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("no vault %q in %q", cfg.GetString(vaultNameKey), cfg.GetString(vaultDirKey))
	}
	return bolt.CreateBoltStore(filePath)
}

// openOrCreateVault opens a vault store, creating it if needed
func openOrCreateVault(cfg *viper.Viper) (vault.Store, error) {
	filePath, err := vaultFilePath(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("unable to create the vault directory: %w", err)
	}
	return bolt.CreateBoltStore(filePath)
}
