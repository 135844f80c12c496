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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vaultscope",
	Short: "Inspect and analyse offline multi-agent RL trajectory vaults",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootViper.SetDefault(logLevelKey, logrus.InfoLevel.String())
	_ = rootViper.BindEnv(logLevelKey, "VAULTSCOPE_LOG_LEVEL")
	rootCmd.PersistentFlags().String(
		logLevelKey,
		rootViper.GetString(logLevelKey),
		fmt.Sprintf("Minimum logging level as one of %v", expectedLogLevels),
	)

	_ = rootViper.BindEnv(logFileKey, "VAULTSCOPE_LOG_FILE")
	rootCmd.PersistentFlags().String(
		logFileKey,
		rootViper.GetString(logFileKey),
		"Log file output",
	)

	_ = rootViper.BindEnv(logFormatKey, "VAULTSCOPE_LOG_FORMAT")
	rootCmd.PersistentFlags().String(
		logFormatKey,
		rootViper.GetString(logFormatKey),
		fmt.Sprintf(
			"Log format as one of %v, default is %q, when a log file is specified it is %q",
			expectedConsoleFormats, text, json,
		),
	)

	// Don't sort alphabetically, keep insertion order
	rootCmd.PersistentFlags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = rootViper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(analyseCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(versionCmd)
}
