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

	jsonEncoding "encoding/json"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const outputKey = "output"

// populateOutputFlag registers the console output format flag of the
// commands rendering results
func populateOutputFlag(cmd *cobra.Command, cfg *viper.Viper) {
	cfg.SetDefault(outputKey, string(text))
	cmd.Flags().String(
		outputKey,
		cfg.GetString(outputKey),
		fmt.Sprintf("Console output format as one of %v", expectedConsoleFormats),
	)
}

func retrieveOutputFormat(cfg *viper.Viper) (consoleFormat, error) {
	cfgOutputFormat := consoleFormat(cfg.GetString(outputKey))
	if !isValidConsoleFormat(cfgOutputFormat) {
		return consoleFormat("invalid"), fmt.Errorf(
			"invalid output format specified %q expecting one of %v",
			cfgOutputFormat,
			expectedConsoleFormats,
		)
	}
	return cfgOutputFormat, nil
}

func renderJSON(message interface{}) error {
	serializedMessage, err := jsonEncoding.Marshal(message)
	if err != nil {
		return err
	}

	fmt.Println(string(serializedMessage))
	return nil
}
