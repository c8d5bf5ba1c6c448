// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
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
	"time"

	"github.com/spf13/cobra"

	"github.com/packetd/ccsds/agent"
	"github.com/packetd/ccsds/common"
	"github.com/packetd/ccsds/confengine"
	"github.com/packetd/ccsds/internal/sigs"
	"github.com/packetd/ccsds/logger"
)

var runConfigPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the demultiplexer agent against a configured transport",
	Run: func(cmd *cobra.Command, args []string) {
		conf, err := confengine.LoadConfigPath(runConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		a, err := agent.New(conf, common.BuildInfo{Version: version, GitHash: gitHash, Time: buildTime})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create agent: %v\n", err)
			os.Exit(1)
		}
		if err := a.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start agent: %v\n", err)
			os.Exit(1)
		}

		var reloadTotal int
		for {
			select {
			case <-sigs.Terminate():
				a.Stop()
				return

			case <-sigs.Reload():
				reloadTotal++
				conf, err := confengine.LoadConfigPath(runConfigPath)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to load config (count=%d): %v\n", reloadTotal, err)
					continue
				}

				start := time.Now()
				if err := a.Reload(conf); err != nil {
					logger.Errorf("failed to reload config: %v", err)
				}
				logger.Infof("reload (count=%d) took %s", reloadTotal, time.Since(start))
			}
		}
	},
	Example: "# ccsds-demux run --config ccsds.yaml",
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "ccsds.yaml", "Configuration file path")
	rootCmd.AddCommand(runCmd)
}
