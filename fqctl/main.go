// Copyright 2022 Linkall Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// fqctl is a command line application that inspects and drives fileq queues.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linkall-labs/fileq/fqctl/command"
)

const (
	cliName        = "fqctl"
	cliDescription = "the command-line tool for fileq"
)

var rootCmd = &cobra.Command{
	Use:        cliName,
	Short:      cliDescription,
	SuggestFor: []string{"fqctl"},
}

func init() {
	cobra.EnablePrefixMatching = true

	rootCmd.AddCommand(
		command.NewQueueCommand(),
	)
}

func main() {
	MustStart()
}

func Start() error {
	return rootCmd.Execute()
}

func MustStart() {
	if err := Start(); err != nil {
		fmt.Printf("fqctl error: %s", err)
		os.Exit(-1)
	}
}
