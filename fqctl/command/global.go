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

package command

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linkall-labs/fileq/queue"
)

const FormatJSON = "json"

func IsFormatJSON(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetString("format")
	if err != nil {
		return false
	}
	return strings.ToLower(v) == FormatJSON
}

// queueOptions translates the persistent flags into queue options,
// leaving unset flags to the library defaults.
func queueOptions() []queue.Option {
	var opts []queue.Option
	if storageDir != "" {
		opts = append(opts, queue.WithStorageDir(storageDir))
	}
	if blockSize != 0 {
		opts = append(opts, queue.WithBlockSize(blockSize))
	}
	if maxSize != 0 {
		opts = append(opts, queue.WithMaxSize(maxSize))
	}
	if initialCapacity != 0 {
		opts = append(opts, queue.WithInitialCapacity(initialCapacity))
	}
	if dropOldest {
		opts = append(opts, queue.WithDropOldestWhenFull())
	}
	if logDir != "" {
		opts = append(opts, queue.WithLogDir(logDir))
	}
	return opts
}

func mustOpenQueue(cmd *cobra.Command, args []string) *queue.Queue {
	if len(args) == 0 || args[0] == "" {
		cmdFailedf(cmd, "the queue name MUST be given")
	}
	q, err := queue.New(context.Background(), args[0], queueOptions()...)
	if err != nil {
		cmdFailedf(cmd, "open queue failed: %s", err)
	}
	return q
}
