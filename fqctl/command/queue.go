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
	"encoding/json"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func NewQueueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue sub-command",
		Short: "sub-commands for queue operations",
	}
	cmd.PersistentFlags().StringVar(&storageDir, "dir", "", "directory holding queue backing files")
	cmd.PersistentFlags().Uint64Var(&blockSize, "block-size", 0, "mapping-window size in bytes")
	cmd.PersistentFlags().Uint64Var(&maxSize, "max-size", 0, "maximum backing file size in bytes")
	cmd.PersistentFlags().Uint64Var(&initialCapacity, "initial-capacity", 0, "initial backing file size in bytes")
	cmd.PersistentFlags().BoolVar(&dropOldest, "drop-oldest", false, "discard the oldest records when the queue is full")
	cmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "redirect diagnostics to a rotating log file under this directory")
	cmd.PersistentFlags().String("format", "", "output format, plain or json")

	cmd.AddCommand(createQueueCommand())
	cmd.AddCommand(putRecordCommand())
	cmd.AddCommand(getRecordCommand())
	cmd.AddCommand(statQueueCommand())
	cmd.AddCommand(verifyQueueCommand())
	return cmd
}

func createQueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <queue-name>",
		Short: "create a queue backing file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			q := mustOpenQueue(cmd, args)
			defer q.Close()

			stat := q.Stat()
			if IsFormatJSON(cmd) {
				data, _ := json.Marshal(map[string]interface{}{
					"Result": "Create Success", "Queue": stat.Name, "Path": q.Path(),
				})
				color.Green(string(data))
			} else {
				t := table.NewWriter()
				t.AppendHeader(table.Row{"Result", "Queue", "Path", "Capacity"})
				t.AppendRow(table.Row{"Create Success", stat.Name, q.Path(), stat.Capacity})
				t.SetColumnConfigs([]table.ColumnConfig{
					{Number: 1, VAlign: text.VAlignMiddle, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
					{Number: 2, AlignHeader: text.AlignCenter},
				})
				t.SetOutputMirror(os.Stdout)
				t.Render()
			}
		},
	}
}

func putRecordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <queue-name>",
		Short: "append a record to a queue",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var payload []byte
			switch {
			case recordBody != "":
				payload = []byte(recordBody)
			case dataFile != "":
				data, err := os.ReadFile(dataFile)
				if err != nil {
					cmdFailedf(cmd, "read data file failed: %s", err)
				}
				payload = data
			default:
				cmdFailedf(cmd, "either --body or --data-file MUST be set")
			}

			q := mustOpenQueue(cmd, args)
			defer q.Close()

			ok, err := q.Enqueue(payload)
			if err != nil {
				cmdFailedf(cmd, "put record failed: %s", err)
			}
			if !ok {
				cmdFailedf(cmd, "queue is full, record rejected")
			}

			if IsFormatJSON(cmd) {
				data, _ := json.Marshal(map[string]interface{}{
					"Result": "Put Success", "Queue": args[0], "Bytes": len(payload),
				})
				color.Green(string(data))
			} else {
				t := table.NewWriter()
				t.AppendHeader(table.Row{"Result", "Queue", "Bytes"})
				t.AppendRow(table.Row{"Put Success", args[0], len(payload)})
				t.SetColumnConfigs([]table.ColumnConfig{
					{Number: 1, VAlign: text.VAlignMiddle, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
				})
				t.SetOutputMirror(os.Stdout)
				t.Render()
			}
		},
	}
	cmd.Flags().StringVar(&recordBody, "body", "", "record payload")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "file to read the record payload from")
	return cmd
}

func getRecordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <queue-name>",
		Short: "consume records from a queue",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			q := mustOpenQueue(cmd, args)
			defer q.Close()

			for i := 0; i < number; i++ {
				payload, err := q.Dequeue()
				if err != nil {
					cmdFailedf(cmd, "get record failed: %s", err)
				}
				if payload == nil {
					color.Yellow("queue is empty")
					return
				}
				if IsFormatJSON(cmd) {
					data, _ := json.Marshal(map[string]interface{}{
						"No.": i, "Body": string(payload),
					})
					color.Green(string(data))
				} else {
					color.White(string(payload))
				}
			}
		},
	}
	cmd.Flags().IntVar(&number, "num", 1, "number of records to consume")
	return cmd
}

func statQueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <queue-name>",
		Short: "show queue statistics",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			q := mustOpenQueue(cmd, args)
			defer q.Close()

			stat := q.Stat()
			if IsFormatJSON(cmd) {
				data, _ := json.Marshal(stat)
				color.Green(string(data))
			} else {
				t := table.NewWriter()
				t.AppendHeader(table.Row{"Queue", "Records", "Bytes", "Capacity", "Block Size", "Max Size"})
				t.AppendRow(table.Row{stat.Name, stat.Count, stat.Bytes, stat.Capacity, stat.BlockSize, stat.MaxSize})
				t.SetColumnConfigs([]table.ColumnConfig{
					{Number: 1, VAlign: text.VAlignMiddle, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
				})
				t.SetOutputMirror(os.Stdout)
				t.Render()
			}
		},
	}
}

func verifyQueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <queue-name>",
		Short: "verify the integrity of a queue backing file",
		Long: "verify opens the queue, which validates the header and walks " +
			"every live record checking framing and checksums.",
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			q := mustOpenQueue(cmd, args)
			defer q.Close()

			stat := q.Stat()
			if IsFormatJSON(cmd) {
				data, _ := json.Marshal(map[string]interface{}{
					"Result": "Verify Success", "Queue": stat.Name, "Records": stat.Count,
				})
				color.Green(string(data))
			} else {
				t := table.NewWriter()
				t.AppendHeader(table.Row{"Result", "Queue", "Records", "Bytes"})
				t.AppendRow(table.Row{"Verify Success", stat.Name, stat.Count, stat.Bytes})
				t.SetColumnConfigs([]table.ColumnConfig{
					{Number: 1, VAlign: text.VAlignMiddle, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
				})
				t.SetOutputMirror(os.Stdout)
				t.Render()
			}
		},
	}
}
