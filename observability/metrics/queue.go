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

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	moduleOfQueue = "queue"

	EnqueuedCounterVec = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfQueue,
		Name:      "enqueued_record_count",
		Help:      "Total records enqueued",
	}, []string{LabelQueue})

	EnqueuedBytesCounterVec = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfQueue,
		Name:      "enqueued_byte_count",
		Help:      "Total bytes enqueued, including framing",
	}, []string{LabelQueue})

	DequeuedCounterVec = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfQueue,
		Name:      "dequeued_record_count",
		Help:      "Total records dequeued",
	}, []string{LabelQueue})

	DequeuedBytesCounterVec = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfQueue,
		Name:      "dequeued_byte_count",
		Help:      "Total bytes dequeued, including framing",
	}, []string{LabelQueue})

	DroppedCounterVec = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfQueue,
		Name:      "dropped_record_count",
		Help:      "Total records discarded by the drop-oldest policy",
	}, []string{LabelQueue})

	RejectedCounterVec = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfQueue,
		Name:      "rejected_record_count",
		Help:      "Total enqueues rejected because the queue was full",
	}, []string{LabelQueue})

	QueueSizeGaugeVec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: moduleOfQueue,
		Name:      "record_count",
		Help:      "Live records in the queue",
	}, []string{LabelQueue})

	QueueBytesGaugeVec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: moduleOfQueue,
		Name:      "byte_count",
		Help:      "Live bytes in the queue, including framing",
	}, []string{LabelQueue})

	CapacityGaugeVec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: moduleOfQueue,
		Name:      "capacity_bytes",
		Help:      "Current ring-buffer capacity in bytes",
	}, []string{LabelQueue})

	MappedBlocksGaugeVec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: moduleOfQueue,
		Name:      "mapped_block_count",
		Help:      "Resident memory-mapped windows",
	}, []string{LabelQueue})
)
