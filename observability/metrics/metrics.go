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

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "fileq"
)

func RegisterQueueMetrics() {
	prometheus.MustRegister(EnqueuedCounterVec)
	prometheus.MustRegister(EnqueuedBytesCounterVec)
	prometheus.MustRegister(DequeuedCounterVec)
	prometheus.MustRegister(DequeuedBytesCounterVec)
	prometheus.MustRegister(DroppedCounterVec)
	prometheus.MustRegister(RejectedCounterVec)
	prometheus.MustRegister(QueueSizeGaugeVec)
	prometheus.MustRegister(QueueBytesGaugeVec)
	prometheus.MustRegister(CapacityGaugeVec)
	prometheus.MustRegister(MappedBlocksGaugeVec)
}
