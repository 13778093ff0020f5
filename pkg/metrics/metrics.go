// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// protomapNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	protomapNamespace = "protomap"

	mapperSubsystem = "mapper"
	codecSubsystem  = "codec"

	messageLabelName   = "message"
	resultLabelName    = "result"
	directionLabelName = "direction"
)

// 结果与方向标签的取值。
const (
	EncodedLabel  = "encoded"
	CacheHitLabel = "cache_hit"
	DecodedLabel  = "decoded"
	FailedLabel   = "failed"

	InboundLabel  = "in"
	OutboundLabel = "out"
)

var (
	// sizeBuckets 为报文大小的桶划分，单位为字节。
	// [16 64 256 1024 4096 16384 65536 262144 1.048576e+06 4.194304e+06]
	sizeBuckets = prometheus.ExponentialBuckets(16, 4, 10)

	MapperExportTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: protomapNamespace,
			Subsystem: mapperSubsystem,
			Name:      "export_total",
			Help:      "导出次数，按消息名与结果（encoded/cache_hit/failed）区分",
		}, []string{messageLabelName, resultLabelName})

	MapperImportTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: protomapNamespace,
			Subsystem: mapperSubsystem,
			Name:      "import_total",
			Help:      "导入次数，按消息名与结果（decoded/failed）区分",
		}, []string{messageLabelName, resultLabelName})

	MapperEncodedBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: protomapNamespace,
			Subsystem: mapperSubsystem,
			Name:      "encoded_bytes",
			Help:      "实际编码产生的报文大小",
			Buckets:   sizeBuckets,
		}, []string{messageLabelName})

	CodecFrameTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: protomapNamespace,
			Subsystem: codecSubsystem,
			Name:      "frame_total",
			Help:      "编解码的帧数量，按方向与结果区分",
		}, []string{directionLabelName, resultLabelName})

	CodecFrameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: protomapNamespace,
			Subsystem: codecSubsystem,
			Name:      "frame_bytes",
			Help:      "帧体大小（不含长度前缀）",
			Buckets:   sizeBuckets,
		}, []string{directionLabelName})

	metricRegisterer prometheus.Registerer
	registerOnce     sync.Once
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标，重复调用只生效一次。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(MapperExportTotal)
		r.MustRegister(MapperImportTotal)
		r.MustRegister(MapperEncodedBytes)
		r.MustRegister(CodecFrameTotal)
		r.MustRegister(CodecFrameBytes)
		metricRegisterer = r
	})
}
