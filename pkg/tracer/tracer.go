// Package tracer 分布式链路追踪
package tracer

import (
	"io"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go/config"
)

// NewJaegerTracer creates a jaeger tracer reporting to agentHostPort and installs it as the global tracer.
// The caller closes the returned io.Closer on shutdown to flush pending spans.
// NewJaegerTracer 创建 jaeger tracer 并设为全局 tracer, 关闭时调用 io.Closer 刷新剩余 span
func NewJaegerTracer(serviceName, agentHostPort string, sampleRate float64) (opentracing.Tracer, io.Closer, error) {
	samplerType := "const"
	param := 1.0
	if sampleRate > 0 && sampleRate < 1 {
		samplerType = "probabilistic"
		param = sampleRate
	}
	cfg := &config.Configuration{
		ServiceName: serviceName,
		Sampler: &config.SamplerConfig{
			Type:  samplerType,
			Param: param,
		},
		Reporter: &config.ReporterConfig{
			LogSpans:            false,
			BufferFlushInterval: 1 * time.Second,
			LocalAgentHostPort:  agentHostPort,
		},
	}
	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return nil, nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}
