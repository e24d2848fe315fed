package application

import (
	"log/slog"

	"ccdemo/contexts/streaming/word-pipeline/ports"
)

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func ResolveMetrics(metrics ports.PipelineMetrics) ports.PipelineMetrics {
	if metrics != nil {
		return metrics
	}
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) WordPublished()  {}
func (noopMetrics) WordPersisted()  {}
func (noopMetrics) MessageSkipped() {}
func (noopMetrics) PageServed(int)  {}
