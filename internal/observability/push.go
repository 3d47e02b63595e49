package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushMetrics sends the default registry to a Prometheus Pushgateway under job.
// Short-lived programs use it in place of a scrape endpoint.
func PushMetrics(ctx context.Context, url, job string) error {
	RegisterMetrics()

	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
