package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const JobName = "traintracker"

// Push sends every registered metric to a Pushgateway. A one-shot command exits
// before any scraper could see it, so this is the only way the numbers leave the process.
func Push(url, instance string) error {
	err := push.New(url, JobName).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("instance", instance).
		Push()
	if err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
