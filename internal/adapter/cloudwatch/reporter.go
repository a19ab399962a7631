// Package cloudwatch emits per-cycle gauges to CloudWatch. The Lambda
// entrypoint has no scrape target, so it reports here instead of Prometheus.
package cloudwatch

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/couchcryptid/storm-port-monitor/internal/monitor"
)

// Client is the subset of *cloudwatch.Client the reporter uses.
type Client interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Reporter records cycle outcomes.
type Reporter struct {
	client    Client
	namespace string
	logger    *slog.Logger
}

// NewReporter creates a Reporter publishing under namespace.
func NewReporter(client Client, namespace string, logger *slog.Logger) *Reporter {
	return &Reporter{client: client, namespace: namespace, logger: logger}
}

// ReportCycle emits one datum per gauge. Failures are logged, never returned.
func (r *Reporter) ReportCycle(ctx context.Context, res monitor.CycleResult, failed bool) {
	data := []cwtypes.MetricDatum{
		count("CycleSkipped", res.Skipped),
		count("CycleFailed", failed),
		count("ElevatedThreat", res.ElevatedThreat),
		{
			MetricName: aws.String("NotificationsPublished"),
			Value:      aws.Float64(float64(len(res.Published))),
			Unit:       cwtypes.StandardUnitCount,
		},
	}
	if res.Snapshot != nil {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String("InstallationsThreatened"),
			Value:      aws.Float64(float64(res.Snapshot.ThreatenedCount())),
			Unit:       cwtypes.StandardUnitCount,
		})
	}

	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(r.namespace),
		MetricData: data,
	})
	if err != nil {
		r.logger.Error("failed to report cycle metrics", "error", err, "namespace", r.namespace)
	}
}

func count(name string, v bool) cwtypes.MetricDatum {
	value := 0.0
	if v {
		value = 1
	}
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       cwtypes.StandardUnitCount,
	}
}
