package cloudwatch

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-port-monitor/internal/domain"
	"github.com/couchcryptid/storm-port-monitor/internal/monitor"
)

type mockClient struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockClient) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func values(in *cloudwatch.PutMetricDataInput) map[string]float64 {
	out := make(map[string]float64, len(in.MetricData))
	for _, d := range in.MetricData {
		out[*d.MetricName] = *d.Value
	}
	return out
}

func TestReportCycle(t *testing.T) {
	client := &mockClient{}
	r := NewReporter(client, "StormPortMonitor", slog.New(slog.DiscardHandler))

	snap := &domain.BulletinSnapshot{Installations: map[string]domain.ThreatStatus{
		"MICT":  {IsThreatened: true},
		"Bauan": {IsThreatened: true},
		"VCT":   {},
	}}
	r.ReportCycle(context.Background(), monitor.CycleResult{
		ElevatedThreat: true,
		Snapshot:       snap,
		Published:      []domain.Notification{{Kind: domain.KindAlert}},
	}, false)

	require.Len(t, client.inputs, 1)
	assert.Equal(t, "StormPortMonitor", *client.inputs[0].Namespace)
	assert.Equal(t, map[string]float64{
		"CycleSkipped":            0,
		"CycleFailed":             0,
		"ElevatedThreat":          1,
		"NotificationsPublished":  1,
		"InstallationsThreatened": 2,
	}, values(client.inputs[0]))
}

func TestReportCycle_SkippedWithoutSnapshot(t *testing.T) {
	client := &mockClient{}
	r := NewReporter(client, "StormPortMonitor", slog.New(slog.DiscardHandler))

	r.ReportCycle(context.Background(), monitor.CycleResult{Skipped: true}, false)

	got := values(client.inputs[0])
	assert.InDelta(t, 1.0, got["CycleSkipped"], 0)
	assert.NotContains(t, got, "InstallationsThreatened")
}

func TestReportCycle_ErrorIsSwallowed(t *testing.T) {
	client := &mockClient{err: errors.New("access denied")}
	r := NewReporter(client, "StormPortMonitor", slog.New(slog.DiscardHandler))

	assert.NotPanics(t, func() {
		r.ReportCycle(context.Background(), monitor.CycleResult{}, true)
	})
	assert.Len(t, client.inputs, 1)
}
