// Package app wires configuration into a ready-to-run Monitor. Both the
// long-running service and the Lambda entrypoint build through here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	cwadapter "github.com/couchcryptid/storm-port-monitor/internal/adapter/cloudwatch"
	"github.com/couchcryptid/storm-port-monitor/internal/adapter/feed"
	kafkaadapter "github.com/couchcryptid/storm-port-monitor/internal/adapter/kafka"
	mqttadapter "github.com/couchcryptid/storm-port-monitor/internal/adapter/mqtt"
	sqsadapter "github.com/couchcryptid/storm-port-monitor/internal/adapter/sqs"
	"github.com/couchcryptid/storm-port-monitor/internal/catalog"
	"github.com/couchcryptid/storm-port-monitor/internal/config"
	"github.com/couchcryptid/storm-port-monitor/internal/monitor"
	"github.com/couchcryptid/storm-port-monitor/internal/observability"
	"github.com/couchcryptid/storm-port-monitor/internal/state"
)

// PublishCloser is a Publisher that holds a connection.
type PublishCloser interface {
	monitor.Publisher
	Close() error
}

// App is a wired Monitor and the resources it owns.
type App struct {
	Monitor   *monitor.Monitor
	Store     *state.Store
	Publisher PublishCloser
}

// Build loads the catalog, opens state, connects the notifier and assembles
// the monitor.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	store, err := state.Open(ctx, cfg.StateOptions())
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	publisher, err := NewPublisher(ctx, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client := feed.NewClient(feed.Options{
		WeatherURL:    cfg.WeatherFeedURL,
		EarthquakeURL: cfg.EarthquakeFeedURL,
		Timeout:       cfg.FeedTimeout,
		Retries:       cfg.FeedRetries,
	}, logger, metrics)

	opts := []monitor.Option{}
	if client.EarthquakesEnabled() {
		opts = append(opts, monitor.WithEarthquakes(client))
	}

	m := monitor.New(client, store, publisher, monitor.Settings{
		Installations: cat.DomainInstallations(),
		Resolver:      cat.Resolver(),
		Policy:        cfg.Policy.Domain(),
		// Covers every retry of one fetch plus backoff.
		FetchTimeout: cfg.FeedTimeout*time.Duration(cfg.FeedRetries+1) + time.Minute,
	}, logger, metrics, opts...)

	logger.Info("monitor assembled",
		"installations", len(cat.Installations),
		"state_backend", cfg.StateBackend,
		"notifier", cfg.Notifier,
		"earthquakes", client.EarthquakesEnabled(),
	)

	return &App{Monitor: m, Store: store, Publisher: publisher}, nil
}

// NewPublisher connects the configured notifier.
func NewPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (PublishCloser, error) {
	switch cfg.Notifier {
	case config.NotifierKafka:
		return kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger), nil
	case config.NotifierMQTT:
		p, err := mqttadapter.Connect(mqttadapter.Options{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTTopicPrefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.NotifierSQS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return sqsadapter.NewPublisher(awssqs.NewFromConfig(awsCfg), cfg.SQSQueueURL, logger), nil
	case config.NotifierLog:
		return monitor.NewLogPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}
}

// NewCycleReporter returns a CloudWatch reporter, or nil when
// CLOUDWATCH_NAMESPACE is unset.
func NewCycleReporter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cwadapter.Reporter, error) {
	if cfg.CloudWatchNamespace == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return cwadapter.NewReporter(awscloudwatch.NewFromConfig(awsCfg), cfg.CloudWatchNamespace, logger), nil
}

// Close releases the publisher and the state backend.
func (a *App) Close() error {
	return errors.Join(a.Publisher.Close(), a.Store.Close())
}
