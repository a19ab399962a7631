// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/couchcryptid/storm-port-monitor/internal/domain"
	"github.com/couchcryptid/storm-port-monitor/internal/state"
)

// Notifier kinds.
const (
	NotifierKafka = "kafka"
	NotifierMQTT  = "mqtt"
	NotifierSQS   = "sqs"
	NotifierLog   = "log"
)

// legacyForceVar is the older name of FORCE_FULL_CYCLE, still honoured.
const legacyForceVar = "FORCE_STATUS_REPORT"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	CatalogPath string `envconfig:"CATALOG_PATH"`

	WeatherFeedURL    string        `envconfig:"WEATHER_FEED_URL" default:"http://localhost:8000/weather/current" validate:"required,url"`
	EarthquakeFeedURL string        `envconfig:"EARTHQUAKE_FEED_URL" default:"http://localhost:8000/earthquakes/latest" validate:"omitempty,url"`
	FeedTimeout       time.Duration `envconfig:"FEED_TIMEOUT" default:"30s" validate:"gt=0"`
	FeedRetries       int           `envconfig:"FEED_RETRIES" default:"2" validate:"min=0,max=10"`

	StateBackend    string `envconfig:"STATE_BACKEND" default:"file" validate:"oneof=file redis postgres memory"`
	StateDir        string `envconfig:"STATE_DIR" default:"data" validate:"required_if=StateBackend file"`
	RedisAddr       string `envconfig:"REDIS_ADDR" default:"localhost:6379" validate:"required_if=StateBackend redis"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD"`
	RedisDB         int    `envconfig:"REDIS_DB" default:"0" validate:"min=0"`
	RedisKeyPrefix  string `envconfig:"REDIS_KEY_PREFIX" default:"storm-monitor:"`
	DatabaseURL     string `envconfig:"DATABASE_URL" validate:"required_if=StateBackend postgres"`
	ArchiveCompress bool   `envconfig:"ARCHIVE_COMPRESS" default:"false"`

	Notifier        string   `envconfig:"NOTIFIER" default:"kafka" validate:"oneof=kafka mqtt sqs log"`
	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092" validate:"required_if=Notifier kafka,dive,required"`
	KafkaTopic      string   `envconfig:"KAFKA_TOPIC" default:"storm-monitor-notifications" validate:"required_if=Notifier kafka"`
	MQTTBroker      string   `envconfig:"MQTT_BROKER" default:"tcp://localhost:1883" validate:"required_if=Notifier mqtt"`
	MQTTClientID    string   `envconfig:"MQTT_CLIENT_ID" default:"storm-port-monitor"`
	MQTTTopicPrefix string   `envconfig:"MQTT_TOPIC_PREFIX" default:"storm-monitor" validate:"required_if=Notifier mqtt"`
	MQTTUsername    string   `envconfig:"MQTT_USERNAME"`
	MQTTPassword    string   `envconfig:"MQTT_PASSWORD"`
	SQSQueueURL     string   `envconfig:"SQS_QUEUE_URL" validate:"required_if=Notifier sqs,omitempty,url"`

	// CloudWatchNamespace enables per-cycle CloudWatch metrics in the Lambda.
	CloudWatchNamespace string `envconfig:"CLOUDWATCH_NAMESPACE"`

	// ForceFullCycle runs every cycle regardless of cadence and forces a
	// status report.
	ForceFullCycle bool `envconfig:"FORCE_FULL_CYCLE" default:"false"`

	Policy PolicyConfig `envconfig:"POLICY"`
}

// PolicyConfig overrides the alerting thresholds. Variables are prefixed
// with POLICY_, e.g. POLICY_PROXIMITY_RADIUS_KM.
type PolicyConfig struct {
	ProximityRadiusKM   float64       `envconfig:"PROXIMITY_RADIUS_KM" default:"700" validate:"gt=0"`
	ETAHorizonHours     float64       `envconfig:"ETA_HORIZON_HOURS" default:"72" validate:"gt=0"`
	MaxApproachAngle    float64       `envconfig:"MAX_APPROACH_ANGLE" default:"90" validate:"gt=0,lte=180"`
	ETAChangeHours      float64       `envconfig:"ETA_CHANGE_HOURS" default:"3" validate:"gte=0"`
	ElevatedSignal      int           `envconfig:"ELEVATED_SIGNAL" default:"2" validate:"min=1,max=5"`
	EarthquakeThreshold float64       `envconfig:"EARTHQUAKE_THRESHOLD" default:"3.8" validate:"gt=0"`
	MagnitudeTolerance  float64       `envconfig:"MAGNITUDE_TOLERANCE" default:"0.2" validate:"gte=0"`
	ArchiveLimit        int           `envconfig:"ARCHIVE_LIMIT" default:"100" validate:"min=1"`
	StatusInterval      time.Duration `envconfig:"STATUS_INTERVAL" default:"12h" validate:"gt=0"`
	MorningHour         int           `envconfig:"MORNING_HOUR" default:"7" validate:"min=0,max=23"`
	EveningHour         int           `envconfig:"EVENING_HOUR" default:"19" validate:"max=23,gtfield=MorningHour"`
}

// Domain converts the overrides into a domain policy. Local time is always PHT.
func (p PolicyConfig) Domain() domain.Policy {
	return domain.Policy{
		ProximityRadiusKM:   p.ProximityRadiusKM,
		ETAHorizonHours:     p.ETAHorizonHours,
		MaxApproachAngle:    p.MaxApproachAngle,
		ETAChangeHours:      p.ETAChangeHours,
		ElevatedSignal:      p.ElevatedSignal,
		EarthquakeThreshold: p.EarthquakeThreshold,
		MagnitudeTolerance:  p.MagnitudeTolerance,
		ArchiveLimit:        p.ArchiveLimit,
		StatusInterval:      p.StatusInterval,
		MorningHour:         p.MorningHour,
		EveningHour:         p.EveningHour,
		Location:            domain.PHT,
	}
}

// StateOptions returns the persistence settings.
func (c *Config) StateOptions() state.Options {
	return state.Options{
		Kind: c.StateBackend,
		Dir:  c.StateDir,
		Redis: state.RedisOptions{
			Addr:      c.RedisAddr,
			Password:  c.RedisPassword,
			DB:        c.RedisDB,
			KeyPrefix: c.RedisKeyPrefix,
		},
		PostgresDSN:     c.DatabaseURL,
		CompressArchive: c.ArchiveCompress,
	}
}

// Load reads configuration from the environment and an optional .env file,
// applying defaults where unset. Existing environment variables win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		var perr *envconfig.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("invalid %s: %q", perr.KeyName, perr.Value)
		}
		return nil, fmt.Errorf("load config: %w", err)
	}

	if !cfg.ForceFullCycle {
		if v, ok := os.LookupEnv(legacyForceVar); ok && v != "" {
			force, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %q", legacyForceVar, v)
			}
			cfg.ForceFullCycle = force
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("envconfig")
	})

	err := v.Struct(cfg)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("invalid %s: %q fails %q", envName(fe.Namespace()), fmt.Sprint(fe.Value()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// envName turns a validator namespace such as "Config.POLICY.ARCHIVE_LIMIT"
// into the variable name POLICY_ARCHIVE_LIMIT.
func envName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	name := strings.Join(parts, "_")
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}
