package publisher

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/taxistats/internal/config"
	"github.com/jgoulah/taxistats/pkg/models"
)

const publishTimeout = 10 * time.Second

// client is the part of mqtt.Client the publisher uses
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher sends analysis run summaries to an MQTT broker
type Publisher struct {
	client      client
	topicPrefix string
	retain      bool
}

// New connects to the configured broker
func New(cfg config.MQTTConfig, topicPrefix string) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "taxistats"
	}

	// Configure MQTT client options
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	// Create and connect client
	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("connecting to MQTT broker %s: timed out", cfg.Broker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return newWithClient(c, topicPrefix, cfg.Retain), nil
}

func newWithClient(c client, topicPrefix string, retain bool) *Publisher {
	if topicPrefix == "" {
		topicPrefix = "taxistats"
	}
	return &Publisher{client: c, topicPrefix: topicPrefix, retain: retain}
}

// RunPayload is the message published for each analysis run
type RunPayload struct {
	ID         string          `json:"id"`
	CreatedAt  string          `json:"created_at"`
	Source     string          `json:"source"`
	Rows       int             `json:"rows"`
	ADFStat    *float64        `json:"adf_stat,omitempty"`
	PValue     *float64        `json:"p_value,omitempty"`
	UsedLag    int             `json:"used_lag"`
	NObs       int             `json:"nobs"`
	ReportPath string          `json:"report_path,omitempty"`
	Summary    json.RawMessage `json:"summary,omitempty"`
}

// Publish sends the run to <prefix>/runs/<id> and updates the retained
// <prefix>/summary topic
func (p *Publisher) Publish(run models.AnalysisRun) error {
	body, err := json.Marshal(buildPayload(run))
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	if err := p.send(p.RunTopic(run.ID), p.retain, body); err != nil {
		return err
	}
	return p.send(p.SummaryTopic(), true, body)
}

// RunTopic returns the topic of a single run
func (p *Publisher) RunTopic(id string) string {
	return fmt.Sprintf("%s/runs/%s", p.topicPrefix, id)
}

// SummaryTopic returns the retained latest-summary topic
func (p *Publisher) SummaryTopic() string {
	return p.topicPrefix + "/summary"
}

func (p *Publisher) send(topic string, retained bool, body []byte) error {
	token := p.client.Publish(topic, 1, retained, body)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

func buildPayload(run models.AnalysisRun) RunPayload {
	payload := RunPayload{
		ID:         run.ID,
		CreatedAt:  run.CreatedAt.UTC().Format(time.RFC3339),
		Source:     run.Source,
		Rows:       run.Rows,
		UsedLag:    run.UsedLag,
		NObs:       run.NObs,
		ReportPath: run.ReportPath,
	}
	if !math.IsNaN(run.ADFStat) && !math.IsInf(run.ADFStat, 0) {
		v := run.ADFStat
		payload.ADFStat = &v
	}
	if !math.IsNaN(run.PValue) && !math.IsInf(run.PValue, 0) {
		v := run.PValue
		payload.PValue = &v
	}
	if run.Summary != "" && json.Valid([]byte(run.Summary)) {
		payload.Summary = json.RawMessage(run.Summary)
	}
	return payload
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
