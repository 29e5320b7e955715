// Package mqttpub bridges emitted samples onto an MQTT broker so
// shoreside or on-network consumers can follow the vessel feed without
// linking against the service.
package mqttpub

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"helmlink/internal/nmea"
)

type Config struct {
	// Broker is a paho URL, e.g. tcp://localhost:1883.
	Broker   string
	ClientID string
	Topic    string
}

// Publisher publishes one JSON-encoded sample per aggregation tick.
// Broker trouble is logged and otherwise ignored; reconnection is left
// to the paho client and the pipeline never blocks on it.
type Publisher struct {
	client mqtt.Client
	topic  string
	unsub  func()
}

func New(cfg Config, svc *nmea.Service) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "helmlink"
	}
	if cfg.Topic == "" {
		cfg.Topic = "helmlink/sample"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	client := mqtt.NewClient(opts)
	// Connect in the background; with retry enabled the token resolves
	// whenever the broker first becomes reachable.
	token := client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("mqtt connect failed broker=%s err=%v", cfg.Broker, err)
			return
		}
		log.Printf("mqtt connected broker=%s topic=%s", cfg.Broker, cfg.Topic)
	}()

	p := &Publisher{client: client, topic: cfg.Topic}
	p.unsub = svc.OnSample(p.publish)
	return p, nil
}

func (p *Publisher) publish(s nmea.Sample) {
	b, err := encodeSample(s)
	if err != nil {
		return
	}
	token := p.client.Publish(p.topic, 0, false, b)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("mqtt publish failed topic=%s err=%v", p.topic, err)
		}
	}()
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.unsub != nil {
		p.unsub()
	}
	p.client.Disconnect(250)
}

func encodeSample(s nmea.Sample) ([]byte, error) {
	return json.Marshal(s)
}
