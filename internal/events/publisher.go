package events

import (
	"fmt"
	"net/url"
	"strings"
)

// New выбирает издателя по схеме адреса брокера:
// amqp:// и amqps:// - RabbitMQ, kafka://host:port[,host:port][/topic] - Kafka.
// Пустой адрес отключает публикацию.
func New(brokerURL string) (Publisher, error) {
	if brokerURL == "" {
		return NopPublisher{}, nil
	}

	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker url: %w", err)
	}

	switch u.Scheme {
	case "amqp", "amqps":
		exchange := u.Query().Get("exchange")
		q := u.Query()
		q.Del("exchange")
		u.RawQuery = q.Encode()
		p, err := DialRabbitMQ(u.String(), exchange)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "kafka":
		brokers, topic := parseKafkaURL(u)
		if len(brokers) == 0 {
			return nil, fmt.Errorf("kafka url %q has no brokers", brokerURL)
		}
		return NewKafkaPublisher(brokers, topic), nil
	}

	return nil, fmt.Errorf("unsupported broker scheme %q", u.Scheme)
}

func parseKafkaURL(u *url.URL) ([]string, string) {
	var brokers []string
	for _, host := range strings.Split(u.Host, ",") {
		if host = strings.TrimSpace(host); host != "" {
			brokers = append(brokers, host)
		}
	}
	return brokers, strings.Trim(u.Path, "/")
}
