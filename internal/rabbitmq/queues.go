package rabbitmq

// ExchangeLicenses - обмен для событий сверки лицензий.
const ExchangeLicenses = "licenses"

// Очереди и ключи маршрутизации обмена licenses.
const (
	QueueActivated    = "licenses.activated"
	QueueUnreconciled = "licenses.unreconciled"

	RoutingKeyActivated    = "activated"
	RoutingKeyUnreconciled = "unreconciled"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// LicenseQueues возвращает очереди, привязанные к обмену licenses.
func LicenseQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueActivated, RoutingKey: RoutingKeyActivated},
		{QueueName: QueueUnreconciled, RoutingKey: RoutingKeyUnreconciled},
	}
}
