package messaging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

// NewSinks arma el Fanout según EVENTS_SINKS. El closer cierra los writers/conexiones abiertos.
func NewSinks(cfg config.EventsConfig, log zerolog.Logger) (inventory.EventSink, func() error, error) {
	var (
		sinks   Fanout
		closers []io.Closer
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}

	for _, name := range cfg.Sinks {
		switch strings.ToLower(name) {
		case "log":
			sinks = append(sinks, NewLogSink(log))
		case "kafka":
			k := NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.PublishTimeout)
			sinks = append(sinks, k)
			closers = append(closers, k)
		case "amqp", "rabbitmq":
			a, err := DialAMQPSink(cfg.AMQPURL, cfg.AMQPExchange)
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			sinks = append(sinks, a)
			closers = append(closers, a)
		case "", "none":
		default:
			_ = closeAll()
			return nil, nil, fmt.Errorf("sink de eventos desconocido %q", name)
		}
	}
	return sinks, closeAll, nil
}
