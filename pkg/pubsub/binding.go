package pubsub

import (
	"context"
	"reflect"

	"github.com/DeBrosOfficial/channelhub/pkg/errors"
)

const (
	opConnect     = "connect"
	opPublish     = "publish"
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
)

// unboundTransport stands in until a transporter is configured. Every
// operation fails naming itself.
type unboundTransport struct{}

func (unboundTransport) Connect(context.Context, DeliverFunc) error {
	return errors.NewTransportNotConfiguredError(opConnect)
}

func (unboundTransport) Publish(context.Context, string, []byte) error {
	return errors.NewTransportNotConfiguredError(opPublish)
}

func (unboundTransport) Subscribe(context.Context, string) error {
	return errors.NewTransportNotConfiguredError(opSubscribe)
}

func (unboundTransport) Unsubscribe(context.Context, string) error {
	return errors.NewTransportNotConfiguredError(opUnsubscribe)
}

// checkTransporter reports why t cannot be bound, or nil if it can.
func checkTransporter(t Transporter) error {
	if t == nil {
		return errors.NewConfigurationError("transporter", "is required and has to be an object")
	}
	if v := reflect.ValueOf(t); v.Kind() == reflect.Ptr && v.IsNil() {
		return errors.NewConfigurationError("transporter", "is required and has to be an object")
	}

	var op string
	switch ft := t.(type) {
	case TransporterFuncs:
		op = ft.missingOperation()
	case *TransporterFuncs:
		op = ft.missingOperation()
	}
	if op != "" {
		return errors.NewConfigurationError("transporter", "requires a "+op+" function")
	}
	return nil
}

// wrapTransportErr passes stub errors through untouched; everything else
// coming out of a transport is wrapped with operation and channel.
func wrapTransportErr(op, wireChannel string, err error) error {
	if err == nil || errors.IsTransportNotConfigured(err) {
		return err
	}
	return errors.NewTransportError(op, wireChannel, err)
}
