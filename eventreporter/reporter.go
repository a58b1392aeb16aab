// Package eventreporter builds Bugsnag error events from Go errors and
// delivers them to the notify endpoint.  Delivery is synchronous and best
// effort: a failed POST is logged and otherwise ignored so that reporting an
// error can never cause another one.
package eventreporter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// DefaultEndpoint is the Bugsnag notify endpoint
const DefaultEndpoint = "https://notify.bugsnag.com/"

// DefaultTimeout bounds a single delivery attempt
const DefaultTimeout = 10 * time.Second

var (
	// ErrMissingAPIKey is returned when a report is attempted without an API key
	ErrMissingAPIKey = errors.New("API key is not set; can't connect to Bugsnag to report an error")

	// ErrNilError is returned when Report is called with a nil error
	ErrNilError = errors.New("cannot report a nil error")
)

// Config is the reporter configuration
type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Provider returns extra data to attach to the event for err
type Provider func(err error) Metadata

// StaticProvider returns a provider that always attaches m
func StaticProvider(m map[string]interface{}) Provider {
	return func(error) Metadata {
		return Metadata(m)
	}
}

// Providers are the optional enrichment providers.  A nil provider leaves its
// key out of the event.
type Providers struct {
	User     Provider
	App      Provider
	Device   Provider
	MetaData Provider
}

// Reporter sends error events to Bugsnag
type Reporter struct {
	APIKey    string
	Endpoint  string
	Providers Providers
	Client    HTTPClient
}

// NewReporter creates a reporter from the config and providers
func NewReporter(config Config, providers Providers) *Reporter {
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Reporter{
		APIKey:    config.APIKey,
		Endpoint:  endpoint,
		Providers: providers,
		Client:    &http.Client{Timeout: timeout},
	}
}

// Report builds the payload for err and POSTs it.  The returned payload is
// what was (or would have been) sent.  The only errors returned are for a
// missing API key or a nil err; delivery failures are logged, never returned.
func (r *Reporter) Report(ctx context.Context, err error) (*Payload, error) {
	if r.APIKey == "" {
		log.Error(ErrMissingAPIKey)
		reportsTotal.WithLabelValues(outcomeMissingAPIKey).Inc()
		return nil, ErrMissingAPIKey
	}

	if err == nil {
		return nil, ErrNilError
	}

	payload := r.build(err, describe(err, 1))
	r.send(ctx, payload)

	return payload, nil
}

func (r *Reporter) build(err error, e Reportable) *Payload {
	trace := e.Trace()
	stacktrace := make([]Frame, 0, len(trace))
	for _, t := range trace {
		f := Frame{
			File:       t.File,
			LineNumber: t.Line,
			Method:     t.method(),
		}

		// some traces leave the location off the innermost frame
		if f.File == "" {
			f.File = e.File()
		}
		if f.LineNumber == 0 {
			f.LineNumber = e.Line()
		}

		stacktrace = append(stacktrace, f)
	}

	class := e.Class()
	event := Event{
		PayloadVersion: PayloadVersion,
		Exceptions: []Exception{
			{
				ErrorClass: class,
				Message:    e.Error(),
				Stacktrace: stacktrace,
			},
		},
		GroupingHash: class,
		User:         enrich(r.Providers.User, err),
		App:          enrich(r.Providers.App, err),
		Device:       enrich(r.Providers.Device, err),
		MetaData:     enrich(r.Providers.MetaData, err),
	}

	return &Payload{
		APIKey:   r.APIKey,
		Notifier: defaultNotifier(),
		Events:   []Event{event},
	}
}

func enrich(p Provider, err error) *Metadata {
	if p == nil {
		return nil
	}

	// a nil result is sent as null
	m := p(err)
	return &m
}

// send POSTs the payload, swallowing any failure
func (r *Reporter) send(ctx context.Context, payload *Payload) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warnf("failed to marshal payload into json, not reporting: %s", err)
		reportsTotal.WithLabelValues(outcomeDeliveryFailed).Inc()
		return
	}

	log.Debugf("Marshalled JSON body %s, creating new HTTP request", string(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(data))
	if err != nil {
		log.Warnf("failed to create request for %s: %s", r.Endpoint, err)
		reportsTotal.WithLabelValues(outcomeDeliveryFailed).Inc()
		return
	}

	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	timer := prometheus.NewTimer(deliveryDuration)
	res, err := client.Do(req)
	timer.ObserveDuration()
	if err != nil {
		log.Warnf("failed to deliver error report to %s: %s", r.Endpoint, err)
		reportsTotal.WithLabelValues(outcomeDeliveryFailed).Inc()
		return
	}

	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Debug(err)
		}
	}()

	if _, err := io.Copy(ioutil.Discard, res.Body); err != nil {
		log.Debugf("failed to drain response body: %s", err)
	}

	log.Debugln("Got response from POST:", res.StatusCode)

	if res.StatusCode > 299 {
		log.Warnf("got a non-success http response from POST to %s, %d", r.Endpoint, res.StatusCode)
		reportsTotal.WithLabelValues(outcomeDeliveryFailed).Inc()
		return
	}

	reportsTotal.WithLabelValues(outcomeSent).Inc()
}
