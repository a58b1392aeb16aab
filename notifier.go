package main

import (
	"github.com/YaleSpinup/bugsnag-mini/common"
	"github.com/YaleSpinup/bugsnag-mini/eventreporter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// newHooks creates the reporter and its hook adapter from the configuration.
// Configured user/app/device/metaData maps are attached to every event.
func newHooks(config common.Config) (*eventreporter.Reporter, *eventreporter.HookAdapter, error) {
	timeout, err := config.ClientTimeout()
	if err != nil {
		return nil, nil, err
	}

	reportable := eventreporter.SeverityAll
	if len(config.ReportableSeverities) > 0 {
		reportable, err = eventreporter.ParseSeverityMask(config.ReportableSeverities)
		if err != nil {
			return nil, nil, errors.Wrap(err, "invalid reportableSeverities")
		}
	}

	fatal, err := eventreporter.ParseSeverityMask(config.FatalSeverities)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid fatalSeverities")
	}

	var providers eventreporter.Providers
	if config.User != nil {
		providers.User = eventreporter.StaticProvider(config.User)
	}
	if config.App != nil {
		providers.App = eventreporter.StaticProvider(config.App)
	}
	if config.Device != nil {
		providers.Device = eventreporter.StaticProvider(config.Device)
	}
	if config.MetaData != nil {
		providers.MetaData = eventreporter.StaticProvider(config.MetaData)
	}

	reporter := eventreporter.NewReporter(eventreporter.Config{
		APIKey:   config.APIKey,
		Endpoint: config.Endpoint,
		Timeout:  timeout,
	}, providers)

	log.Debugf("Reporting to %s, raising errors for %s, fatal at shutdown: %s", reporter.Endpoint, reportable, eventreporter.FatalSeverities|fatal)

	return reporter, eventreporter.NewHookAdapter(reporter, reportable, fatal), nil
}
