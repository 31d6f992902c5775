// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"net/http"
	"strings"

	"github.com/matta/elisa/internal/apierr"
	"github.com/matta/elisa/internal/config"
	"github.com/matta/elisa/internal/elisa"
	"github.com/matta/elisa/internal/elisahttp"
	"github.com/matta/elisa/internal/logging"
	"github.com/matta/elisa/internal/transport"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the state shared by the subcommands.
type app struct {
	configFile string

	cfg *config.Config
	log *zap.SugaredLogger
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return errors.Wrap(err, "unable to load configuration")
	}
	log, err := logging.New(cfg.Verbosity, cfg.LogFile)
	if err != nil {
		return errors.Wrap(err, "unable to initialize logging")
	}
	a.cfg = cfg
	a.log = log.With("command", cmd.Name())
	return nil
}

func (a *app) close() {
	if a.log != nil {
		a.log.Sync()
	}
}

func (a *app) httpClient() (*http.Client, error) {
	opts := elisahttp.Options{
		SSOCookieFile:      a.cfg.SSOCookie,
		TokenCommand:       a.cfg.TokenCommand,
		InsecureSkipVerify: a.cfg.InsecureSkipVerify,
		Trace:              a.cfg.Trace,
		Log:                a.log,
	}
	if opts.SSOCookieFile == "" && opts.TokenCommand == "" {
		user, password := a.cfg.Credentials()
		if user != "" && password == "" {
			return nil, apierr.Argumentf("no password for user %s: use --%s USERNAME:PASSWORD or ELISA_PASSWORD",
				user, config.Flags[config.LDAPKey])
		}
		opts.User, opts.Password = user, password
	}
	client, err := elisahttp.New(opts)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize HTTP client")
	}
	return client, nil
}

// client returns a client of the REST API at connection.
func (a *app) client(connection string) (*elisa.Client, error) {
	hc, err := a.httpClient()
	if err != nil {
		return nil, err
	}
	return elisa.New(connection, transport.New(hc, a.log),
		elisa.WithLogger(a.log),
		elisa.WithRateLimit(a.cfg.RateLimit),
	), nil
}

// logbook returns a client of the configured logbook.
func (a *app) logbook() (*elisa.Client, error) {
	return a.client(a.cfg.Connection())
}

// splitList splits a comma separated list, dropping blank items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
