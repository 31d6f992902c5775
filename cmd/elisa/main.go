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

// The elisa command reads and writes the messages of an ELisA logbook,
// and pulls them into a local archive.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/matta/elisa/internal/config"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "elisa",
		Short:         "Access an ELisA logbook",
		Long:          "elisa searches, inserts, updates and replies to the messages of an ELisA logbook.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configFile, "config", "", "path to a config file (default ~/.elisa.yaml)")
	f.IntP(config.Flags[config.VerbosityKey], "v", 1, "sets the verbosity level [0-4]")
	f.StringP(config.Flags[config.ServerKey], "s", "",
		"URL of the ELisA REST server (default "+config.DefaultServer+")")
	f.StringP(config.Flags[config.SSOCookieKey], "o", "",
		"path to a cookie file with the user credentials, as written by auth-get-sso-cookie")
	f.StringP(config.Flags[config.LDAPKey], "c", "", "user credential in the form USERNAME:PASSWORD or USERNAME")
	f.StringP(config.Flags[config.LogbookKey], "k", "", "logbook name (default "+config.DefaultLogbook+")")
	f.String(config.Flags[config.TokenCommandKey], "", "command printing a bearer token")
	f.Bool(config.Flags[config.InsecureSkipVerifyKey], false, "skip verification of the server certificate")
	f.BoolP(config.Flags[config.TraceKey], "T", false, "log every request and response")
	f.String(config.Flags[config.LogFileKey], "", "also log to this file, as JSON")
	f.Float64(config.Flags[config.RateLimitKey], 0, "maximum requests per second, 0 for no limit")

	root.AddCommand(
		newGetCmd(a),
		newInsertCmd(a),
		newUpdateCmd(a),
		newReplyCmd(a),
		newConfigCmd(a),
		newPullCmd(a),
	)
	return root
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	return root.ExecuteContext(ctx)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		cancel()
		log.Fatalf("Failed: %v\n", err)
	}
}
