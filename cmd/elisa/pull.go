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
	"fmt"

	"github.com/matta/elisa/internal/attachstore"
	"github.com/matta/elisa/internal/config"
	"github.com/matta/elisa/internal/persist"
	"github.com/matta/elisa/internal/sync"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPullCmd(a *app) *cobra.Command {
	var opts sync.Options
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Copy the messages of the logbook into the local archive",
		Long: "pull saves the messages of the logbook, and their attachments, into a\n" +
			"local SQLite archive.  Each pull continues from the newest message the\n" +
			"previous one saw.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := attachstore.New(a.cfg.AttachmentDir)
			if err != nil {
				return errors.Wrap(err, "unable to initialize the attachment store")
			}

			db, err := persist.Open(ctx, a.cfg.Archive, a.log)
			if err != nil {
				return errors.Wrap(err, "unable to initialize database")
			}
			defer db.Close()

			c, err := a.logbook()
			if err != nil {
				return err
			}

			opts.Logbook = a.cfg.Logbook
			opts.Log = a.log
			stats, err := sync.Sync(ctx, c, db, store, opts)
			if err != nil {
				return errors.Wrap(err, "unable to synchronize")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pulled %d messages and %d attachments\n", stats.Messages, stats.Attachments)
			fmt.Fprint(out, "Success!\n")
			return nil
		},
	}

	f := cmd.Flags()
	f.String(config.Flags[config.ArchiveKey], "", "path of the archive (default ~/.elisa.db)")
	f.String(config.Flags[config.AttachmentDirKey], "", "directory of the archived attachments (default ~/.elisa/attachments)")
	f.IntVar(&opts.Months, "months", 0, "months covered by the first pull of a logbook; 0 leaves it to the server")
	f.IntVarP(&opts.Limit, "limit", "l", 1000, "maximum number of messages listed per pull")
	f.IntVar(&opts.Concurrency, "concurrency", 4, "messages whose attachments are downloaded in parallel")
	return cmd
}
