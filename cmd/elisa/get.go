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
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/matta/elisa/internal/apierr"
	"github.com/matta/elisa/internal/attachstore"
	"github.com/matta/elisa/internal/elisa"
	"github.com/matta/elisa/internal/message"
	"github.com/matta/elisa/internal/search"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var intervalRE = regexp.MustCompile(`^([0-9]+)m$`)

// parseInterval parses a month interval such as "3m".
func parseInterval(s string) (int, error) {
	m := intervalRE.FindStringSubmatch(s)
	if m == nil {
		return 0, apierr.Argumentf("invalid value format of option --interval: %q, want Nm", s)
	}
	return strconv.Atoi(m[1])
}

// criteriaFlags are the string search criteria, by flag name.  A flag
// given on the command line is sent even when empty.
var criteriaFlags = []struct {
	flag string
	set  func(*search.Criteria, string)
}{
	{"username", (*search.Criteria).SetUserName},
	{"author", (*search.Criteria).SetAuthor},
	{"subject", (*search.Criteria).SetSubject},
	{"type", (*search.Criteria).SetType},
	{"systems-affected", (*search.Criteria).SetSystemsAffected},
	{"body", (*search.Criteria).SetBody},
	{"status", (*search.Criteria).SetStatus},
	{"date-from", (*search.Criteria).SetSince},
	{"date-to", (*search.Criteria).SetUntil},
}

func buildCriteria(flags *pflag.FlagSet) (*search.Criteria, error) {
	c := search.New()
	for _, cf := range criteriaFlags {
		if flags.Changed(cf.flag) {
			v, err := flags.GetString(cf.flag)
			if err != nil {
				return nil, err
			}
			cf.set(c, v)
		}
	}
	if flags.Changed("options") {
		opts, err := flags.GetStringArray("options")
		if err != nil {
			return nil, err
		}
		c.SetOptions(strings.Join(opts, ","))
	}
	if flags.Changed("interval") {
		s, _ := flags.GetString("interval")
		months, err := parseInterval(s)
		if err != nil {
			return nil, err
		}
		c.SetInterval(months)
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return nil, err
	}
	c.SetLimit(limit)
	return c, nil
}

func newGetCmd(a *app) *cobra.Command {
	var (
		id             int
		attachmentPath string
	)
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a message, or the messages matching a search",
		Long: "get prints the message with the given --id or, without one, the messages\n" +
			"matching the search flags.  The search covers the last 3 months unless\n" +
			"--interval or the dates say otherwise.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var criteria *search.Criteria
			if !cmd.Flags().Changed("id") {
				var err error
				if criteria, err = buildCriteria(cmd.Flags()); err != nil {
					return err
				}
			}
			c, err := a.logbook()
			if err != nil {
				return err
			}

			var msgs []*message.Read
			if criteria == nil {
				m, err := c.Message(cmd.Context(), strconv.Itoa(id))
				if err != nil {
					return err
				}
				msgs = append(msgs, m)
			} else {
				a.log.Debugw("search criteria", "criteria", criteria.String())
				if msgs, err = c.Search(cmd.Context(), criteria); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, m := range msgs {
				fmt.Fprintln(out, m)
				if attachmentPath != "" && len(m.Attachments()) > 0 {
					if err := writeAttachments(cmd.Context(), a, c, m, attachmentPath); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&id, "id", "i", 0, "message unique ID")
	f.StringP("username", "u", "", "message user name")
	f.StringP("author", "a", "", "message author")
	f.StringP("subject", "j", "", "message subject")
	f.StringP("type", "y", "", "message type")
	f.StringP("systems-affected", "e", "", "message systems affected")
	f.StringArrayP("options", "p", nil, "option value in a key-value form; may be repeated")
	f.StringP("body", "b", "", "text in the message body")
	f.StringP("status", "x", "", "message status: open or closed")
	f.StringP("date-from", "f", "", "initial date of the search, DD/MM/YYYY HH:MM:ss")
	f.StringP("date-to", "t", "", "end date of the search, DD/MM/YYYY HH:MM:ss")
	f.StringP("interval", "n", "", "time interval in months, e.g. 3m")
	f.IntP("limit", "l", 10, "maximum number of messages retrieved")
	f.StringVarP(&attachmentPath, "attachment-path", "m", "",
		"download the attachments to this directory (the current one when no value is given)")
	f.Lookup("attachment-path").NoOptDefVal = "."
	return cmd
}

func writeAttachments(ctx context.Context, a *app, c *elisa.Client, m *message.Read, dir string) error {
	atts, err := c.Attachments(ctx, m)
	if err != nil {
		return err
	}
	for _, att := range atts {
		path, err := attachstore.WriteFile(dir, att.Filename, att.Content)
		if err != nil {
			return err
		}
		a.log.Debugw("attachment stored", "filename", att.Filename, "path", path)
	}
	return nil
}
