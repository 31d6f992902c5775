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
	"os"
	"strconv"

	"github.com/matta/elisa/internal/apierr"
	"github.com/matta/elisa/internal/message"
	"github.com/matta/elisa/internal/options"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// content holds the flags shared by the commands that write a message.
type content struct {
	body        string
	bodyFile    string
	attachments []string
}

func (c *content) register(f *pflag.FlagSet) {
	f.StringVarP(&c.body, "body", "b", "", "message body")
	f.StringVarP(&c.bodyFile, "body-file", "z", "", "path to a file holding the message body")
	f.StringArrayVarP(&c.attachments, "attachment-file", "m", nil,
		"path to a file to attach to the message; may be repeated")
}

func (c *content) empty() bool {
	return c.body == "" && c.bodyFile == "" && len(c.attachments) == 0
}

// text returns the message body, read from --body-file if given.
func (c *content) text() (string, error) {
	if c.body != "" && c.bodyFile != "" {
		return "", errors.New("--body and --body-file are mutually exclusive")
	}
	if c.bodyFile == "" {
		return c.body, nil
	}
	b, err := os.ReadFile(c.bodyFile)
	if err != nil {
		return "", errors.Wrap(err, "unable to read the body file")
	}
	return string(b), nil
}

func parseStatus(s string) (message.Status, error) {
	switch st := message.Status(s); st {
	case "", message.StatusOpen, message.StatusClosed:
		return st, nil
	}
	return "", apierr.Argumentf("status %q is neither %q nor %q", s, message.StatusOpen, message.StatusClosed)
}

func printStored(cmd *cobra.Command, a *app, what string, m *message.Read) {
	if m == nil {
		return
	}
	a.log.Debugw(what, "message", m.String())
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", what, m.ID())
}

func newInsertCmd(a *app) *cobra.Command {
	var (
		c                                 content
		author, subject, msgType, systems string
		status                            string
		opts                              []string
	)
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert a new message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := c.text()
			if err != nil {
				return err
			}
			st, err := parseStatus(status)
			if err != nil {
				return err
			}
			parsed, err := options.Parse(opts)
			if err != nil {
				return err
			}

			m := message.NewInsert()
			m.SetAuthor(author)
			m.SetSubject(subject)
			m.SetType(msgType)
			m.SetSystemsAffected(splitList(systems))
			m.SetOptions(parsed)
			m.SetBody(body)
			if st != "" {
				m.SetStatus(st)
			}
			m.SetAttachments(c.attachments)
			a.log.Debugw("inserting", "message", m.String())

			client, err := a.logbook()
			if err != nil {
				return err
			}
			stored, err := client.Insert(cmd.Context(), m)
			if err != nil {
				return err
			}
			printStored(cmd, a, "inserted", stored)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&author, "author", "a", "", "message author; the server uses the credential's user when empty")
	f.StringVarP(&subject, "subject", "j", "", "message subject")
	f.StringVarP(&msgType, "type", "y", "", "message type")
	f.StringVarP(&systems, "systems-affected", "e", "", "comma separated systems affected")
	f.StringArrayVarP(&opts, "options", "p", nil,
		`option value, e.g. "Trigger Area=Trigger Group"; inner options use a '.': "Area.Inner=VALUE"`)
	f.StringVarP(&status, "status", "x", "", "message status: open or closed")
	c.register(f)
	for _, name := range []string{"subject", "type", "systems-affected"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		c    content
		id   int
		date string
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change the body, date or attachments of a message",
		Long: "update changes one aspect of a message: its body (with any attachments),\n" +
			"else its date, else its attachments.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.empty() && date == "" {
				return errors.New("why update an e-log without content?")
			}
			body, err := c.text()
			if err != nil {
				return err
			}

			m := message.NewUpdate(strconv.Itoa(id))
			m.SetBody(body)
			m.SetDate(date)
			m.SetAttachments(c.attachments)
			a.log.Debugw("updating", "message", m.String())

			client, err := a.logbook()
			if err != nil {
				return err
			}
			stored, err := client.Update(cmd.Context(), m)
			if err != nil {
				return err
			}
			printStored(cmd, a, "updated", stored)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&id, "id", "i", 0, "message unique ID")
	f.StringVarP(&date, "date", "d", "", "message date and time")
	c.register(f)
	cmd.MarkFlagRequired("id")
	return cmd
}

func newReplyCmd(a *app) *cobra.Command {
	var (
		c                       content
		id                      int
		author, systems, status string
		opts                    []string
	)
	cmd := &cobra.Command{
		Use:   "reply",
		Short: "Reply to a message",
		Long: "reply posts a reply to a message.  The reply keeps the type of the\n" +
			"original and its subject, prefixed with \"RE: \".  The systems affected\n" +
			"and options of the original are kept unless given.  Replying with\n" +
			"status closed closes the whole thread.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.empty() && author == "" && systems == "" && len(opts) == 0 && status == "" {
				return errors.New("why reply with an empty e-log?")
			}
			body, err := c.text()
			if err != nil {
				return err
			}
			st, err := parseStatus(status)
			if err != nil {
				return err
			}
			parsed, err := options.Parse(opts)
			if err != nil {
				return err
			}

			m := message.NewReply(strconv.Itoa(id))
			m.SetAuthor(author)
			m.SetSystemsAffected(splitList(systems))
			m.SetOptions(parsed)
			m.SetBody(body)
			if st != "" {
				m.SetStatus(st)
			}
			m.SetAttachments(c.attachments)
			a.log.Debugw("replying", "message", m.String())

			client, err := a.logbook()
			if err != nil {
				return err
			}
			stored, err := client.Reply(cmd.Context(), m)
			if err != nil {
				return err
			}
			printStored(cmd, a, "replied", stored)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&id, "id", "i", 0, "unique ID of the message to reply to")
	f.StringVarP(&author, "author", "a", "", "message author")
	f.StringVarP(&systems, "systems-affected", "e", "", "comma separated systems affected")
	f.StringArrayVarP(&opts, "options", "p", nil, "option value in a key-value form; may be repeated")
	f.StringVarP(&status, "status", "x", "", "message status: open or closed")
	c.register(f)
	cmd.MarkFlagRequired("id")
	return cmd
}
