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
	"io"
	"strings"

	"github.com/matta/elisa/internal/message"
	"github.com/spf13/cobra"
)

func printTypeOption(w io.Writer, indent string, o message.TypeOption) {
	fmt.Fprintf(w, "%sName:            %s\n", indent, o.Name)
	fmt.Fprintf(w, "%sType:            %s\n", indent, o.Type)
	fmt.Fprintf(w, "%sPossible values: %s\n", indent, o.PossibleValues)
	fmt.Fprintf(w, "%sComment:         %s\n", indent, o.Comment)
}

func newConfigCmd(a *app) *cobra.Command {
	var msgType string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "List the message types, their options and the systems affected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client(a.cfg.APIRoot())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var systems []string
			if msgType != "" {
				opts, err := c.TypeOptions(ctx, msgType)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nValid options for %s:\n", msgType)
				for _, o := range opts {
					printTypeOption(out, "  ", o)
					fmt.Fprintln(out, "  Inner options:")
					for _, inner := range o.Options {
						printTypeOption(out, "      ", inner)
					}
				}
				if systems, err = c.PredefinedSystemsAffected(ctx, msgType); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nValid systems affected for %s:\n", msgType)
			} else {
				types, err := c.MessageTypes(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nList of possible types:\n%s\n", strings.Join(types, ", "))
				if systems, err = c.SystemsAffected(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "\nList of possible systems affected:")
			}
			fmt.Fprintf(out, "%s\n\n", strings.Join(systems, ", "))
			return nil
		},
	}
	cmd.Flags().StringVarP(&msgType, "type", "y", "", "show the options and systems affected of this message type")
	return cmd
}
