// github.com/cavivie/xmpkit - Extensible Metadata Platform in Go
// Copyright (C) 2026  The xmpkit contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cavivie/xmpkit/files"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported container formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, h := range files.Handlers() {
				rows = append(rows, []string{h.Name(), strings.Join(h.Extensions(), ", ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Format", "Extensions"}, rows))
			return nil
		},
	}
}
