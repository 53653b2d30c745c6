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
	"github.com/spf13/cobra"

	"github.com/cavivie/xmpkit/files"
)

func newStripCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "strip FILE",
		Short: "Remove the XMP metadata from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := files.Open(args[0], &files.ReadOptions{ForUpdate: true})
			if err != nil {
				return err
			}
			if err := f.RemoveXMP(); err != nil {
				return err
			}
			if output == "" {
				output = args[0]
			}
			return f.WriteFile(output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to this file instead of FILE")
	return cmd
}
