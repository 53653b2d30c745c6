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
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	xmp "github.com/cavivie/xmpkit"
	"github.com/cavivie/xmpkit/files"
)

func newDumpCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Show the XMP metadata of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := files.Open(args[0], nil)
			if err != nil {
				return err
			}

			if raw {
				packet := f.XMPBytes()
				if packet == nil {
					return files.ErrNoXMP
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", packet)
				return nil
			}

			p, err := f.XMP()
			if err != nil {
				return err
			}
			if name := f.Format(); name != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Format: %s\n", name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), propertyTable(p))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the raw packet bytes")
	return cmd
}

func propertyTable(p *xmp.Packet) string {
	names := maps.Keys(p.Properties)
	sort.Slice(names, func(i, j int) bool {
		if names[i].Space != names[j].Space {
			return names[i].Space < names[j].Space
		}
		return names[i].Local < names[j].Local
	})

	rows := make([][]string, 0, len(names))
	for _, n := range names {
		rows = append(rows, []string{n.Space, n.Local, formatValue(p.Properties[n])})
	}
	return renderTable([]string{"Namespace", "Name", "Value"}, rows)
}

// formatValue flattens a property value into a single display string.
func formatValue(v xmp.Raw) string {
	switch v := v.(type) {
	case xmp.RawText:
		return v.Value
	case xmp.RawURI:
		return v.Value.String()
	case xmp.RawArray:
		parts := make([]string, len(v.Value))
		for i, item := range v.Value {
			s := formatValue(item)
			if lang, ok := item.Qualifiers().Lang(); ok {
				s = "[" + lang + "] " + s
			}
			parts[i] = s
		}
		return strings.Join(parts, "; ")
	case xmp.RawStruct:
		fields := maps.Keys(v.Value)
		sort.Slice(fields, func(i, j int) bool {
			return fieldLess(fields[i], fields[j])
		})
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f.Local+"="+formatValue(v.Value[f]))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func fieldLess(a, b xml.Name) bool {
	if a.Space != b.Space {
		return a.Space < b.Space
	}
	return a.Local < b.Local
}
