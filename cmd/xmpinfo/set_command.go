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
	"errors"

	"github.com/spf13/cobra"

	xmp "github.com/cavivie/xmpkit"
	"github.com/cavivie/xmpkit/files"
)

func newSetCommand() *cobra.Command {
	var title, creator, description, tool string
	var output string

	cmd := &cobra.Command{
		Use:   "set FILE",
		Short: "Set common XMP properties of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" && creator == "" && description == "" && tool == "" {
				return errors.New("nothing to set, use --title, --creator, --description or --tool")
			}

			f, err := files.Open(args[0], &files.ReadOptions{ForUpdate: true})
			if err != nil {
				return err
			}
			p, err := f.XMP()
			if errors.Is(err, files.ErrNoXMP) {
				p = xmp.NewPacket()
			} else if err != nil {
				return err
			}

			var dc xmp.DublinCore
			var basic xmp.XMP
			var mm xmp.MediaManagement
			p.Get(&dc)
			p.Get(&basic)
			p.Get(&mm)

			if title != "" {
				dc.Title.Default = xmp.NewText(title)
			}
			if creator != "" {
				dc.Creator = xmp.OrderedArray[xmp.ProperName]{}
				dc.Creator.Append(xmp.ProperName{Text: xmp.NewText(creator)})
			}
			if description != "" {
				dc.Description.Default = xmp.NewText(description)
			}
			if tool != "" {
				basic.CreatorTool = xmp.AgentName{Text: xmp.NewText(tool)}
			}
			if mm.DocumentID.IsZero() {
				mm.DocumentID = xmp.NewDocumentID()
			}
			mm.InstanceID = xmp.NewInstanceID()

			if err := p.Set(&dc, &basic, &mm); err != nil {
				return err
			}
			if err := f.PutXMP(p); err != nil {
				return err
			}
			if output == "" {
				output = args[0]
			}
			return f.WriteFile(output)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Document title (dc:title)")
	cmd.Flags().StringVar(&creator, "creator", "", "Author name (dc:creator)")
	cmd.Flags().StringVar(&description, "description", "", "Description text (dc:description)")
	cmd.Flags().StringVar(&tool, "tool", "", "Creating application (xmp:CreatorTool)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to this file instead of FILE")
	return cmd
}
