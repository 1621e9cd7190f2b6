// Copyright (c) 2025 The go-discimage Authors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-discimage.
//
// go-discimage is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-discimage is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-discimage.  If not, see <https://www.gnu.org/licenses/>.

// Command discimage inspects optical disc image data: it decodes CD-TEXT
// dumps and guesses medium types from layout lengths.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	discimage "github.com/disctools/go-discimage"
	"github.com/disctools/go-discimage/cdtext"
)

var rootCmd = &cobra.Command{
	Use:   "discimage",
	Short: "Inspect optical disc image data",
	Long:  `Inspect optical disc image data: decode CD-TEXT dumps and guess medium types.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the library version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("discimage version %s\n", discimage.Version)
	},
}

var cdtextCmd = &cobra.Command{
	Use:                   "cdtext FILE",
	Short:                 "Decode a raw CD-TEXT dump",
	Long:                  `Decode a raw CD-TEXT dump (a sequence of 18-byte packs) and print its blocks and entries.`,
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0]) //nolint:gosec // Path from user input is expected
		if err != nil {
			return fmt.Errorf("read CD-TEXT dump: %w", err)
		}

		decoder, err := cdtext.NewDecoder(data)
		if err != nil {
			return fmt.Errorf("decode CD-TEXT dump: %w", err)
		}

		for _, block := range decoder.Blocks() {
			info, err := decoder.BlockInfo(block)
			if err != nil {
				continue
			}
			fmt.Printf("Block %d: language 0x%02X, charset %d, copyright %d, tracks %d-%d\n",
				block, info.LanguageCode, info.CharacterSet, info.Copyright, info.FirstTrack, info.LastTrack)

			entries, err := decoder.Entries(block)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				fmt.Printf("  type 0x%02X track %2d: %q\n", int(entry.Type), entry.Track, trimNul(entry.Data))
			}
		}
		return nil
	},
}

var guessMediumCmd = &cobra.Command{
	Use:                   "guess-medium SECTORS",
	Short:                 "Guess the medium type for a layout length",
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(_ *cobra.Command, args []string) error {
		length, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid sector count %q: %w", args[0], err)
		}
		fmt.Println(discimage.GuessMediumType(int32(length)))
		return nil
	},
}

// trimNul strips the trailing terminator of textual pack data.
func trimNul(data []byte) string {
	if len(data) > 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}
	return string(data)
}

func main() {
	rootCmd.AddCommand(versionCmd, cdtextCmd, guessMediumCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
