package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"squeeze/internal/profiles"
)

type profileJSON struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Codec     string `json:"codec"`
	Extension string `json:"extension"`
	Width     int    `json:"width"`
	Quality   int    `json:"quality"`
	Preset    string `json:"preset"`
	Default   bool   `json:"default"`
}

func newProfilesCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:         "profiles",
		Short:       "List the encode profiles",
		Args:        cobra.NoArgs,
		Annotations: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := profiles.All()
			defaultKey := profiles.Default().Key
			if asJSON {
				out := make([]profileJSON, 0, len(all))
				for _, p := range all {
					out = append(out, profileJSON{
						Key:       p.Key,
						Name:      p.Name,
						Codec:     p.Codec,
						Extension: p.Extension,
						Width:     p.Width,
						Quality:   p.Quality,
						Preset:    p.Preset.String(),
						Default:   p.Key == defaultKey,
					})
				}
				return writeJSON(cmd, out)
			}

			rows := make([][]string, 0, len(all))
			for _, p := range all {
				width := strconv.Itoa(p.Width)
				if p.KeepsWidth() {
					width = "source"
				}
				name := p.Name
				if p.Key == defaultKey {
					name += " *"
				}
				rows = append(rows, []string{p.Key, name, p.Codec, width, strconv.Itoa(p.Quality), p.Preset.String(), p.Extension})
			}
			view := tableView{
				Headers:      []string{"Key", "Name", "Codec", "Width", "Quality", "Preset", "Ext"},
				Rows:         rows,
				RightAligned: []int{3, 4},
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newPresetsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:         "presets",
		Short:       "List encoder speed presets, fastest first",
		Args:        cobra.NoArgs,
		Annotations: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := profiles.PresetNames()
			if asJSON {
				return writeJSON(cmd, names)
			}
			rows := make([][]string, 0, len(names))
			for i, name := range names {
				rows = append(rows, []string{strconv.Itoa(i), name})
			}
			view := tableView{Headers: []string{"#", "Preset"}, Rows: rows, RightAligned: []int{0}}
			fmt.Fprintln(cmd.OutOrStdout(), view.render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
