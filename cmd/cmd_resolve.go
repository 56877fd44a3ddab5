// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/eventloc/locator/resolver"
	"github.com/eventloc/locator/spatial"
)

// queryFlags are the flags shared by the commands that take a query.
type queryFlags struct {
	userLocation string
	lat, lng     float64
}

func (f *queryFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.userLocation, "user-location", "", `Where the user is, as "City, ST"`)
	flags.Float64Var(&f.lat, "lat", 0, "User latitude, used as a last resort")
	flags.Float64Var(&f.lng, "lng", 0, "User longitude, used as a last resort")
}

func (f *queryFlags) query(flags *pflag.FlagSet, clues []string) resolver.Query {
	q := resolver.Query{Clues: clues, UserLocation: f.userLocation}
	if flags.Changed("lat") || flags.Changed("lng") {
		q.UserCoordinates = &spatial.Point{Lat: f.lat, Lng: f.lng}
	}

	return q
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

var resolveFlags queryFlags

var resolveCmd = &cobra.Command{
	Use:   "resolve <clue>...",
	Short: "Resolve the location described by the given clues",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		r, closer, err := newResolver(ctx, config, nil)
		if err != nil {
			return err
		}
		defer closer.Close()

		loc, err := r.Resolve(ctx, resolveFlags.query(cmd.Flags(), args))
		if err != nil {
			return fmt.Errorf("resolving: %w", err)
		}

		return writeJSON(os.Stdout, loc)
	},
}

var fingerprintFlags queryFlags

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <clue>...",
	Short: "Print the cache key of the given clues",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), resolver.Fingerprint(args, fingerprintFlags.userLocation))
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(fingerprintCmd)
	resolveFlags.register(resolveCmd.Flags())
	fingerprintCmd.Flags().StringVar(&fingerprintFlags.userLocation, "user-location", "", `Where the user is, as "City, ST"`)
}
