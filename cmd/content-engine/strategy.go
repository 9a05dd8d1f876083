// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pdiddy/content-engine/internal/strategy"
	"github.com/pdiddy/content-engine/pkg/types"
)

// --- strategy command group ---

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Show or edit an item's strategy profile",
	Long: `The strategy profile targets a piece: who reads it, what they should do
afterwards, the format and the author's stance. It is scored out of 100; a
draft needs at least the audience and the outcome.`,
}

var strategyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the profile and its score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := openSession(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer done()

		asJSON, _ := cmd.Flags().GetBool("json")
		st := ctrl.State()
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Profile  types.StrategyProfile `json:"profile"`
				Snapshot strategy.Snapshot     `json:"snapshot"`
			}{st.Item.Profile(), st.Strategy()})
		}
		printProfile(cmd.OutOrStdout(), st.Item.Profile())
		printSnapshot(cmd.OutOrStdout(), st.Strategy())
		return nil
	},
}

var strategySetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Update profile fields; unset flags keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := openSession(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer done()

		state := ctrl.State()
		profile := applyProfileFlags(cmd.Flags(), state.Item.Profile())
		snap, err := ctrl.UpdateStrategy(cmd.Context(), profile)
		if err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}

// applyProfileFlags overlays the flags the user set on profile.
func applyProfileFlags(flags *pflag.FlagSet, profile types.StrategyProfile) types.StrategyProfile {
	set := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	set("outcome", &profile.Outcome)
	set("role", &profile.Audience.Role)
	set("pain", &profile.Audience.Pain)
	set("stance", &profile.Stance)
	set("format", &profile.Format)
	return profile
}

func printProfile(w io.Writer, p types.StrategyProfile) {
	show := func(label, v string) {
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(w, "%-9s %s\n", label+":", v)
	}
	show("Role", p.Audience.Role)
	show("Pain", p.Audience.Pain)
	show("Outcome", p.Outcome)
	show("Format", p.Format)
	show("Stance", p.Stance)
	fmt.Fprintln(w)
}

func init() {
	strategyShowCmd.Flags().Bool("json", false, "print as JSON")

	strategySetCmd.Flags().String("outcome", "", "what the reader should do or believe")
	strategySetCmd.Flags().String("role", "", "who the reader is")
	strategySetCmd.Flags().String("pain", "", "the problem the reader feels")
	strategySetCmd.Flags().String("stance", "", "your position on the topic")
	strategySetCmd.Flags().String("format", "", "shape of the piece (essay, listicle, ...)")

	strategyCmd.AddCommand(strategyShowCmd, strategySetCmd)
	rootCmd.AddCommand(strategyCmd)
}
