// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/export"
	"github.com/pdiddy/content-engine/pkg/types"
)

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export an item's research, or every item, to a file or stdout",
	Long: `Exports a content item. The text format renders the research and insights
as a readable outline that "import" can read back after editing. The yaml and
json formats are full snapshots; pass --all to include every item.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	all, _ := cmd.Flags().GetBool("all")

	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if all == (len(args) == 1) {
		return fmt.Errorf("pass an item id or --all")
	}

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	var items []types.ContentItem
	if all {
		items, err = st.List(cmd.Context())
	} else {
		var item types.ContentItem
		item, err = st.Get(cmd.Context(), args[0])
		items = []types.ContentItem{item}
	}
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, format, items); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(errOut, "Exported %d item(s) to %s\n", len(items), output)
	}
	return nil
}

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import <id> <file>",
	Short: "Replace an item's research with an edited text export",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := export.Parse(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[1], err)
		}

		ctrl, done, err := openSession(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer done()

		if hook := ctrl.State().Item.Hook; res.Hook != "" && res.Hook != hook {
			fmt.Fprintf(errOut, "warning: file title %q differs from the item hook %q\n", res.Hook, hook)
		}
		if err := ctrl.ReplaceResearch(cmd.Context(), res.Research, res.Insights); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d research point(s) and %d insight(s)\n",
			len(res.Research), len(res.Insights))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", string(export.FormatText), "output format: text, yaml, or json")
	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	exportCmd.Flags().Bool("all", false, "export every item (yaml or json)")

	rootCmd.AddCommand(exportCmd, importCmd)
}
