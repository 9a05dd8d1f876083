// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/board"
	"github.com/pdiddy/content-engine/pkg/types"
)

// --- board command group ---

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage content items across pipeline stages",
	Long: `Board commands create content items and move them between the idea,
developing, draft and published columns. Use "develop" to work on a single
item's research, outline and draft.`,
}

// --- board list ---

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the board columns",
	Args:  cobra.NoArgs,
	RunE:  runBoardList,
}

func runBoardList(cmd *cobra.Command, args []string) error {
	b, done, err := openBoard(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	cols, err := b.Columns(cmd.Context())
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cols)
	}
	printColumns(cmd.OutOrStdout(), cols)
	return nil
}

func printColumns(w io.Writer, cols []board.Column) {
	for _, col := range cols {
		fmt.Fprintf(w, "%s (%d)\n", strings.ToUpper(string(col.Stage)), len(col.Items))
		for _, it := range col.Items {
			marker := ""
			if it.DevStep != types.DevStepNone {
				marker = " [" + string(it.DevStep) + "]"
			}
			fmt.Fprintf(w, "  %s  %s%s\n", it.ID, it.Hook, marker)
		}
	}
}

// --- board add ---

var boardAddCmd = &cobra.Command{
	Use:   "add <hook>",
	Short: "Create an item in the idea column",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		item, err := b.Create(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), item.ID)
		return nil
	},
}

// --- board hook ---

var boardHookCmd = &cobra.Command{
	Use:   "hook <id> <hook>",
	Short: "Rewrite the hook of an idea",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		_, err = b.UpdateHook(cmd.Context(), args[0], strings.Join(args[1:], " "))
		return err
	},
}

// --- board moves ---

// moveCommand builds a single-id command for a board transition.
func moveCommand(use, short string, fn func(*board.Board, *cobra.Command, string) (types.ContentItem, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, done, err := openBoard(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			item, err := fn(b, cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", item.ID, item.Stage)
			return nil
		},
	}
}

var boardStartDraftCmd = moveCommand("start-draft", "Move an idea straight to the draft column",
	func(b *board.Board, cmd *cobra.Command, id string) (types.ContentItem, error) {
		return b.StartDraft(cmd.Context(), id)
	})

var boardPublishCmd = moveCommand("publish", "Move a draft to the published column",
	func(b *board.Board, cmd *cobra.Command, id string) (types.ContentItem, error) {
		return b.Publish(cmd.Context(), id)
	})

var boardArchiveCmd = moveCommand("archive", "Hide an item from the board",
	func(b *board.Board, cmd *cobra.Command, id string) (types.ContentItem, error) {
		return b.Archive(cmd.Context(), id)
	})

// --- board delete ---

var boardDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an item permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		return b.Delete(cmd.Context(), args[0])
	},
}

// --- board edit ---

var boardEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Print where a draft or published item is edited",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		loc, err := b.Edit(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), loc)
		return nil
	},
}

func init() {
	boardListCmd.Flags().Bool("json", false, "print the columns as JSON")

	boardCmd.AddCommand(boardListCmd, boardAddCmd, boardHookCmd, boardStartDraftCmd,
		boardPublishCmd, boardArchiveCmd, boardDeleteCmd, boardEditCmd)
	rootCmd.AddCommand(boardCmd)
}
