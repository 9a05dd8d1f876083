// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/merge"
	"github.com/pdiddy/content-engine/internal/session"
	"github.com/pdiddy/content-engine/internal/strategy"
	"github.com/pdiddy/content-engine/pkg/types"
)

// --- develop command group ---

var developCmd = &cobra.Command{
	Use:   "develop",
	Short: "Develop one item through research, outline and draft",
	Long: `Develop commands run the development wizard for a single item. Each
command opens the item, performs one step and saves the result, so a session
can be stopped and resumed at any point.

  start      resume the generation an interrupted session owes
  research   run a deep dive (replace or --append)
  outline    generate an outline from the curated research
  draft      approve the outline and generate the draft
  complete   publish the draft to the editor and move it to the draft column`,
}

// --- develop status ---

var developStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the session state, lists and strategy score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := openSession(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer done()
		printState(cmd.OutOrStdout(), ctrl.State())
		return nil
	},
}

// --- develop start ---

var developStartCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Open a session and run any generation it owes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := openSession(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		defer done()

		if pending := ctrl.State().Pending; pending != session.ResumeNone {
			fmt.Fprintf(cmd.OutOrStdout(), "Resuming %s generation...\n", pending)
		}
		if err := ctrl.Start(cmd.Context()); err != nil {
			return err
		}
		printState(cmd.OutOrStdout(), ctrl.State())
		return nil
	},
}

// --- develop research ---

var developResearchCmd = &cobra.Command{
	Use:   "research <id>",
	Short: "Run a deep dive on the item's hook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appendMode, _ := cmd.Flags().GetBool("append")
		extra, _ := cmd.Flags().GetString("context")

		policy := merge.PolicyReplace
		if appendMode {
			policy = merge.PolicyAppend
		}

		ctrl, done, err := openSession(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		defer done()

		if err := ctrl.RunResearch(cmd.Context(), policy, extra); err != nil {
			return err
		}
		st := ctrl.State()
		printList(cmd.OutOrStdout(), "Research", st.Points(session.ListResearch))
		printList(cmd.OutOrStdout(), "Insights", st.Points(session.ListInsights))
		return nil
	},
}

// --- develop outline ---

var developOutlineCmd = &cobra.Command{
	Use:   "outline <id>",
	Short: "Generate the outline from the curated research",
	Long: `Generates an outline from the research and insights. When the item already
has an outline it is shown unchanged; pass --regenerate to replace it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		regenerate, _ := cmd.Flags().GetBool("regenerate")

		ctrl, done, err := openSession(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		defer done()

		if regenerate || len(ctrl.State().Points(session.ListOutline)) == 0 {
			if err := ctrl.AdvanceToOutline(cmd.Context()); err != nil {
				return err
			}
		}
		printList(cmd.OutOrStdout(), "Outline", ctrl.State().Points(session.ListOutline))
		return nil
	},
}

// --- develop draft ---

var developDraftCmd = &cobra.Command{
	Use:   "draft <id>",
	Short: "Approve the outline and generate the draft",
	Long: `Generates the draft from the outline. The outline must be approved with
--approve. A strategy without an audience or outcome blocks the draft; pass
--proceed-vague to generate it anyway.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		approve, _ := cmd.Flags().GetBool("approve")
		vague, _ := cmd.Flags().GetBool("proceed-vague")

		ctrl, done, err := openSession(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		defer done()

		out := cmd.OutOrStdout()
		if approve {
			if err := ctrl.ApproveOutline(true); err != nil {
				return err
			}
		}
		err = ctrl.AdvanceToDraft(cmd.Context(), vague)
		if errors.Is(err, session.ErrOutlineNotApproved) {
			printList(out, "Outline", ctrl.State().Points(session.ListOutline))
			return fmt.Errorf("%w: review the outline and re-run with --approve", err)
		}
		var gate *session.GateError
		if errors.As(err, &gate) {
			printSnapshot(out, gate.Snapshot)
			return fmt.Errorf("%w: fill in the strategy or re-run with --proceed-vague", err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ctrl.State().Item.DraftText)
		return nil
	},
}

// --- develop complete ---

var developCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Publish the draft to the editor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := openSession(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer done()

		loc, err := ctrl.Complete(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Draft available at", loc)
		return nil
	},
}

// --- develop refine ---

var developRefineCmd = &cobra.Command{
	Use:   "refine <id>",
	Short: "Regenerate one point using its notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := pointRefFlags(cmd)
		if err != nil {
			return err
		}
		note, _ := cmd.Flags().GetString("note")

		ctrl, done, err := openSession(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		defer done()

		if err := ctrl.RefinePoint(cmd.Context(), ref, note); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ctrl.State().Points(ref.List)[ref.Index].Text)
		return nil
	},
}

var developRefinePendingCmd = &cobra.Command{
	Use:   "refine-pending <id>",
	Short: "Refine every point that carries notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := openSession(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		defer done()

		n, err := ctrl.RefinePending(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "Refined %d point(s)\n", n)
		return err
	},
}

// --- develop point ---

var developPointCmd = &cobra.Command{
	Use:   "point",
	Short: "Curate individual research, insight or outline points",
}

// pointCommand builds a point curation command taking <id> plus extra
// positional arguments.
func pointCommand(use, short string, args cobra.PositionalArgs, fn func(*cobra.Command, *session.Controller, session.PointRef, []string) error) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			ref, err := pointRefFlags(cmd)
			if err != nil {
				return err
			}
			ctrl, done, err := openSession(cmd.Context(), argv[0], false)
			if err != nil {
				return err
			}
			defer done()

			if err := fn(cmd, ctrl, ref, argv[1:]); err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), titleFor(ref.List), ctrl.State().Points(ref.List))
			return nil
		},
	}
	addPointRefFlags(c)
	return c
}

var pointEditCmd = pointCommand("edit <id> <text>", "Replace a point's text", cobra.MinimumNArgs(2),
	func(cmd *cobra.Command, ctrl *session.Controller, ref session.PointRef, rest []string) error {
		return ctrl.EditPoint(cmd.Context(), ref, strings.Join(rest, " "))
	})

var pointNoteCmd = pointCommand("note <id> <note>", "Attach a note to a point", cobra.MinimumNArgs(2),
	func(cmd *cobra.Command, ctrl *session.Controller, ref session.PointRef, rest []string) error {
		return ctrl.AddNote(cmd.Context(), ref, strings.Join(rest, " "))
	})

var pointUnnoteCmd = pointCommand("unnote <id> <note-index>", "Remove a note from a point", cobra.ExactArgs(2),
	func(cmd *cobra.Command, ctrl *session.Controller, ref session.PointRef, rest []string) error {
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("note index %q: %w", rest[0], err)
		}
		return ctrl.RemoveNote(cmd.Context(), ref, n)
	})

var pointDismissCmd = pointCommand("dismiss <id>", "Clear a point's new flag", cobra.ExactArgs(1),
	func(cmd *cobra.Command, ctrl *session.Controller, ref session.PointRef, _ []string) error {
		return ctrl.DismissNew(cmd.Context(), ref)
	})

var pointDeleteCmd = pointCommand("delete <id>", "Delete a point", cobra.ExactArgs(1),
	func(cmd *cobra.Command, ctrl *session.Controller, ref session.PointRef, _ []string) error {
		return ctrl.DeletePoint(cmd.Context(), ref)
	})

var pointInsertCmd = pointCommand("insert <id> <text>", "Insert a point before --index", cobra.MinimumNArgs(2),
	func(cmd *cobra.Command, ctrl *session.Controller, ref session.PointRef, rest []string) error {
		return ctrl.InsertPoint(cmd.Context(), ref, strings.Join(rest, " "))
	})

func addPointRefFlags(c *cobra.Command) {
	c.Flags().String("list", string(session.ListResearch), "point list: research, insights, or outline")
	c.Flags().Int("index", 0, "zero-based point index")
}

func pointRefFlags(cmd *cobra.Command) (session.PointRef, error) {
	name, _ := cmd.Flags().GetString("list")
	idx, _ := cmd.Flags().GetInt("index")
	l, err := session.ParseList(name)
	if err != nil {
		return session.PointRef{}, err
	}
	return session.PointRef{List: l, Index: idx}, nil
}

// --- output ---

func titleFor(l session.List) string {
	switch l {
	case session.ListInsights:
		return "Insights"
	case session.ListOutline:
		return "Outline"
	}
	return "Research"
}

func printState(w io.Writer, st session.State) {
	it := st.Item
	fmt.Fprintf(w, "%s  %s\n", it.ID, it.Hook)
	fmt.Fprintf(w, "Stage: %s", it.Stage)
	if it.DevStep != types.DevStepNone {
		fmt.Fprintf(w, " (%s)", it.DevStep)
	}
	fmt.Fprintf(w, "\nStep: %s\n", st.Step)
	if st.Pending != session.ResumeNone {
		fmt.Fprintf(w, "Pending: %s generation (run \"develop start\")\n", st.Pending)
	}
	fmt.Fprintln(w)

	printSnapshot(w, st.Strategy())
	if st.ResearchUnlocked {
		printList(w, "Research", st.Points(session.ListResearch))
		printList(w, "Insights", st.Points(session.ListInsights))
	}
	if len(it.Outline) > 0 {
		printList(w, "Outline", it.Outline)
	}
	if it.DraftText != "" {
		fmt.Fprintf(w, "Draft: %d characters\n", len(it.DraftText))
	}
}

func printSnapshot(w io.Writer, snap strategy.Snapshot) {
	fmt.Fprintf(w, "Strategy: %d/100 (%s)\n", snap.Score, snap.Label)
	if next := snap.NextAction(); next != "" {
		fmt.Fprintf(w, "Next: %s\n", next)
	}
	for _, m := range snap.Missing {
		fmt.Fprintf(w, "  missing: %s\n", m)
	}
	fmt.Fprintln(w)
}

func printList(w io.Writer, title string, points []types.ResearchPoint) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(points))
	for i, p := range points {
		flag := ""
		if p.IsNew {
			flag = " [new]"
		}
		fmt.Fprintf(w, "  %d. %s%s\n", i, p.Text, flag)
		for j, n := range p.Notes {
			fmt.Fprintf(w, "       note %d: %s\n", j, n)
		}
	}
	fmt.Fprintln(w)
}

func init() {
	developResearchCmd.Flags().Bool("append", false, "append the new batch to the curated lists instead of replacing them")
	developResearchCmd.Flags().String("context", "", "extra instructions for this deep dive")

	developOutlineCmd.Flags().Bool("regenerate", false, "replace an existing outline")

	developDraftCmd.Flags().Bool("approve", false, "approve the current outline")
	developDraftCmd.Flags().Bool("proceed-vague", false, "generate the draft even when the strategy gate blocks it")

	addPointRefFlags(developRefineCmd)
	developRefineCmd.Flags().String("note", "", "one-off instruction for this refinement")

	developPointCmd.AddCommand(pointEditCmd, pointNoteCmd, pointUnnoteCmd, pointDismissCmd, pointDeleteCmd, pointInsertCmd)

	developCmd.AddCommand(developStatusCmd, developStartCmd, developResearchCmd, developOutlineCmd,
		developDraftCmd, developCompleteCmd, developRefineCmd, developRefinePendingCmd, developPointCmd)
	rootCmd.AddCommand(developCmd)
}
