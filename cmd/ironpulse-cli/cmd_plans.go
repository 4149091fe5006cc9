package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/claude/ironpulse/internal/models"
	"github.com/spf13/cobra"
)

var planFile string

// plansCmd groups workout plan management
var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List and edit workout plans",
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workout plans, newest first",
	RunE:  runPlansList,
}

var plansShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a plan as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlansShow,
}

var plansSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create or update a plan from a JSON draft",
	Long: `Create or update a plan from a JSON draft:

  {"id": "optional", "title": "Leg Day", "description": "",
   "exercises": [{"name": "Squat", "sets": 5, "reps": 5, "restTime": "120s"}]}

A draft whose id matches a stored plan replaces it in place. Use --file -
to read from stdin.`,
	RunE: runPlansSave,
}

var plansDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlansDelete,
}

func init() {
	plansSaveCmd.Flags().StringVarP(&planFile, "file", "f", "", "JSON draft file, or - for stdin")
	plansSaveCmd.MarkFlagRequired("file")

	plansCmd.AddCommand(plansListCmd)
	plansCmd.AddCommand(plansShowCmd)
	plansCmd.AddCommand(plansSaveCmd)
	plansCmd.AddCommand(plansDeleteCmd)
}

func runPlansList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	u, _ := a.sessions.Current()
	all, err := a.plans.List(cmd.Context(), u)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No plans yet.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tEXERCISES")
	for _, p := range all {
		fmt.Fprintf(w, "%s\t%s\t%d\n", p.ID, p.Title, len(p.Exercises))
	}
	return w.Flush()
}

func runPlansShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	plan, ok, err := a.plans.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("plan %s not found", args[0])
	}
	return writeIndented(cmd.OutOrStdout(), plan)
}

func runPlansSave(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if planFile != "-" {
		f, err := os.Open(planFile)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	var draft models.PlanDraft
	if err := json.NewDecoder(r).Decode(&draft); err != nil {
		return fmt.Errorf("parsing draft: %w", err)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.requireUser()
	if err != nil {
		return err
	}
	plan, err := a.plans.Save(cmd.Context(), u, draft)
	if err != nil {
		return err
	}
	return writeIndented(cmd.OutOrStdout(), plan)
}

func runPlansDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	deleted, err := a.plans.Delete(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if deleted {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %s.\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "No plan %s.\n", args[0])
	}
	return nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
