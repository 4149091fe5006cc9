package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	alarmTime  string
	alarmLabel string
)

// alarmsCmd groups reminder alarm management
var alarmsCmd = &cobra.Command{
	Use:   "alarms",
	Short: "Manage workout reminder alarms",
}

var alarmsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alarms in creation order",
	RunE:  runAlarmsList,
}

var alarmsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an active alarm",
	RunE:  runAlarmsAdd,
}

var alarmsToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Switch an alarm on or off",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlarmsToggle,
}

var alarmsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an alarm",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlarmsDelete,
}

func init() {
	alarmsAddCmd.Flags().StringVar(&alarmTime, "time", "", "time of day, HH:mm")
	alarmsAddCmd.Flags().StringVar(&alarmLabel, "label", "", "label (default \"Workout Reminder\")")
	alarmsAddCmd.MarkFlagRequired("time")

	alarmsCmd.AddCommand(alarmsListCmd)
	alarmsCmd.AddCommand(alarmsAddCmd)
	alarmsCmd.AddCommand(alarmsToggleCmd)
	alarmsCmd.AddCommand(alarmsDeleteCmd)
}

func onOff(active bool) string {
	if active {
		return "on"
	}
	return "off"
}

func runAlarmsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	all, err := a.alarms.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No alarms set.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tLABEL\tSTATE")
	for _, al := range all {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", al.ID, al.Time, al.Label, onOff(al.IsActive))
	}
	return w.Flush()
}

func runAlarmsAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.requireUser()
	if err != nil {
		return err
	}
	al, err := a.alarms.Create(cmd.Context(), u, alarmTime, alarmLabel)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added alarm %s at %s (%s).\n", al.ID, al.Time, al.Label)
	return nil
}

func runAlarmsToggle(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	al, ok, err := a.alarms.Toggle(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("alarm %s not found", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Alarm %s is now %s.\n", al.ID, onOff(al.IsActive))
	return nil
}

func runAlarmsDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	deleted, err := a.alarms.Delete(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if deleted {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted alarm %s.\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "No alarm %s.\n", args[0])
	}
	return nil
}
