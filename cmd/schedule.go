package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/localq/localq/api"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage delayed and recurring message schedules",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initClient()
	},
}

// scheduleCreateRequest builds the shared parts of a create call from flags.
func scheduleCreateRequest(cmd *cobra.Command) api.CreateScheduleRequest {
	body, _ := cmd.Flags().GetString("body")
	queue, _ := cmd.Flags().GetString("queue")
	name, _ := cmd.Flags().GetString("name")

	return api.CreateScheduleRequest{
		QueueName:    queue,
		MessageBody:  body,
		ScheduleName: name,
	}
}

var scheduleAtCmd = &cobra.Command{
	Use:   "at [epoch-seconds]",
	Short: "Schedule a one-shot message at an absolute epoch time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		epoch, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid epoch time: %w", err)
		}

		req := scheduleCreateRequest(cmd)
		req.RunAtEpoch = &epoch

		resp, err := client.CreateSchedule(context.Background(), req)
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var scheduleInCmd = &cobra.Command{
	Use:   "in [delay-seconds]",
	Short: "Schedule a one-shot message a number of seconds from now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delay, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid delay: %w", err)
		}

		req := scheduleCreateRequest(cmd)
		req.DelaySeconds = &delay

		resp, err := client.CreateSchedule(context.Background(), req)
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var scheduleRateCmd = &cobra.Command{
	Use:   "rate [expression]",
	Short: "Schedule a recurring message from a rate(N unit) expression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := scheduleCreateRequest(cmd)
		req.ScheduleExpression = &args[0]

		resp, err := client.CreateSchedule(context.Background(), req)
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var getScheduleCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get a schedule by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.GetSchedule(context.Background(), args[0])
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var listSchedulesCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules ordered by run time",
	RunE: func(cmd *cobra.Command, args []string) error {
		includeFired, _ := cmd.Flags().GetBool("include-fired")
		limit, _ := cmd.Flags().GetInt("limit")

		resp, err := client.ListSchedules(context.Background(), includeFired, limit)
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var updateScheduleCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update an existing schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req api.UpdateScheduleRequest

		if cmd.Flags().Changed("body") {
			body, _ := cmd.Flags().GetString("body")
			req.MessageBody = &body
		}
		if cmd.Flags().Changed("queue") {
			queue, _ := cmd.Flags().GetString("queue")
			req.QueueName = &queue
		}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			req.ScheduleName = &name
		}
		if cmd.Flags().Changed("run-at") {
			epoch, _ := cmd.Flags().GetInt64("run-at")
			req.RunAtEpoch = &epoch
		}
		if cmd.Flags().Changed("delay") {
			delay, _ := cmd.Flags().GetInt64("delay")
			req.DelaySeconds = &delay
		}
		if cmd.Flags().Changed("expression") {
			expr, _ := cmd.Flags().GetString("expression")
			req.ScheduleExpression = &expr
		}

		resp, err := client.UpdateSchedule(context.Background(), args[0], req)
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var cancelScheduleCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.CancelSchedule(context.Background(), args[0])
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var runDueCmd = &cobra.Command{
	Use:   "run-due",
	Short: "Fire every due schedule now",
	RunE: func(cmd *cobra.Command, args []string) error {
		max, _ := cmd.Flags().GetInt("max")
		keep, _ := cmd.Flags().GetBool("keep-history")

		req := api.RunDueRequest{MaxToRun: max}
		if keep {
			deleteAfter := false
			req.DeleteAfter = &deleteAfter
		}

		resp, err := client.RunDue(context.Background(), req)
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{scheduleAtCmd, scheduleInCmd, scheduleRateCmd} {
		c.Flags().StringP("body", "b", "", "Message body to enqueue when the schedule fires")
		c.Flags().StringP("queue", "q", "default", "Queue to deliver to")
		c.Flags().StringP("name", "n", "", "Human-readable schedule name")
		_ = c.MarkFlagRequired("body")
	}

	listSchedulesCmd.Flags().Bool("include-fired", false, "Include fired one-shot schedules kept as history")
	listSchedulesCmd.Flags().Int("limit", 100, "Maximum schedules to return")

	updateScheduleCmd.Flags().StringP("body", "b", "", "New message body")
	updateScheduleCmd.Flags().StringP("queue", "q", "", "New destination queue")
	updateScheduleCmd.Flags().StringP("name", "n", "", "New schedule name")
	updateScheduleCmd.Flags().Int64("run-at", 0, "New absolute run time in epoch seconds")
	updateScheduleCmd.Flags().Int64("delay", 0, "Reschedule this many seconds from now")
	updateScheduleCmd.Flags().String("expression", "", "New rate(N unit) expression")

	runDueCmd.Flags().Int("max", 50, "Maximum schedules to fire")
	runDueCmd.Flags().Bool("keep-history", false, "Keep fired one-shot schedules instead of deleting them")

	scheduleCmd.AddCommand(scheduleAtCmd, scheduleInCmd, scheduleRateCmd, getScheduleCmd, listSchedulesCmd, updateScheduleCmd, cancelScheduleCmd, runDueCmd)
	rootCmd.AddCommand(scheduleCmd)
}
