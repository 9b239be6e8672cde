package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/localq/localq/api"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	apiURL       string
	outputFormat string
	useColor     bool
	client       *api.Client
)

func initClient() error {
	httpClient := &http.Client{
		Timeout: 5 * time.Second,
	}

	client = api.NewClient(apiURL, api.WithHTTPClient(httpClient))
	return nil
}

// formatOutput handles conversion and writing to the command's designated output
func formatOutput(cmd *cobra.Command, data interface{}, isError bool) {
	if !useColor {
		color.NoColor = true
	} else {
		color.NoColor = false
	}

	var out string

	switch outputFormat {
	case "yaml":
		b, _ := yaml.Marshal(data)
		if useColor {
			if isError {
				out = color.RedString(string(b))
			} else {
				out = color.CyanString(string(b))
			}
		} else {
			out = string(b)
		}

	case "json":
		fallthrough
	default:
		if useColor {
			b, _ := prettyjson.Marshal(data)
			out = string(b)
		} else {
			b, _ := json.MarshalIndent(data, "", "  ")
			out = string(b)
		}
	}

	cmd.Println(out)
}

// dumpResponse renders an API response, success or structured error alike.
func dumpResponse(cmd *cobra.Command, resp *api.Response) {
	isError := resp.StatusCode < 200 || resp.StatusCode >= 300

	var data interface{}
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		// Fallback: print raw body or just the status code
		if len(resp.Body) > 0 {
			cmd.PrintErrln(string(resp.Body))
		} else {
			cmd.PrintErrf("Error: Received status code %d\n", resp.StatusCode)
		}
		return
	}

	formatOutput(cmd, data, isError)
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Send, receive, and manage queued messages",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initClient()
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [queue]",
	Short: "Send a message to a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, _ := cmd.Flags().GetString("body")
		delay, _ := cmd.Flags().GetInt("delay")

		resp, err := client.Send(context.Background(), args[0], api.SendRequest{
			Body:         body,
			DelaySeconds: delay,
		})
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var sendBatchCmd = &cobra.Command{
	Use:   "send-batch [queue]",
	Short: "Send up to 10 messages to a queue at once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bodies, _ := cmd.Flags().GetStringArray("body")
		delay, _ := cmd.Flags().GetInt("delay")

		messages := make([]api.BatchMessage, 0, len(bodies))
		for _, b := range bodies {
			messages = append(messages, api.BatchMessage{
				Body:         b,
				DelaySeconds: delay,
			})
		}

		resp, err := client.SendBatch(context.Background(), args[0], api.SendBatchRequest{
			Messages: messages,
		})
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var receiveCmd = &cobra.Command{
	Use:   "receive [queue]",
	Short: "Receive messages from a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		max, _ := cmd.Flags().GetInt("max-messages")
		timeout, _ := cmd.Flags().GetInt("visibility-timeout")

		req := api.ReceiveRequest{MaxMessages: max}
		if cmd.Flags().Changed("visibility-timeout") {
			req.VisibilityTimeout = &timeout
		}

		resp, err := client.Receive(context.Background(), args[0], req)
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var deleteMessageCmd = &cobra.Command{
	Use:   "delete [receipt-handle]",
	Short: "Delete a message by its receipt handle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Delete(context.Background(), api.DeleteRequest{
			ReceiptHandle: args[0],
		})
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var deleteBatchCmd = &cobra.Command{
	Use:   "delete-batch [receipt-handle...]",
	Short: "Delete up to 10 messages by receipt handle",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.DeleteBatch(context.Background(), api.DeleteBatchRequest{
			ReceiptHandles: args,
		})
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var changeVisibilityCmd = &cobra.Command{
	Use:   "change-visibility [receipt-handle]",
	Short: "Extend or shorten a message's visibility timeout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetInt("visibility-timeout")

		resp, err := client.ChangeVisibility(context.Background(), api.ChangeVisibilityRequest{
			ReceiptHandle:     args[0],
			VisibilityTimeout: timeout,
		})
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge [queue]",
	Short: "Delete every message in a queue, or in all queues with --all",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		confirm, _ := cmd.Flags().GetBool("confirm")

		if all {
			resp, err := client.PurgeAll(context.Background(), confirm)
			if err != nil {
				return err
			}
			dumpResponse(cmd, resp)
			return nil
		}

		if len(args) != 1 {
			return fmt.Errorf("a queue name is required unless --all is set")
		}

		resp, err := client.PurgeQueue(context.Background(), args[0])
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var attributesCmd = &cobra.Command{
	Use:   "attributes [queue]",
	Short: "Show message counts for a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.QueueAttributes(context.Background(), args[0])
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

var listQueuesCmd = &cobra.Command{
	Use:   "list",
	Short: "List queues holding messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.ListQueues(context.Background())
		if err != nil {
			return err
		}
		dumpResponse(cmd, resp)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{queueCmd, scheduleCmd} {
		c.PersistentFlags().StringVarP(&apiURL, "url", "u", "http://localhost:8080", "API base URL")
		c.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "Output format (json, yaml)")
		c.PersistentFlags().BoolVar(&useColor, "color", true, "Enable colorized output")
	}

	sendCmd.Flags().StringP("body", "b", "", "Message body")
	sendCmd.Flags().IntP("delay", "D", 0, "Seconds to hide the message before delivery")
	_ = sendCmd.MarkFlagRequired("body")

	sendBatchCmd.Flags().StringArrayP("body", "b", []string{}, "Message body (repeatable)")
	sendBatchCmd.Flags().IntP("delay", "D", 0, "Seconds to hide the messages before delivery")
	_ = sendBatchCmd.MarkFlagRequired("body")

	receiveCmd.Flags().IntP("max-messages", "n", 1, "Maximum messages to receive (up to 10)")
	receiveCmd.Flags().IntP("visibility-timeout", "t", 30, "Seconds the received messages stay hidden from other receivers")

	changeVisibilityCmd.Flags().IntP("visibility-timeout", "t", 30, "New visibility timeout in seconds, from now")
	_ = changeVisibilityCmd.MarkFlagRequired("visibility-timeout")

	purgeCmd.Flags().Bool("all", false, "Purge every queue")
	purgeCmd.Flags().Bool("confirm", false, "Required confirmation when purging every queue")

	queueCmd.AddCommand(sendCmd, sendBatchCmd, receiveCmd, deleteMessageCmd, deleteBatchCmd, changeVisibilityCmd, purgeCmd, attributesCmd, listQueuesCmd)
	rootCmd.AddCommand(queueCmd)
}
