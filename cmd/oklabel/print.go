package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/benoitkugler/oklabel/host"
	"github.com/benoitkugler/oklabel/labelapi"
	"github.com/spf13/cobra"
)

var (
	labelName string
	amount    int
	apiData   map[string]string
)

func init() {
	RootCmd.AddCommand(printCmd)
	printCmd.Flags().StringVarP(&labelName, "label", "l", "", "name of the label to print")
	printCmd.Flags().IntVarP(&amount, "amount", "n", 1, "number of labels requested")
	printCmd.Flags().StringToStringVar(&apiData, "data", nil, "template data sent to the label service, as key=value")
}

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Fetch a label from the label service and print it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		h, err := host.New(cfg, host.WithLogger(log))
		if err != nil {
			return err
		}

		data := make(map[string]interface{}, len(apiData))
		for k, v := range apiData {
			data[k] = v
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		// failures are already notified
		cmd.SilenceErrors = true
		return h.PrintLabel(ctx, labelapi.Request{LabelName: labelName, Amount: amount, APIData: data})
	},
}
