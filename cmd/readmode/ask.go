package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func askCMD(a *app) *cobra.Command {
	var in string
	var ask = &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about a saved article JSON document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := readArticle(cmd.InOrStdin(), in)
			if err != nil {
				return err
			}
			svc, err := newReader(cmd.Context(), a)
			if err != nil {
				return err
			}
			answer := svc.AskQuestion(cmd.Context(), article.Content, strings.Join(args, " "))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)
			return err
		},
	}
	ask.Flags().StringVarP(&in, "in", "i", "-", "article JSON file (- for stdin)")
	return ask
}
