package main

import (
	"github.com/spf13/cobra"
)

func exportCMD(a *app) *cobra.Command {
	var in, format, out string
	var exp = &cobra.Command{
		Use:   "export",
		Short: "Render an article JSON document as md, html or pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := readArticle(cmd.InOrStdin(), in)
			if err != nil {
				return err
			}
			b, err := render(cmd.Context(), a.cfg.Export, article, format)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, b)
		},
	}
	exp.Flags().StringVarP(&in, "in", "i", "-", "article JSON file (- for stdin)")
	exp.Flags().StringVarP(&format, "format", "f", "md", "output format: md, html or pdf")
	exp.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return exp
}
