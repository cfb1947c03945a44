package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/readmode/config"
	"github.com/mohammad-safakhou/readmode/internal/logging"
)

// app carries what the persistent pre-run prepared for subcommands.
type app struct {
	cfgPath string
	cfg     *config.Config
	logs    io.Closer
}

func newRootCMD() *cobra.Command {
	a := &app{}
	var root = &cobra.Command{
		Use:           "readmode",
		Short:         "Reader-mode article retrieval and parsing",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logs = logging.Setup(cfg.General)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logs != nil {
				_ = a.logs.Close()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "config file (default is ./config/config.json)")

	root.AddCommand(
		serveCMD(a),
		fetchCMD(a),
		extractCMD(a),
		askCMD(a),
		exportCMD(a),
		migrateCMD(a),
	)
	return root
}

func main() {
	if err := newRootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}
