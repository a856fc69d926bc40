// Command vocactl parses vocabulary spreadsheets, manages database
// migrations and runs uploads from the command line.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "vocactl",
		Short: "Vocabulary upload tools",
		Long: `vocactl reads CSV, TSV and XLSX vocabulary lists the same way the admin
server does, applies database migrations and uploads days from the shell.`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.AddCommand(newParseCmd(), newMigrateCmd(), newUploadCmd())
	return root
}
