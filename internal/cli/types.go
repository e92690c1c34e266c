package cli

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/extreg/internal/app"
	"github.com/specialistvlad/extreg/internal/ctxlog"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/spf13/cobra"
)

func newTypesCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the installed extensions and the types they register",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.readConfig(nil)
			if err != nil {
				return err
			}
			ctx := ctxlog.WithLogger(cmd.Context(), slog.New(slog.DiscardHandler))

			reg := registry.NewWithOptions(registry.NewOptions(cfg.Extensions))
			if err := registry.Install(ctx, reg, app.Modules()...); err != nil {
				return failure("%v", err)
			}
			if err := reg.Freeze(ctx); err != nil {
				var unused registry.UnusedOptionsError
				if !errors.As(err, &unused) {
					return failure("%v", err)
				}
			}
			_, err = io.WriteString(o.outW, typesTable(reg.Extensions()))
			return err
		},
	}
}

func typesTable(regs []registry.Registration) string {
	rows := make([][]string, 0, len(regs))
	for _, reg := range regs {
		version := reg.Extension.Version
		if version == "" {
			version = "-"
		}
		rows = append(rows, []string{reg.Extension.Name, version, strings.Join(reg.Types, ", ")})
	}
	return renderTable([]string{"EXTENSION", "VERSION", "TYPES"}, rows)
}
