package cmd

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/config"
)

func newAppsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List the installed applications the assistant can launch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configx.New[AppConfig]("ASSISTANT")
			if err != nil {
				return err
			}
			apps, err := loadCatalog(cmd.Context(), *cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "json":
				raw, err := sonic.ConfigStd.MarshalIndent(apps.Entries(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(raw))
			case "yaml":
				raw, err := yaml.Marshal(apps.Entries())
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(raw))
			case "text", "":
				for _, e := range apps.Entries() {
					fmt.Fprintf(out, "%s\t%s\n", e.DisplayName, e.LaunchCommand)
				}
				fmt.Fprintf(out, "%d applications\n", apps.Len())
			default:
				return fmt.Errorf("unsupported format %q (text, json, yaml)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}
