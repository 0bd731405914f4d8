package main

import (
	"fmt"

	"github.com/hearthstay/server/pkg/config"
	"github.com/hearthstay/server/pkg/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change CLI settings",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		all := config.All()
		fields := make([]output.Field, 0, len(all))
		for _, k := range config.Keys() {
			v := all[k]
			if k == "api.token" && v != "" {
				v = "********"
			}
			fields = append(fields, output.Field{Label: k, Value: v})
		}
		return output.PrintRecord(config.GetConfigFilePath(), fieldsMap(fields), fields)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(config.GetString(args[0]))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "output.format" && !output.ValidateOutputFormat(args[1]) {
			return fmt.Errorf("unknown output format %q (json, table, text)", args[1])
		}
		if err := config.Set(args[0], args[1]); err != nil {
			return err
		}
		output.PrintSuccess("%s updated", args[0])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(config.GetConfigFilePath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configPathCmd)
}

func fieldsMap(fields []output.Field) map[string]any {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Label] = f.Value
	}
	return m
}
