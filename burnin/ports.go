package main

import (
	"fmt"

	"github.com/Tamagotono/CycleTester/pkg/output"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports for the relay board",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := output.Ports()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), grayStyle.Render("No serial ports found"))
			return nil
		}
		rows := [][]string{{"PORT", "DESCRIPTION"}}
		for _, p := range ports {
			rows = append(rows, []string{p.Name, p.Description})
		}
		fmt.Fprintln(cmd.OutOrStdout(), table(rows))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "burnin "+version)
	},
}
