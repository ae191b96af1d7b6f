package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/timefmt"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tests on the volume",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg := config.NewRegistry(volume(), cfg.Storage)
		entries, err := reg.Scan()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), grayStyle.Render("No tests found"))
			return nil
		}

		rows := [][]string{{"NAME", "TITLE", "CYCLES", "ON", "OFF", "DURATION"}}
		for _, e := range entries {
			tc, err := reg.Load(e.Name)
			if err != nil {
				rows = append(rows, []string{e.Name, errorStyle.Render(err.Error()), "", "", "", ""})
				continue
			}
			rows = append(rows, testRow(e.Name, tc))
		}
		fmt.Fprintln(cmd.OutOrStdout(), table(rows))
		return nil
	},
}

func testRow(name string, tc *config.TestConfig) []string {
	spec, err := tc.Spec()
	if err != nil {
		return []string{name, errorStyle.Render(err.Error()), "", "", "", ""}
	}
	total := spec.Period() * time.Duration(tc.Cycles)
	return []string{
		name,
		strings.Join(tc.Title, " "),
		humanize.Comma(int64(tc.Cycles)),
		formatDuration(spec.OnTime),
		formatDuration(spec.OffTime),
		formatDuration(total),
	}
}

func formatDuration(d time.Duration) string {
	return timefmt.FormatDuration(d, 2, false)
}

var checkCmd = &cobra.Command{
	Use:   "check [name...]",
	Short: "Validate test files",
	Long:  `Load and validate test files. Without arguments every test on the volume is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg := config.NewRegistry(volume(), cfg.Storage)
		entries, err := reg.Scan()
		if err != nil {
			return err
		}

		names := args
		if len(names) == 0 {
			for _, e := range entries {
				names = append(names, e.Name)
			}
		}

		failed := 0
		for _, name := range names {
			tc, err := reg.Load(name)
			if err == nil {
				_, err = tc.Spec()
			}
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", errorStyle.Render("FAIL"), name, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("OK  "), name)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d tests are invalid", failed, len(names))
		}
		return nil
	},
}
