package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"easybingo/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the saved language and theme",
	Long: `Without flags, prints the effective settings. With --locale or --theme,
writes them to config.yaml so later runs pick them up.`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, _ []string) error {
	localeChanged := cmd.Flags().Changed("locale")
	themeChanged := cmd.Flags().Changed("theme")

	cfg, dir, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if localeChanged || themeChanged {
		loc, theme := "", ""
		if localeChanged {
			loc = cfg.Locale
		}
		if themeChanged {
			theme = cfg.Theme
		}
		if err := config.SaveSettings(dir, loc, theme); err != nil {
			return err
		}
		fmt.Fprintln(out, "Settings saved.")
	}

	fmt.Fprintf(out, "config:     %s\n", dir)
	fmt.Fprintf(out, "locale:     %s\n", cfg.Locale)
	fmt.Fprintf(out, "theme:      %s\n", cfg.Theme)
	fmt.Fprintf(out, "store:      %s\n", cfg.Store)
	fmt.Fprintf(out, "recognizer: %s\n", cfg.Recognizer)
	fmt.Fprintf(out, "speech:     %s\n", cfg.Speech)
	return nil
}
