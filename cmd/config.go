package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xvierd/focusflow/internal/config"
	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/preset"
)

var (
	setWork          int
	setShortBreak    int
	setLongBreak     int
	setCycle         int
	setTheme         string
	setPreset        string
	setNotifications bool
	setSound         bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View timer settings and presets",
	Long:  `Show the config file, your timer settings and the available presets.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := localState(ctx); err != nil {
			return err
		}
		settings, err := app.settings.GetSettings(ctx, app.user.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]any{
				"configFile":    currentConfigPath(),
				"defaultPreset": app.config.Timer.DefaultPreset,
				"settings":      settings,
				"presets":       preset.All(settings),
			})
		}
		showConfig(out, settings)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change timer settings",
	Long: `Change your timer settings. Durations are minutes. Only the flags you
pass are changed.

  focusflow config set --work 45 --short 10
  focusflow config set --preset classic --notifications=false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := localState(ctx); err != nil {
			return err
		}
		flags := cmd.Flags()

		settings, err := app.settings.GetSettings(ctx, app.user.ID)
		if err != nil {
			return err
		}
		changed := false
		if flags.Changed("work") {
			settings.SessionDuration, changed = setWork, true
		}
		if flags.Changed("short") {
			settings.ShortBreak, changed = setShortBreak, true
		}
		if flags.Changed("long") {
			settings.LongBreak, changed = setLongBreak, true
		}
		if flags.Changed("cycle") {
			settings.SessionsPerCycle, changed = setCycle, true
		}
		if flags.Changed("theme") {
			settings.Theme, changed = domain.Theme(setTheme), true
		}
		if changed {
			settings, err = app.settings.UpdateSettings(ctx, app.user.ID, settings)
			if err != nil {
				return fmt.Errorf("failed to update settings: %w", err)
			}
		}

		saveFile := false
		if flags.Changed("preset") {
			name, err := preset.Parse(setPreset)
			if err != nil {
				return err
			}
			app.config.Timer.DefaultPreset = string(name)
			saveFile = true
		}
		if flags.Changed("notifications") {
			app.config.Notifications.Enabled = setNotifications
			saveFile = true
		}
		if flags.Changed("sound") {
			app.config.Notifications.Sound = setSound
			saveFile = true
		}
		if saveFile {
			if err := config.SaveTo(currentConfigPath(), app.config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
		}

		if !changed && !saveFile {
			return cmd.Help()
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, settings)
		}
		fmt.Fprintln(out, "Saved.")
		showConfig(out, settings)
		return nil
	},
}

func init() {
	f := configSetCmd.Flags()
	f.IntVar(&setWork, "work", 0, "Focus session length in minutes (1-120)")
	f.IntVar(&setShortBreak, "short", 0, "Short break length in minutes (1-30)")
	f.IntVar(&setLongBreak, "long", 0, "Long break length in minutes (1-60)")
	f.IntVar(&setCycle, "cycle", 0, "Focus sessions before a long break (2-8)")
	f.StringVar(&setTheme, "theme", "", "Web theme: light or dark")
	f.StringVar(&setPreset, "preset", "", "Default preset for the timer: 30min, 50min, classic or custom")
	f.BoolVar(&setNotifications, "notifications", true, "Desktop notifications when an interval ends")
	f.BoolVar(&setSound, "sound", true, "Play a sound with notifications")

	configCmd.AddCommand(configSetCmd)
}

func currentConfigPath() string {
	if configPath != "" {
		return configPath
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return ""
	}
	return path
}

func showConfig(w io.Writer, settings domain.TimerSettings) {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Config file:    %s\n", currentConfigPath())
	fmt.Fprintf(w, "  Database:       %s\n", config.GetDBPath(app.config))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Timer settings:")
	fmt.Fprintf(w, "    Focus:                 %dm\n", settings.SessionDuration)
	fmt.Fprintf(w, "    Short break:           %dm\n", settings.ShortBreak)
	fmt.Fprintf(w, "    Long break:            %dm\n", settings.LongBreak)
	fmt.Fprintf(w, "    Sessions before long:  %d\n", settings.SessionsPerCycle)
	fmt.Fprintf(w, "    Theme:                 %s\n", settings.Theme)
	fmt.Fprintf(w, "    Notifications:         %s (sound %s)\n",
		onOff(app.config.Notifications.Enabled), onOff(app.config.Notifications.Sound))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Presets:")
	for _, p := range preset.All(settings) {
		marker := " "
		if string(p.Name) == app.config.Timer.DefaultPreset {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %-8s %2dm / %2dm / %2dm  %s\n", marker, p.Name,
			p.Mode.WorkMinutes, p.Mode.ShortBreakMinutes, p.Mode.LongBreakMinutes, p.Description)
	}
	fmt.Fprintln(w)
}
