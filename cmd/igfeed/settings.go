package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"igfeed/pkg/options"
	"igfeed/pkg/ui"
)

// settingsCmd represents the settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the feed options",
}

// settingsShowCmd represents the settings show command
var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current options",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

// settingsSetCmd represents the settings set command
var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Validate and save options",
	Long: `Validate and save options. Options not given keep their current value.

Numbers are clamped to their allowed range: columns 1-4, post count 1-24,
cache duration 3600-604800 seconds. An unknown image size becomes "medium".
Changing the feed URL clears the cache.`,
	Example: `  igfeed settings set --feed-url https://example.com/feed.json
  igfeed settings set --columns 4 --post-count 8 --cache-duration 7200`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	settingsShowCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, yaml)")

	f := settingsSetCmd.Flags()
	f.String("feed-url", "", "JSON feed URL")
	f.String("columns", "", "grid columns (1-4)")
	f.String("image-size", "", "image size (thumbnail, medium, large, full)")
	f.String("post-count", "", "number of posts to cache (1-24)")
	f.String("cache-duration", "", "cache lifetime in seconds (3600-604800)")
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := a.Settings.Get(ctx)
	if err != nil {
		return err
	}

	if outputFormat != "text" {
		return printStructured(opts)
	}
	printOptions(opts)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.Settings.Get(ctx)
	if err != nil {
		return err
	}

	saved, err := a.Settings.Save(ctx, settingsInput(current, cmd.Flags()))
	if err != nil {
		return err
	}

	ui.Default().Success("Settings saved")
	printOptions(saved)
	return nil
}

// settingsInput overlays the changed flags on the current options
func settingsInput(current options.Options, flags *pflag.FlagSet) options.Input {
	in := current.Input()
	for flag, key := range map[string]string{
		"feed-url":       "feed_url",
		"columns":        "columns",
		"image-size":     "image_size",
		"post-count":     "post_count",
		"cache-duration": "cache_duration",
	} {
		if flags.Changed(flag) {
			in[key], _ = flags.GetString(flag)
		}
	}
	return in
}

func printOptions(opts options.Options) {
	ui.Default().Fields([]ui.Field{
		{Label: "Feed URL", Value: opts.FeedURL},
		{Label: "Columns", Value: strconv.Itoa(opts.Columns)},
		{Label: "Image size", Value: opts.ImageSize},
		{Label: "Post count", Value: strconv.Itoa(opts.PostCount)},
		{Label: "Cache duration", Value: strconv.Itoa(opts.CacheDuration) + "s"},
		{Label: "Last updated", Value: formatUnix(opts.LastUpdated)},
	})
}
