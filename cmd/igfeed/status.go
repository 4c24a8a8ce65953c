package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igfeed/internal/app"
	"igfeed/internal/scheduler"
	"igfeed/pkg/models"
	"igfeed/pkg/ui"
)

var (
	outputFormat string
	showCount    int
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cache and refresh state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cached feed",
	Long: `Print the cached feed. When nothing is cached a refresh runs first,
the same as a read through the API.`,
	Example: `  igfeed show
  igfeed show --count 3 --output json`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(showCmd)

	statusCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, yaml)")
	showCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, yaml)")
	showCmd.Flags().IntVarP(&showCount, "count", "n", 0, "number of posts (default post_count)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var next time.Time
	scheduled := a.Config.Schedule.Enabled
	if scheduled {
		sched, err := scheduler.New(ctx, a.Config.Schedule, a.Hooks, a.Logger)
		if err != nil {
			return err
		}
		if next, err = sched.NextAfter(time.Now()); err != nil {
			return err
		}
	}

	st, err := a.Status(ctx, next, scheduled)
	if err != nil {
		return err
	}

	if outputFormat != "text" {
		return printStructured(st)
	}

	out := ui.Default()
	out.Highlight("Feed status")
	out.Fields(statusFields(st))
	return nil
}

func statusFields(st *app.Status) []ui.Field {
	valid := "no"
	if st.CacheValid {
		valid = "yes"
	}

	fields := []ui.Field{
		{Label: "Feed URL", Value: st.FeedURL},
		{Label: "Cache valid", Value: valid},
		{Label: "Cached posts", Value: strconv.Itoa(st.CachedPosts)},
		{Label: "Cache age", Value: formatSeconds(st.CacheAge)},
		{Label: "Expires in", Value: formatSeconds(st.ExpiresIn)},
		{Label: "Last updated", Value: formatUnix(st.LastUpdated)},
		{Label: "Last message", Value: st.LastMessage},
		{Label: "Registered images", Value: strconv.FormatInt(st.RegistrySize, 10)},
		{Label: "Media files", Value: strconv.FormatInt(st.MediaCount, 10)},
	}
	next := ""
	if st.NextScheduled != nil {
		next = st.NextScheduled.Format(time.RFC1123)
	}
	return append(fields, ui.Field{Label: "Next scheduled", Value: next})
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := a.Options.Get(ctx)
	if err != nil {
		return err
	}
	count := opts.PostCount
	if showCount > 0 {
		count = showCount
	}

	entry, err := a.Refresher.GetData(ctx)
	if err != nil {
		return err
	}
	if entry == nil {
		entry = &models.CacheEntry{}
	}
	if len(entry.Data) > count {
		entry.Data = entry.Data[:count]
	}
	if entry.Data == nil {
		entry.Data = []models.Post{}
	}

	if outputFormat != "text" {
		return printStructured(entry)
	}

	out := ui.Default()
	if len(entry.Data) == 0 {
		out.Warning("No posts cached")
		return nil
	}
	out.Info("Cached at", formatUnix(entry.Timestamp))
	for _, p := range entry.Data {
		out.Highlight(p.InstagramID)
		out.Fields([]ui.Field{
			{Label: "Posted", Value: p.Timestamp},
			{Label: "Caption", Value: p.Caption},
			{Label: "Permalink", Value: p.Permalink},
			{Label: "Media", Value: strconv.FormatInt(p.MediaID, 10)},
		})
	}
	return nil
}

func printStructured(v interface{}) error {
	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		ui.Default().Raw(string(data) + "\n")
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		ui.Default().Raw(string(data))
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
	return nil
}

func formatSeconds(s *int64) string {
	if s == nil {
		return ""
	}
	return (time.Duration(*s) * time.Second).String()
}

func formatUnix(ts int64) string {
	if ts == 0 {
		return "never"
	}
	return time.Unix(ts, 0).Format(time.RFC1123)
}
