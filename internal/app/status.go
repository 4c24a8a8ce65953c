package app

import (
	"context"
	"time"
)

// Status is a snapshot of the cache and refresh state
type Status struct {
	FeedURL       string     `json:"feed_url" yaml:"feed_url"`
	CacheValid    bool       `json:"cache_valid" yaml:"cache_valid"`
	CachedPosts   int        `json:"cached_posts" yaml:"cached_posts"`
	CacheAge      *int64     `json:"cache_age,omitempty" yaml:"cache_age,omitempty"`
	ExpiresIn     *int64     `json:"expires_in,omitempty" yaml:"expires_in,omitempty"`
	LastUpdated   int64      `json:"last_updated" yaml:"last_updated"`
	LastMessage   string     `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	RegistrySize  int64      `json:"registry_size" yaml:"registry_size"`
	MediaCount    int64      `json:"media_count" yaml:"media_count"`
	NextScheduled *time.Time `json:"next_scheduled,omitempty" yaml:"next_scheduled,omitempty"`
}

// Status collects the current state; next is the next scheduled run, if any
func (a *App) Status(ctx context.Context, next time.Time, scheduled bool) (*Status, error) {
	opts, err := a.Options.Get(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{
		FeedURL:     opts.FeedURL,
		LastUpdated: opts.LastUpdated,
	}

	entry, err := a.Cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		st.CachedPosts = len(entry.Data)
	}

	if st.CacheValid, err = a.Cache.IsValid(ctx); err != nil {
		return nil, err
	}
	if age, ok, err := a.Cache.Age(ctx); err != nil {
		return nil, err
	} else if ok {
		st.CacheAge = &age
	}
	if remaining, ok, err := a.Cache.ExpiresIn(ctx); err != nil {
		return nil, err
	} else if ok {
		st.ExpiresIn = &remaining
	}

	if msg, ok, err := a.Refresher.Journal().Last(ctx); err != nil {
		return nil, err
	} else if ok {
		st.LastMessage = msg
	}

	if st.RegistrySize, err = a.Registry.Count(ctx); err != nil {
		return nil, err
	}
	if st.MediaCount, err = a.Media.Count(ctx); err != nil {
		return nil, err
	}

	if scheduled {
		st.NextScheduled = &next
	}
	return st, nil
}
