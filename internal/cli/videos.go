package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/reelctl/internal/adapter"
	"github.com/mmcdole/reelctl/internal/domain"
)

const fullIDLen = 36

func (a *App) use(_ context.Context, args []string) error {
	if len(args) != 1 {
		return a.usageOf("use")
	}
	p, err := a.platformArg(args[0])
	if err != nil {
		return err
	}
	if err := a.Drafts.SetActivePlatform(p); err != nil {
		return a.fail("Failed to save platform: %v", err)
	}
	a.Terminal.Success(fmt.Sprintf("Default platform is now %s", p.DisplayName()))
	return nil
}

func (a *App) list(ctx context.Context, args []string) error {
	var p domain.Platform
	switch {
	case len(args) > 1:
		return a.usageOf("list")
	case len(args) == 1 && args[0] == "all":
	default:
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		var err error
		if p, err = a.platformArg(arg); err != nil {
			return err
		}
	}

	var page *domain.VideoPage
	err := a.do(ctx, "Loading videos", func(ctx context.Context) error {
		var err error
		page, err = a.Videos.List(ctx, p)
		return err
	})
	if err != nil {
		items, meta, ok := a.Videos.CachedList(p)
		if !ok {
			return reported(err)
		}
		fmt.Fprintln(a.ErrOut, adapter.DimStyle.Render("Showing cached results from "+meta.FetchedAt.Local().Format(time.Kitchen)))
		page = &domain.VideoPage{Items: items, Total: len(items)}
	}

	fmt.Fprint(a.Out, renderVideos(page.Items, a.Drafts))
	if page.Total > len(page.Items) {
		fmt.Fprintln(a.Out, adapter.DimStyle.Render(fmt.Sprintf("showing %d of %d", len(page.Items), page.Total)))
	}
	return nil
}

func (a *App) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usageOf("show")
	}
	id, err := a.resolveID(args[0])
	if err != nil {
		return err
	}

	var entry domain.VideoEntry
	err = a.do(ctx, "Loading video", func(ctx context.Context) error {
		e, err := a.Videos.Get(ctx, id)
		if err == nil {
			entry = *e
		}
		return err
	})
	if err != nil {
		cached, _, ok := a.Videos.CachedVideo(id)
		if !ok {
			return reported(err)
		}
		fmt.Fprintln(a.ErrOut, adapter.DimStyle.Render("Showing cached copy"))
		entry = cached
	}

	draft, hasDraft := a.Drafts.Get(entry.ID)
	fmt.Fprint(a.Out, renderVideo(entry, draft, hasDraft))
	return nil
}

func (a *App) create(ctx context.Context, args []string) error {
	fs := a.flagSet("create")
	number := fs.Int("number", 0, "video number (default: next free number)")
	description := fs.String("description", "", "caption")
	rest, err := parseFlags(fs, args)
	if err != nil || len(rest) > 1 {
		return a.usageOf("create")
	}
	arg := ""
	if len(rest) == 1 {
		arg = rest[0]
	}
	p, err := a.platformArg(arg)
	if err != nil {
		return err
	}

	var entry *domain.VideoEntry
	err = a.do(ctx, "Creating video", func(ctx context.Context) error {
		var err error
		if *number > 0 {
			entry, err = a.Videos.Create(ctx, domain.VideoCreateRequest{
				Platform:    p,
				VideoNumber: *number,
				Description: *description,
			})
		} else {
			entry, err = a.Videos.CreateNext(ctx, p, *description)
		}
		return err
	})
	if err != nil {
		return reported(err)
	}
	fmt.Fprintf(a.Out, "%s #%d %s\n", adapter.PlatformBadge(entry.Platform), entry.VideoNumber, entry.ID)
	return nil
}

func (a *App) edit(_ context.Context, args []string) error {
	fs := a.flagSet("edit")
	var patch domain.DraftPatch
	fs.Func("description", "caption", func(s string) error { patch.Description = &s; return nil })
	fs.Func("youtube", "YouTube description", func(s string) error { patch.YouTubeDescription = &s; return nil })
	fs.Func("schedule", "publish time (RFC 3339)", func(s string) error {
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("must be an RFC 3339 timestamp")
		}
		patch.ScheduledTime = &s
		return nil
	})
	rest, err := parseFlags(fs, args)
	if err != nil || len(rest) != 1 {
		return a.usageOf("edit")
	}
	if patch.Description == nil && patch.YouTubeDescription == nil && patch.ScheduledTime == nil {
		return a.fail("Nothing to change: pass -description, -youtube or -schedule")
	}

	id, err := a.resolveID(rest[0])
	if err != nil {
		return err
	}
	if _, err := a.Drafts.Update(id, patch); err != nil {
		return a.fail("Failed to save draft: %v", err)
	}
	a.Terminal.Success(fmt.Sprintf("Draft updated. Run 'reelctl save %s' to upload it.", shortID(id)))
	return nil
}

func (a *App) save(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usageOf("save")
	}
	id, err := a.resolveID(args[0])
	if err != nil {
		return err
	}
	return reported(a.do(ctx, "Saving video", func(ctx context.Context) error {
		_, err := a.Videos.SaveDraft(ctx, id)
		return err
	}))
}

func (a *App) discard(_ context.Context, args []string) error {
	if len(args) != 1 {
		return a.usageOf("discard")
	}
	id, err := a.resolveID(args[0])
	if err != nil {
		return err
	}
	if _, ok := a.Drafts.Get(id); !ok {
		return a.fail("No unsaved changes for this video")
	}
	if err := a.Drafts.Clear(id); err != nil {
		return a.fail("Failed to discard draft: %v", err)
	}
	a.Terminal.Success("Changes discarded")
	return nil
}

func (a *App) listDrafts(_ context.Context, args []string) error {
	fs := a.flagSet("drafts")
	filter := fs.String("filter", "", "fuzzy match on the draft text")
	if rest, err := parseFlags(fs, args); err != nil || len(rest) > 0 {
		return a.usageOf("drafts")
	}

	found := a.Drafts.Filter(*filter)
	if len(found) == 0 {
		fmt.Fprintln(a.Out, adapter.DimStyle.Render("No unsaved changes"))
		return nil
	}
	fmt.Fprint(a.Out, renderDrafts(found, a.Videos))
	return nil
}

func (a *App) clearDrafts(_ context.Context, args []string) error {
	if len(args) > 0 {
		return a.usageOf("clear-drafts")
	}
	if err := a.Drafts.ClearAll(); err != nil {
		return a.fail("Failed to discard drafts: %v", err)
	}
	a.Terminal.Success("All unsaved changes discarded")
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	fs := a.flagSet("delete")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	rest, err := parseFlags(fs, args)
	if err != nil || len(rest) != 1 {
		return a.usageOf("delete")
	}
	id, err := a.resolveID(rest[0])
	if err != nil {
		return err
	}

	if !*yes {
		ok, err := a.Prompt.Confirm(fmt.Sprintf("Delete video %s?", shortID(id)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.ErrOut, "Cancelled")
			return nil
		}
	}

	return reported(a.do(ctx, "Deleting video", func(ctx context.Context) error {
		return a.Videos.Delete(ctx, id)
	}))
}

func (a *App) copy(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.usageOf("copy")
	}
	id, err := a.resolveID(args[0])
	if err != nil {
		return err
	}
	target, err := a.platformArg(args[1])
	if err != nil {
		return err
	}

	var entry *domain.VideoEntry
	err = a.do(ctx, "Copying video", func(ctx context.Context) error {
		var err error
		entry, err = a.Videos.Copy(ctx, id, target)
		return err
	})
	if err != nil {
		return reported(err)
	}
	fmt.Fprintf(a.Out, "%s #%d %s\n", adapter.PlatformBadge(entry.Platform), entry.VideoNumber, entry.ID)
	return nil
}

func (a *App) search(_ context.Context, args []string) error {
	if len(args) == 0 {
		return a.usageOf("search")
	}
	p := a.Drafts.ActivePlatform()
	if len(args) > 1 {
		if parsed, err := domain.ParsePlatform(args[0]); err == nil {
			p, args = parsed, args[1:]
		}
	}
	query := strings.Join(args, " ")

	if _, _, ok := a.Videos.CachedList(p); !ok {
		return a.fail("No cached %s videos. Run 'reelctl list %s' first.", p.DisplayName(), p)
	}
	results := a.Videos.Search(p, query)
	if len(results) == 0 {
		fmt.Fprintln(a.Out, adapter.DimStyle.Render("No matches"))
		return nil
	}
	fmt.Fprint(a.Out, renderSearch(results))
	return nil
}

// resolveID expands a short ID prefix using the cached lists
func (a *App) resolveID(arg string) (string, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if len(arg) >= fullIDLen {
		return arg, nil
	}

	matches := make(map[string]bool)
	for _, p := range append([]domain.Platform{""}, domain.Platforms...) {
		items, _, ok := a.Videos.CachedList(p)
		if !ok {
			continue
		}
		for _, e := range items {
			if strings.HasPrefix(e.ID, arg) {
				matches[e.ID] = true
			}
		}
	}
	for _, d := range a.Drafts.All() {
		if strings.HasPrefix(d.ID, arg) {
			matches[d.ID] = true
		}
	}

	switch len(matches) {
	case 0:
		return arg, nil
	case 1:
		for id := range matches {
			return id, nil
		}
	}
	return "", a.fail("ID %q matches %d videos; use more characters", arg, len(matches))
}
