package app

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/samvad-hq/safefetch/internal/config"
	"github.com/samvad-hq/safefetch/internal/logger"
	"github.com/samvad-hq/safefetch/pkg/httpclient"
	"github.com/samvad-hq/safefetch/pkg/profiles"
	"github.com/samvad-hq/safefetch/pkg/safefetch"
)

// Runner fetches configured request profiles once and reports each classified
// result.
type Runner struct {
	cfg *config.Config
	reg *profiles.Registry
	log logger.Logger
}

// NewRunner builds a runner from config files.
func NewRunner(cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	reg, err := profiles.LoadRegistry(cfg.ProfilesFile)
	if err != nil {
		return nil, fmt.Errorf("load profiles registry: %w", err)
	}

	profileList := reg.All()
	ids := make([]string, 0, len(profileList))
	for _, p := range profileList {
		ids = append(ids, p.ID)
	}
	log.InfoObj("profiles registry loaded", "profiles_meta", map[string]any{
		"count": len(ids),
		"ids":   ids,
	})

	return &Runner{cfg: cfg, reg: reg, log: log}, nil
}

// Run fetches the given profile ids, or every loaded profile when none are
// given, printing each result to stdout. It returns an error when any fetch
// ended in a classified failure.
func (r *Runner) Run(ctx context.Context, ids []string) error {
	selected, err := r.selectProfiles(ids)
	if err != nil {
		return err
	}

	failures := 0
	for _, p := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.fetchOne(ctx, p) {
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d profile fetches failed", failures, len(selected))
	}
	return nil
}

func (r *Runner) selectProfiles(ids []string) ([]profiles.Profile, error) {
	if len(ids) == 0 {
		all := r.reg.All()
		if len(all) == 0 {
			return nil, fmt.Errorf("no profiles configured")
		}
		return all, nil
	}

	selected := make([]profiles.Profile, 0, len(ids))
	for _, id := range ids {
		p, ok := r.reg.ByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown profile id %q", id)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// fetchOne performs a single profile fetch and reports whether it succeeded.
func (r *Runner) fetchOne(ctx context.Context, p profiles.Profile) bool {
	client := safefetch.New(httpclient.NewRestyClient(p.Timeout()), r.log)

	result := client.Fetch(ctx, p.URL, safefetch.Request{
		Method:  p.Method,
		Headers: p.Headers,
		Query:   p.Query,
	})

	if fetchErr := result.Err(); fetchErr != nil {
		r.log.WarnObj("profile fetch failed", "fetch_result", map[string]any{
			"profile": p.ID,
			"kind":    fetchErr.Kind,
			"message": fetchErr.Message,
		})
		printResult(p.ID, map[string]any{"error": fetchErr})
		return false
	}

	r.log.InfoObj("profile fetch succeeded", "fetch_result", map[string]any{
		"profile": p.ID,
	})
	printResult(p.ID, map[string]any{"value": result.Value()})
	return true
}

func printResult(id string, payload map[string]any) {
	out, err := json.MarshalIndent(map[string]any{"profile": id, "result": payload}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result for %s: %v\n", id, err)
		return
	}
	fmt.Println(string(out))
}
