//go:build darwin

package probe

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func scriptRunner(answers map[string]string) Runner {
	return func(_ context.Context, name string, args ...string) (string, error) {
		script := args[len(args)-1]
		for needle, out := range answers {
			if strings.Contains(script, needle) {
				return out + "\n", nil
			}
		}
		return "", errors.New("execution error")
	}
}

func TestMacProbeBrowserURL(t *testing.T) {
	p := &macProbe{
		run: scriptRunner(map[string]string{
			"frontmost is true":      "Safari",
			"URL of front document":  "https://news.ycombinator.com/",
			"name of front document": "Hacker News",
		}),
		isBrowser: func(app string) bool { return app == "Safari" },
	}
	f, err := p.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if f.URL == nil || *f.URL != "https://news.ycombinator.com/" || f.WindowTitle != "Hacker News" {
		t.Errorf("unexpected focus: %+v", f)
	}
}

func TestMacProbeNonBrowserHasNoURL(t *testing.T) {
	p := &macProbe{
		run: scriptRunner(map[string]string{
			"get name of first application process": "Terminal",
			"get name of front window":              "zsh",
		}),
		isBrowser: func(string) bool { return false },
	}
	f, err := p.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if f.AppName != "Terminal" || f.URL != nil {
		t.Errorf("unexpected focus: %+v", f)
	}
}
