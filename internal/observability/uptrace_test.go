package observability

import (
	"context"
	"testing"

	"github.com/chapterpoints/chapter-scoring/internal/config"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

func TestInitUptrace_DisabledPathsReturnNoopShutdown(t *testing.T) {
	cases := map[string]config.Config{
		"toggle off": {
			UptraceEnabled: false,
			ServiceName:    "chapter-scoring-api",
			ServiceVersion: "dev",
			AppEnv:         config.EnvDev,
		},
		"empty dsn": {
			UptraceEnabled: true,
			UptraceDSN:     "   ",
			ServiceName:    "chapter-scoring-api",
			ServiceVersion: "dev",
			AppEnv:         config.EnvDev,
		},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			shutdown, err := InitUptrace(cfg, logging.NewNop())
			if err != nil {
				t.Fatalf("init uptrace: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown uptrace: %v", err)
			}
		})
	}
}
