package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/five82/winloop/internal/config"
	"github.com/five82/winloop/internal/loop"
	"github.com/five82/winloop/internal/platform"
	"github.com/five82/winloop/internal/platform/headless"
)

func writeConfig(t *testing.T, body string) (configPath, logPath string) {
	t.Helper()
	dir := t.TempDir()
	logPath = filepath.Join(dir, "logs", "winloop.log")
	configPath = filepath.Join(dir, "config.toml")
	body = "log_file = \"" + filepath.ToSlash(logPath) + "\"\n" + body
	if err := os.WriteFile(configPath, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return configPath, logPath
}

func TestRun_CloseEventExitsCleanlyAndReleasesWindow(t *testing.T) {
	cfgPath, logPath := writeConfig(t, "")
	b := &headless.Backend{Events: []platform.Event{
		platform.CloseRequested{Window: headless.FirstWindow},
	}}

	if err := Run(context.Background(), Options{ConfigPath: cfgPath, Backend: b}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(b.Released()) != 1 {
		t.Fatalf("Released = %v, want one window", b.Released())
	}

	logs, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile(log): %v", err)
	}
	if !strings.Contains(string(logs), `"reason":"close requested"`) {
		t.Fatalf("log does not record the close request:\n%s", logs)
	}
}

func TestRun_NoDisplayIsFatalBeforeWindow(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")
	b := &headless.Backend{NoDisplay: true}

	err := Run(context.Background(), Options{ConfigPath: cfgPath, Backend: b})
	var initErr *platform.PlatformInitError
	if !errors.As(err, &initErr) {
		t.Fatalf("Run error = %v, want *PlatformInitError", err)
	}
	if len(b.Released()) != 0 {
		t.Fatalf("a window was created and released: %v", b.Released())
	}
}

func TestRun_X11WithoutDisplayFails(t *testing.T) {
	t.Setenv("DISPLAY", "")
	cfgPath, _ := writeConfig(t, `backend = "x11"`)

	err := Run(context.Background(), Options{ConfigPath: cfgPath})
	if !errors.Is(err, platform.ErrNoDisplay) || !platform.IsFatal(err) {
		t.Fatalf("Run error = %v, want fatal ErrNoDisplay", err)
	}
}

func TestRun_WindowCreationFailureIsFatal(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")
	b := &headless.Backend{FailWindow: errors.New("no surface")}

	err := Run(context.Background(), Options{ConfigPath: cfgPath, Backend: b})
	var winErr *platform.WindowCreationError
	if !errors.As(err, &winErr) {
		t.Fatalf("Run error = %v, want *WindowCreationError", err)
	}
}

func TestRun_CancelledContextTerminates(t *testing.T) {
	cfgPath, _ := writeConfig(t, `
backend = "headless"
control_flow = "poll"
poll_interval = "1ms"
heartbeat = "1ms"
`)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := Run(ctx, Options{ConfigPath: cfgPath}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfgPath, _ := writeConfig(t, `control_flow = "spin"`)
	err := Run(context.Background(), Options{ConfigPath: cfgPath})
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("Run error = %v, want load config error", err)
	}
}

func TestStart_FallsBackAndReportsFirstFailure(t *testing.T) {
	cfg := config.Default()
	logger, closeLog, err := openLogger(config.Config{LogFile: filepath.Join(t.TempDir(), "x.log")})
	if err != nil {
		t.Fatalf("openLogger: %v", err)
	}
	defer closeLog()

	first := &headless.Backend{NoDisplay: true}
	second := &headless.Backend{}
	ctrl, err := start(context.Background(), []platform.Backend{first, second}, cfg, logger)
	if err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	_ = ctrl.Close()

	_, err = start(context.Background(), []platform.Backend{&headless.Backend{NoDisplay: true}, &headless.Backend{NoDisplay: true}}, cfg, logger)
	if !errors.Is(err, platform.ErrNoDisplay) {
		t.Fatalf("start error = %v, want ErrNoDisplay", err)
	}
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		backend string
		want    []string
	}{
		{"auto", []string{"x11", "terminal"}},
		{"terminal", []string{"terminal"}},
		{"headless", []string{"headless"}},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.Backend = tt.backend
		got, err := candidates(cfg)
		if err != nil {
			t.Fatalf("candidates(%q): %v", tt.backend, err)
		}
		var names []string
		for _, b := range got {
			names = append(names, b.Name())
		}
		if strings.Join(names, ",") != strings.Join(tt.want, ",") {
			t.Fatalf("candidates(%q) = %v, want %v", tt.backend, names, tt.want)
		}
	}
	if _, err := candidates(config.Config{Backend: "wayland"}); err == nil {
		t.Fatal("candidates(wayland) returned nil error")
	}
}

func TestStartHeartbeat_DeliversThroughProxy(t *testing.T) {
	ctrl, err := loop.New(loop.Options{Backend: &headless.Backend{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ctrl.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := ctrl.CreateWindow(platform.DefaultWindowAttributes()); err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartHeartbeat(ctx, ctrl.Proxy(), time.Millisecond)

	var seqs []int
	term, err := ctrl.Run(ctx, func(ev platform.Event) platform.Directive {
		if u, ok := ev.(platform.UserEvent); ok {
			seqs = append(seqs, u.Payload.(Heartbeat).Seq)
			if len(seqs) == 3 {
				return platform.Exit
			}
		}
		return platform.Continue
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if term.Reason != loop.ReasonHandlerExit {
		t.Fatalf("Reason = %s, want %s", term.Reason, loop.ReasonHandlerExit)
	}
	for i, s := range seqs {
		if s != i+1 {
			t.Fatalf("heartbeat seqs = %v, want 1,2,3", seqs)
		}
	}
}
