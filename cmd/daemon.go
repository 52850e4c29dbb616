package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/config"
	"github.com/theirongolddev/koshin/internal/daemon"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background reminder daemon with HTTP/SSE endpoints",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	pf.DurationVar(&flagDaemonInterval, "interval", 0, "Reminder check interval (default from config)")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(config.StateDir(), "koshind.pid"), "PID file path")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.StateDir(), "koshind.log"), "Log file for --detach")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Events kept in memory for /v1/events (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run the daemon in the background")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonRuntimeState is written next to the pid file so status can find the
// listen address without reading config.
type daemonRuntimeState struct {
	PID         int       `json:"pid"`
	Addr        string    `json:"addr"`
	StartedAt   time.Time `json:"started_at"`
	StoragePath string    `json:"storage_path"`
}

// daemonFiles is the pid file plus its JSON state sidecar.
type daemonFiles struct {
	pid   string
	state string
}

func daemonFilesAt(pidFile string) daemonFiles {
	return daemonFiles{pid: pidFile, state: pidFile + ".json"}
}

// running reports the recorded pid and whether that process is alive. A
// missing pid file yields an error matching os.ErrNotExist.
func (f daemonFiles) running() (int, bool, error) {
	//nolint:gosec // path is configured by the local user
	data, err := os.ReadFile(f.pid)
	if err != nil {
		return 0, false, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("invalid pid in %s", f.pid)
	}
	return pid, processAlive(pid), nil
}

// ensureFree fails if a live daemon owns the files and clears stale ones.
func (f daemonFiles) ensureFree() error {
	pid, alive, err := f.running()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case alive:
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	f.release()
	return nil
}

func (f daemonFiles) claim(st daemonRuntimeState) error {
	if err := os.MkdirAll(filepath.Dir(f.pid), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(f.pid, []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.state, append(data, '\n'), 0o600)
}

func (f daemonFiles) release() {
	_ = os.Remove(f.pid)
	_ = os.Remove(f.state)
}

func (f daemonFiles) readState() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	//nolint:gosec // path is configured by the local user
	data, err := os.ReadFile(f.state)
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	switch {
	case flagDaemonDetach && flagDaemonChild:
		return errors.New("invalid daemon launch mode")
	case flagDaemonDetach:
		return startDaemonDetached()
	default:
		return runDaemonForeground()
	}
}

// withoutDetach strips --detach so the child runs in the foreground.
func withoutDetach(args []string) []string {
	return slices.DeleteFunc(slices.Clone(args), func(a string) bool {
		return a == "--detach" || strings.HasPrefix(a, "--detach=")
	})
}

func startDaemonDetached() error {
	if err := daemonFilesAt(flagDaemonPIDFile).ensureFree(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}
	//nolint:gosec // path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, append(withoutDetach(os.Args[1:]), "--child")...) //nolint:gosec // re-exec of this binary
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  デーモンを起動しました (pid %d)\n", child.Process.Pid)
	fmt.Printf("  API:  http://%s/v1/status\n", daemonAddr())
	fmt.Printf("  ログ: %s\n", flagDaemonLogFile)
	return nil
}

// daemonConfig merges daemon flags over the [daemon] config section.
func daemonConfig(cfg config.Config, storagePath string) daemon.Config {
	dc := daemon.Config{
		StoragePath:  storagePath,
		UpcomingDays: cfg.General.UpcomingDays,
		Interval:     time.Duration(cfg.Daemon.IntervalSec) * time.Second,
		Addr:         cfg.Daemon.Addr,
		EventsBuffer: cfg.Daemon.EventsBuffer,
	}
	if flagDaemonAddr != "" {
		dc.Addr = flagDaemonAddr
	}
	if flagDaemonInterval > 0 {
		dc.Interval = flagDaemonInterval
	}
	if flagDaemonEventsBuffer > 0 {
		dc.EventsBuffer = flagDaemonEventsBuffer
	}
	return dc
}

func daemonAddr() string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	if cfg, err := loadConfig(); err == nil && cfg.Daemon.Addr != "" {
		return cfg.Daemon.Addr
	}
	return config.DefaultConfig().Daemon.Addr
}

func runDaemonForeground() error {
	files := daemonFilesAt(flagDaemonPIDFile)
	if err := files.ensureFree(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if flagLogLevel == "" {
		flagLogLevel = "info"
	}
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := daemonConfig(rt.cfg, rt.storagePath)
	st := daemonRuntimeState{
		PID:         os.Getpid(),
		Addr:        cfg.Addr,
		StartedAt:   time.Now(),
		StoragePath: rt.storagePath,
	}
	if err := files.claim(st); err != nil {
		return err
	}
	defer files.release()

	rt.log.Info("daemon starting",
		zap.String("op", "cmd.runDaemonForeground"),
		zap.Int("pid", st.PID),
		zap.String("addr", cfg.Addr),
		zap.Duration("interval", cfg.Interval),
		zap.String("storage", rt.storagePath),
	)
	fmt.Printf("  koshin daemon: http://%s\n", cfg.Addr)
	fmt.Printf("  %s ごとにリマインダーを確認します (%s)\n", cfg.Interval, rt.storagePath)

	svc := daemon.New(cfg, rt.manager, rt.notifier, rt.log)
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		rt.log.Error("daemon stopped", zap.String("op", "cmd.runDaemonForeground"), zap.Error(err))
		return err
	}
	rt.log.Info("daemon stopped", zap.String("op", "cmd.runDaemonForeground"))
	return nil
}

// getDaemonJSON decodes one daemon API response into v.
func getDaemonJSON(ctx context.Context, addr, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	files := daemonFilesAt(flagDaemonPIDFile)
	pid, alive, err := files.running()
	switch {
	case err != nil:
		fmt.Println("  デーモン: 停止中")
		return nil
	case !alive:
		fmt.Printf("  デーモン: 停止中 (pid %d のファイルが残っています)\n", pid)
		return nil
	}

	addr := daemonAddr()
	if st, err := files.readState(); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	fmt.Println(cli.RenderTitle("koshin daemon"))
	fmt.Println(cli.RenderField("PID", strconv.Itoa(pid)))
	fmt.Println(cli.RenderField("アドレス", "http://"+addr))

	var st daemon.Status
	if err := getDaemonJSON(cmd.Context(), addr, "/v1/status", &st); err != nil {
		fmt.Println(cli.RenderField("API", "応答なし ("+err.Error()+")"))
		return nil
	}

	lastPoll := "未実行"
	if !st.LastPollAt.IsZero() {
		lastPoll = humanize.Time(st.LastPollAt)
	}
	fmt.Println(cli.RenderField("起動", humanize.Time(st.StartedAt)))
	fmt.Println(cli.RenderField("最終確認", fmt.Sprintf("%s (%d回)", lastPoll, st.PollCount)))
	fmt.Println(cli.RenderField("保存先", st.StoragePath))
	fmt.Println(cli.RenderField("契約数", strconv.Itoa(st.Summary.Contracts)))
	fmt.Println(cli.RenderField("年間合計", cli.RenderCost(cli.FormatCurrency(st.Summary.AnnualCostJPY))))
	fmt.Println(cli.RenderField("予約中の通知", strconv.Itoa(st.Summary.PendingReminders)))
	if st.Delivered > 0 {
		fmt.Println(cli.RenderField("配信済み", fmt.Sprintf("%d件 (最終 %s)", st.Delivered, humanize.Time(st.LastDeliveredAt))))
	}
	if st.LastError != "" {
		fmt.Println(cli.RenderField("エラー", st.LastError))
	}

	var upcoming []daemon.Upcoming
	if err := getDaemonJSON(cmd.Context(), addr, "/v1/upcoming", &upcoming); err == nil && len(upcoming) > 0 {
		fmt.Printf("\n  %d日以内の更新\n", st.UpcomingDays)
		for _, u := range upcoming {
			fmt.Printf("    %s %s  %s\n", u.Category.Emoji(), u.Name, cli.RenderUrgency(u.Urgency, u.Status))
		}
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	files := daemonFilesAt(flagDaemonPIDFile)
	pid, alive, err := files.running()
	if err != nil || !alive {
		files.release()
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()
	timeout := time.After(8 * time.Second)
	for {
		select {
		case <-tick.C:
			if !processAlive(pid) {
				files.release()
				fmt.Printf("  デーモンを停止しました (pid %d)\n", pid)
				return nil
			}
		case <-timeout:
			return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
		}
	}
}
