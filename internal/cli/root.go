// Package cli recipectl 命令列工具
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"recipe-extractor/internal/app"
	"recipe-extractor/internal/core/batch"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"github.com/spf13/cobra"
)

// 建置時以 ldflags 注入
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// RootOptions 全域旗標
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
}

// runner 子命令共用的狀態
type runner struct {
	opts *RootOptions
	cfg  *config.Config
	// newApp 可在測試中替換
	newApp func(cmd *cobra.Command, cfg *config.Config) (*app.App, error)
}

// NewRootCommand 建立根命令與所有子命令
func NewRootCommand() *cobra.Command {
	return newRootCommand(&runner{opts: &RootOptions{}, newApp: defaultApp})
}

func newRootCommand(r *runner) *cobra.Command {

	cmd := &cobra.Command{
		Use:   "recipectl",
		Short: "Extract, normalize and store recipes from free-form text",
		Long: `recipectl turns recipe posts into structured records: ingredients with
normalized amounts, ordered steps and metadata. Records with too few valid
ingredients are rejected before they reach the store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.init(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&r.opts.ConfigPath, "config", "c", "", "config file path (default: ./config.yaml or ./configs/config.yaml)")
	pf.StringVar(&r.opts.LogLevel, "log-level", "", "log level (debug, info, warn, error, off); defaults to log_level from config")
	pf.StringVarP(&r.opts.OutputFormat, "output", "o", outputText, "output format (text, json)")

	cmd.AddCommand(
		r.newParseCommand(),
		r.newAmountCommand(),
		r.newIdentityCommand(),
		r.newIngestCommand(),
		r.newConsumeCommand(),
		r.newScrapeCommand(),
		r.newSyncSearchCommand(),
		newVersionCommand(),
	)
	return cmd
}

// Execute 入口
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	err := cmd.ExecuteContext(ctx)
	common.Sync()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func (r *runner) init(cmd *cobra.Command) error {
	switch r.opts.OutputFormat {
	case outputText, outputJSON:
	default:
		return fmt.Errorf("unsupported output format %q", r.opts.OutputFormat)
	}

	cfg, err := config.LoadConfig(r.opts.ConfigPath)
	if err != nil {
		return err
	}
	r.cfg = cfg

	level := r.opts.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	common.InitConsoleLogger(level)
	return nil
}

func defaultApp(cmd *cobra.Command, cfg *config.Config) (*app.App, error) {
	return app.New(cmd.Context(), cfg)
}

// print 依輸出格式輸出；text 為 nil 時以 JSON 輸出
func (r *runner) print(w io.Writer, v interface{}, text func(io.Writer)) error {
	if r.opts.OutputFormat == outputJSON || text == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

// readInput 讀取檔案；"-" 表示 stdin
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}

// inputFiles 展開目錄為其中的 .txt 與 .md 檔案，依名稱排序
func inputFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md":
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// summarize 依結果類型計數
func summarize(results []batch.Result) map[string]int {
	out := map[string]int{
		batch.OutcomeStored:    0,
		batch.OutcomeDuplicate: 0,
		batch.OutcomeRejected:  0,
		batch.OutcomeFailed:    0,
	}
	for _, res := range results {
		out[res.Outcome]++
	}
	return out
}

func writeSummary(w io.Writer, summary map[string]int) {
	fmt.Fprintf(w, "stored=%d duplicate=%d rejected=%d failed=%d\n",
		summary[batch.OutcomeStored],
		summary[batch.OutcomeDuplicate],
		summary[batch.OutcomeRejected],
		summary[batch.OutcomeFailed],
	)
}
