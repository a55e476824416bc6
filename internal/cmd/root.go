package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allanpk716/docx_filler/internal/catalog"
	"github.com/allanpk716/docx_filler/internal/config"
	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/extractor"
	"github.com/allanpk716/docx_filler/internal/logging"
	"github.com/allanpk716/docx_filler/internal/processor"
)

const (
	// AppName 程序名称
	AppName = "docx-filler"
	// AppVersion 程序版本
	AppVersion = "1.0.0"
)

// app 各子命令共享的运行状态
type app struct {
	args          CommandLineArgs
	configManager config.ConfigManager
	cfg           *config.Config
	logger        *zap.Logger
}

// NewRootCommand 构建命令行入口
func NewRootCommand() *cobra.Command {
	a := &app{configManager: config.NewConfigManager()}

	root := &cobra.Command{
		Use:           AppName,
		Short:         "用字段值填充 Word 和文本模板中的 ![Name] 占位符",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.args.ConfigFile, "config", "c", "", "配置文件路径 (JSON 或 YAML)")
	root.PersistentFlags().BoolVarP(&a.args.Verbose, "verbose", "v", false, "输出调试日志")

	root.AddCommand(a.fillCommand(), a.batchCommand(), a.extractCommand(), a.catalogCommand(), versionCommand())
	return root
}

// init 加载配置并创建日志记录器
func (a *app) init() error {
	if err := ValidateArgs(&a.args); err != nil {
		return fmt.Errorf("参数验证失败: %w", err)
	}

	verbose := a.args.Verbose
	if a.args.ConfigFile != "" {
		cfg, err := a.configManager.LoadConfig(a.args.ConfigFile)
		if err != nil {
			return fmt.Errorf("加载配置文件失败: %w", err)
		}
		a.cfg = cfg
		verbose = verbose || cfg.Processing.DetailedLogging
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	if a.cfg != nil {
		a.logger.Info("成功加载配置文件",
			zap.String("path", a.args.ConfigFile),
			zap.String("project", a.cfg.ProjectName),
			zap.Int("fields", len(a.cfg.Fields)))
	}
	return nil
}

func (a *app) processing() config.Processing {
	if a.cfg != nil {
		return *a.cfg.Processing
	}
	cfg := config.Config{}
	config.SetDefaults(&cfg)
	return *cfg.Processing
}

func (a *app) outputDir() string {
	if a.args.OutputDir != "" {
		return a.args.OutputDir
	}
	if dir := a.processing().OutputDir; dir != "" {
		return dir
	}
	return "."
}

func (a *app) naming() (processor.NamingFunc, error) {
	if a.args.Report {
		return processor.ReportFileName, nil
	}
	return processor.NamingFor(a.processing().FileNamePattern)
}

func (a *app) fields() (map[string]string, error) {
	return ResolveFields(a.configManager, a.cfg, a.args.Sets)
}

func (a *app) fillCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill <template>",
		Short: "填充单个模板",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := a.fields()
			if err != nil {
				return err
			}
			naming, err := a.naming()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			filler := processor.NewFiller(a.logger, naming)
			return ProcessSingleFile(ctx, filler, domain.FillRequest{
				TemplatePath:   args[0],
				Fields:         fields,
				OutputDir:      a.outputDir(),
				OutputFileName: a.args.OutputName,
			}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&a.args.OutputDir, "output-dir", "o", "", "输出目录")
	cmd.Flags().StringVarP(&a.args.OutputName, "name", "n", "", "输出文件名（默认自动生成）")
	cmd.Flags().StringArrayVarP(&a.args.Sets, "set", "s", nil, "字段值 Key=Value，可重复")
	cmd.Flags().BoolVar(&a.args.Report, "report", false, "使用 report_<uuid>_<时间戳> 命名输出文件")
	return cmd
}

func (a *app) batchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "并发填充目录中的所有模板",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := a.fields()
			if err != nil {
				return err
			}
			naming, err := a.naming()
			if err != nil {
				return err
			}

			concurrency := a.args.Concurrency
			if concurrency == 0 {
				concurrency = a.processing().MaxConcurrentFiles
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			batch := processor.NewBatchFiller(processor.NewFiller(a.logger, naming), concurrency, a.logger)
			summary, err := ProcessBatchFiles(ctx, batch, args[0], a.outputDir(), fields, a.processing().ExcludePatterns, a.logger, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !summary.Success {
				return fmt.Errorf("%d 个模板处理失败", summary.FailedFiles)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&a.args.OutputDir, "output-dir", "o", "", "输出目录")
	cmd.Flags().StringArrayVarP(&a.args.Sets, "set", "s", nil, "字段值 Key=Value，可重复")
	cmd.Flags().IntVarP(&a.args.Concurrency, "concurrency", "j", 0, "最大并发文件数（默认取配置值）")
	cmd.Flags().BoolVar(&a.args.Report, "report", false, "使用 report_<uuid>_<时间戳> 命名输出文件")
	return cmd
}

func (a *app) extractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <template>",
		Short: "列出模板中的占位符",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range extractor.New(a.logger).ExtractFile(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog <dir>",
		Short: "列出目录中的模板及其占位符",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := catalog.New(args[0], extractor.New(a.logger), a.processing().ExcludePatterns, a.logger)
			if err := c.Scan(); err != nil {
				return err
			}
			for _, tmpl := range c.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", tmpl.Name, tmpl.Placeholders)
			}
			if !a.args.Watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			done, err := c.Watch(ctx)
			if err != nil {
				return err
			}
			<-done
			return nil
		},
	}
	cmd.Flags().BoolVarP(&a.args.Watch, "watch", "w", false, "持续监视目录变化")
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", AppName, AppVersion)
		},
	}
}
