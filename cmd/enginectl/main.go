// Command enginectl is the CLI surface over the enginectl library (spec
// §6): a thin shell around BinaryResolver's locate-or-fetch contract.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	kongcompletion "github.com/jotaen/kong-completion"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/banksean/enginectl"
	"github.com/banksean/enginectl/version"
)

type CLI struct {
	Engine   string `default:"docker" placeholder:"<docker|podman>" help:"which engine CLI to drive"`
	LogFile  string `default:"" placeholder:"<log-file-path>" help:"location of the JSON log file (leave empty for stderr)"`
	LogLevel string `default:"info" placeholder:"<debug|info|warn|error>" help:"the logging level"`

	DownloadCLI    DownloadCLICmd    `cmd:"" name:"download-cli" help:"print the engine binary's path from PATH (no download is performed)"`
	DownloadBuildx DownloadBuildxCmd `cmd:"" name:"download-buildx" help:"reserved: not yet supported"`
	Version        VersionCmd        `cmd:"" help:"print enginectl build version information"`
}

// VersionCmd prints the binary's embedded build metadata alongside the host
// engine binary it would drive.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	cfg := enginectl.NewClientConfig(enginectl.Engine(cli.Engine))
	v, err := version.Get().Resolve(context.Background(), cfg)
	if err != nil {
		slog.Warn("version: could not resolve engine binary", "engine", cli.Engine, "error", err)
	}
	fmt.Printf("gitCommit=%s gitBranch=%s buildTime=%s engineKind=%s enginePath=%s\n",
		v.GitCommit, v.GitBranch, v.BuildTime, v.EngineKind, v.EnginePath)
	return nil
}

func initSlog(logFile, level string) func() {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: lv})))
		return func() { rotator.Close() }
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lv})))
	return func() {}
}

// DownloadCLICmd locates the engine binary on PATH and prints its path. It
// configures no Downloader on the resolver, so it does not fetch or cache a
// binary: when the engine is not on PATH it fails with a nonzero exit.
type DownloadCLICmd struct {
	Version string `default:"latest" help:"engine CLI release version to ensure is cached"`
}

func (c *DownloadCLICmd) Run(cli *CLI) error {
	engine := enginectl.Engine(cli.Engine)
	resolver := &enginectl.CachedDownloadResolver{
		Engine:  engine,
		Version: c.Version,
	}
	path, err := resolver.Resolve(context.Background())
	if err != nil {
		slog.Error("download-cli failed", "engine", engine, "error", err)
		return err
	}
	fmt.Println(path)
	return nil
}

// DownloadBuildxCmd is reserved; always fails as "not yet supported"
// (spec §9).
type DownloadBuildxCmd struct{}

func (c *DownloadBuildxCmd) Run(cli *CLI) error {
	return fmt.Errorf("download-buildx: not yet supported")
}

func main() {
	var cli CLI

	parser := kong.Must(&cli,
		kong.Configuration(kongyaml.Loader, ".enginectl.yaml", "~/.enginectl.yaml"),
		kong.Description("Programmable client for a Docker/Podman-compatible engine CLI."))
	kongcompletion.Register(parser)

	kongCtx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	closeLog := initSlog(cli.LogFile, cli.LogLevel)
	defer closeLog()
	slog.Info("enginectl starting", "engine", cli.Engine, "command", kongCtx.Command())

	if err := kongCtx.Run(&cli); err != nil {
		slog.Error("command failed", "command", kongCtx.Command(), "error", err)
		kongCtx.FatalIfErrorf(err)
	}
}
