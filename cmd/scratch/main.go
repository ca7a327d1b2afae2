// Scratch player - runs a Scratch 3 project in the terminal
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/chazu/scratchvm/cloud"
	"github.com/chazu/scratchvm/controls"
	"github.com/chazu/scratchvm/loader"
	"github.com/chazu/scratchvm/manifest"
	"github.com/chazu/scratchvm/vm"
	"github.com/chazu/scratchvm/wire"
)

var log = commonlog.GetLogger("scratchvm")

// options are the command line overrides for scratch.toml.
type options struct {
	verbose  int
	logFile  string
	platform string
	fps      int
	controls string
	snapshot string
	cloudURL string
	offline  bool
	hardExit bool
	project  string
}

func main() {
	var opts options
	flag.IntVar(&opts.verbose, "v", 0, "Log verbosity (-1 warnings only, 1 info, 2 debug)")
	flag.StringVar(&opts.logFile, "log", "", "Write logs to this file instead of stderr")
	flag.StringVar(&opts.platform, "platform", "", "Platform profile: pc, switch, wiiu, 3ds, vita, ...")
	flag.IntVar(&opts.fps, "fps", 0, "Frame rate override")
	flag.StringVar(&opts.controls, "controls", "", "Controls mapping file (YAML or JSON)")
	flag.StringVar(&opts.snapshot, "snapshot", "", "Write every frame as CBOR to this file")
	flag.StringVar(&opts.cloudURL, "cloud", "", "Cloud variable server (ws:// or wss:// URL)")
	flag.BoolVar(&opts.offline, "offline", false, "Keep cloud variables local")
	flag.BoolVar(&opts.hardExit, "hard-exit", false, "Exit the process as soon as the project stops")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: scratch [options] [project]\n\n")
		fmt.Fprintf(os.Stderr, "Plays a Scratch 3 project (.sb3, project directory, or project.json).\n")
		fmt.Fprintf(os.Stderr, "Without a project argument, scratch.toml in the current directory or\n")
		fmt.Fprintf(os.Stderr, "a parent names it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  scratch game.sb3                      # Play a project\n")
		fmt.Fprintf(os.Stderr, "  scratch -platform 3ds -fps 60 game.sb3\n")
		fmt.Fprintf(os.Stderr, "  scratch -snapshot frames.cbor game.sb3  # Record frames\n")
	}
	flag.Parse()
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.project = flag.Arg(0)

	err := run(opts)
	switch {
	case err == nil, errors.Is(err, vm.ErrProjectStopped), errors.Is(err, context.Canceled):
		os.Exit(0)
	case errors.Is(err, vm.ErrHardExit):
		log.Notice("hard exit")
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\r\n", err)
		os.Exit(1)
	}
}

// configure finds scratch.toml and applies the command line on top of it.
func configure(opts options) (*manifest.Manifest, error) {
	start := "."
	if opts.project != "" {
		if info, err := os.Stat(opts.project); err == nil && info.IsDir() {
			start = opts.project
		} else {
			start = filepath.Dir(opts.project)
		}
	}
	m, err := manifest.FindAndLoad(start)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default(start)
	}

	if opts.project != "" {
		abs, err := filepath.Abs(opts.project)
		if err != nil {
			return nil, err
		}
		m.Project.File = abs
	}
	if opts.platform != "" {
		m.Player.Platform = opts.platform
	}
	if opts.fps > 0 {
		m.Player.FPS = opts.fps
	}
	if opts.hardExit {
		m.Player.HardExit = true
	}
	if opts.logFile != "" {
		m.Player.Log = opts.logFile
	}
	if opts.controls != "" {
		m.Controls.File = opts.controls
	}
	if opts.snapshot != "" {
		m.Snapshot.Output = opts.snapshot
	}
	if opts.cloudURL != "" {
		m.Cloud.URL = opts.cloudURL
	}
	return m, nil
}

func run(opts options) error {
	m, err := configure(opts)
	if err != nil {
		return err
	}

	var logPath *string
	if p := m.Player.Log; p != "" {
		logPath = &p
	}
	commonlog.Configure(opts.verbose, logPath)

	p, err := loader.LoadFile(m.ProjectPath())
	if err != nil {
		return err
	}
	if m.Player.FPS > 0 {
		p.Settings.FPS = m.Player.FPS
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer term.Restore(fd, state)
	}
	console := newTerminal(controls.LoadOrDefault(m.ControlsPath()), os.Stdout, cancel)
	go console.readFrom(os.Stdin)

	renderers := multiRenderer{newBubbleRenderer(os.Stdout)}
	if path := m.SnapshotPath(); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("snapshot output: %w", err)
		}
		defer f.Close()
		frames := wire.NewFrameWriter(f)
		renderers = append(renderers, frames)
		defer func() { log.Infof("wrote %d frames to %s", frames.Frames(), path) }()
	}

	rtOpts := []vm.Option{
		vm.WithProfile(m.Profile()),
		vm.WithInput(console),
		vm.WithPrompter(console),
		vm.WithRenderer(renderers),
	}

	username := m.Player.Username
	var client *cloud.Client
	if cloud.HasCloudVariables(p) {
		if username == "" {
			if username, err = cloud.Username(m.Dir); err != nil {
				log.Warningf("%s", err)
			}
		}
		store, err := cloud.OpenStore(m.CloudStorePath())
		if err != nil {
			return err
		}
		defer store.Close()
		cfg := cloud.Config{
			Origin:    m.Cloud.Origin,
			ProjectID: cloud.ProjectID(p.Source),
			Username:  username,
			Store:     store,
		}
		if !opts.offline {
			cfg.URL = m.Cloud.URL
		}
		client = cloud.NewClient(cfg)
		rtOpts = append(rtOpts, vm.WithCloud(client))
	}
	rtOpts = append(rtOpts, vm.WithUsername(username))

	rt := vm.NewRuntime(p, rtOpts...)
	log.Infof("playing %s on %s at %d fps", m.ProjectPath(), m.Profile().Name, rt.Settings().FPS)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Stop the cloud client once the project ends.
		defer cancel()
		return rt.Run(gctx)
	})
	if client != nil {
		client.Attach(rt)
		g.Go(func() error {
			return client.Run(gctx)
		})
	}
	return g.Wait()
}
