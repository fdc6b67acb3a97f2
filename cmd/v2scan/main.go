package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/cjeanneret/v2scan/internal/app"
	"github.com/cjeanneret/v2scan/internal/config"
	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/camera"
	"github.com/cjeanneret/v2scan/internal/hw/turntable"
	"github.com/cjeanneret/v2scan/internal/logic/params"
	"github.com/cjeanneret/v2scan/internal/notify"
)

const version = "0.3"

func main() {
	fs, cli := newFlagSet(os.Args[0])
	positional, err := parseArgs(fs, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cli.version {
		fmt.Printf("v2scan - version %s\n", version)
		return
	}
	if len(positional) != 1 {
		fs.Usage()
		os.Exit(2)
	}
	cmd, err := app.ParseCommand(positional[0])
	if err != nil {
		fs.Usage()
		os.Exit(2)
	}
	if err := cli.validate(); err != nil {
		log.Fatalf("invalid option: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cli, cmd); err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func run(ctx context.Context, cli *cliFlags, cmd app.Command) error {
	// Load configuration
	if cli.configPath != config.DefaultPath {
		if err := config.ValidateConfigPath(cli.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.LoadOrDefault(cli.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize debug system
	level := cfg.Defaults.DebugLevel
	if cli.verbose && level < debug.LevelVerbose {
		level = debug.LevelVerbose
	}
	debug.Init(level)
	runID := uuid.NewString()
	debug.Section("Initialization")
	debug.Value("Run", runID)
	debug.Value("Config path", cli.configPath)
	debug.Value("Device driver", cfg.Device.Driver)

	opts := cli.options(cmd, cfg)

	sdk, err := newSDKFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}

	var rotator turntable.Rotator = turntable.None{}
	if cmd != app.Status && opts.Count > 1 {
		debug.Value("Turntable", cfg.Turntable.Type)
		rotator, err = turntable.New(cfg)
		if err != nil {
			return fmt.Errorf("init turntable: %w", err)
		}
	}
	defer func() {
		if err := rotator.Close(); err != nil {
			log.Printf("closing turntable failed: %v", err)
		}
	}()

	notifier := newNotifier(cfg, runID)
	defer notifier.Close()

	return app.Run(ctx, opts, app.Deps{
		SDK:      sdk,
		Rotator:  rotator,
		Notifier: notifier,
		Stdout:   os.Stdout,
		RunID:    runID,
	})
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	configPath string
	verbose    bool
	version    bool

	passiveAF, activeAF, activeAFAE bool
	dynamicRange                    bool
	fillHole, dark                  bool

	rotate rotateFlag
	output string
	format string

	distance, laserPower, gain, releaseMode optionalInt
	threshold, autoRead, color              optionalInt
	subsampling, noise                      optionalInt
}

func newFlagSet(name string) (*flag.FlagSet, *cliFlags) {
	c := &cliFlags{rotate: rotateFlag{count: 1}}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [options] status|scan|image\n\nOptions:\n", name)
		fs.PrintDefaults()
	}

	fs.StringVar(&c.configPath, "config", config.DefaultPath, "path to config file")
	fs.BoolVar(&c.verbose, "v", false, "be verbose")
	fs.BoolVar(&c.version, "version", false, "show version info")

	fs.BoolVar(&c.passiveAF, "p", false, "perform passive AF before scan")
	fs.BoolVar(&c.activeAF, "a", false, "perform active AF before scan")
	fs.BoolVar(&c.activeAFAE, "e", false, "perform active AF/AE before scan (VIVID910)")
	fs.BoolVar(&c.dynamicRange, "x", false, "scan in dynamic range expansion mode (VIVID910)")
	fs.Var(&c.rotate, "rotate", "rotate turntable: N,START scans N times starting from START degrees")
	fs.Var(&c.rotate, "r", "shorthand for -rotate")
	fs.StringVar(&c.output, "o", "", "output file base (default image.hdr for scan, image for image)")
	fs.StringVar(&c.format, "f", "", "output format (default from config, TIFF)")

	fs.Var(&c.distance, "d", "parameter: distance in mm (500-2500)")
	fs.Var(&c.laserPower, "l", "parameter: laser power (0-255, 0:laser off)")
	fs.Var(&c.gain, "g", "parameter: gain (0-7)")
	fs.Var(&c.releaseMode, "m", "parameter: release mode (0-7)\n"+
		"0:FINE&COLOR 1:FAST&COLOR 2:COLOR(8bit) 3:COLOR(10bit)\n"+
		"4:MONITOR(8bit) 5:R(8bit) 6:G(8bit) 7:B(8bit)")
	fs.Var(&c.threshold, "t", "parameter: threshold (0-1023, 65535:auto)")
	fs.Var(&c.autoRead, "u", "parameter: autoread (0:on/pitch with color, 1:off/only pitch)")
	fs.Var(&c.color, "c", "parameter: color (0-10, 10:auto)")
	fs.Var(&c.subsampling, "b", "filter: subsampling rate (1-4, 1:1/1, 2:1/4, 3:1/9, 4:1/16)")
	fs.Var(&c.noise, "n", "filter: noise filter (0-3)\n0:no, 1:noise, 2:hq (VIVID910), 3:noise & hq (VIVID910)")
	fs.BoolVar(&c.fillHole, "i", false, "filter: fill holes")
	fs.BoolVar(&c.dark, "k", false, "filter: color dark correction")
	return fs, c
}

// parseArgs parses args with options allowed before and after the
// command, and returns the positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// validate checks that the given parameters are within the device ranges.
func (c *cliFlags) validate() error {
	checks := []struct {
		name   string
		v      optionalInt
		lo, hi int
		extra  int // also accepted, -1 = none
	}{
		{"distance", c.distance, 500, 2500, -1},
		{"laserpower", c.laserPower, 0, 255, -1},
		{"gain", c.gain, 0, 7, -1},
		{"rmode", c.releaseMode, 0, 7, -1},
		{"threshold", c.threshold, 0, 1023, 65535},
		{"autoread", c.autoRead, 0, 1, -1},
		{"color", c.color, 0, 10, -1},
		{"subsampling", c.subsampling, 1, 4, -1},
		{"noise", c.noise, 0, 3, -1},
	}
	for _, ck := range checks {
		if !ck.v.set {
			continue
		}
		if ck.v.val >= ck.lo && ck.v.val <= ck.hi || ck.extra >= 0 && ck.v.val == ck.extra {
			continue
		}
		if ck.extra >= 0 {
			return fmt.Errorf("%s has to be between %d-%d (%d:auto), got %d", ck.name, ck.lo, ck.hi, ck.extra, ck.v.val)
		}
		return fmt.Errorf("%s has to be between %d-%d, got %d", ck.name, ck.lo, ck.hi, ck.v.val)
	}
	return nil
}

// options builds the run options from the flags, falling back to cfg for
// output defaults.
func (c *cliFlags) options(cmd app.Command, cfg *config.Config) app.Options {
	opts := app.Options{
		Command: cmd,
		Request: params.Request{
			Assist: params.Assist{
				PassiveAF:  c.passiveAF,
				ActiveAF:   c.activeAF,
				ActiveAFAE: c.activeAFAE,
			},
			Overrides: params.Overrides{
				Distance:    c.distance.ptr(),
				LaserPower:  c.laserPower.ptr(),
				Gain:        c.gain.ptr(),
				ReleaseMode: c.releaseMode.ptr(),
				Threshold:   c.threshold.ptr(),
				AutoRead:    c.autoRead.ptr(),
				Color:       c.color.ptr(),
			},
			Filters: params.Filters{
				FillHole:    c.fillHole,
				Dark:        c.dark,
				Subsampling: c.subsampling.ptr(),
				Noise:       c.noise.ptr(),
			},
		},
		DynamicRange: c.dynamicRange,
		Count:        c.rotate.count,
		StartAngle:   c.rotate.start,
		Output:       cfg.Output.Base,
		Format:       cfg.Output.Format,
		StrictFormat: cfg.Output.StrictFormat,
	}
	if c.output != "" {
		opts.Output = c.output
	}
	if c.format != "" {
		opts.Format = c.format
	}
	return opts
}

// optionalInt implements flag.Value for a device parameter that is left
// unchanged unless given.
type optionalInt struct {
	val int
	set bool
}

func (o *optionalInt) String() string {
	if o == nil || !o.set {
		return ""
	}
	return strconv.Itoa(o.val)
}

func (o *optionalInt) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	o.val, o.set = v, true
	return nil
}

func (o optionalInt) ptr() *int {
	if !o.set {
		return nil
	}
	return params.Int(o.val)
}

// rotateFlag implements flag.Value for -rotate N,START.
type rotateFlag struct {
	count int
	start int
}

func (r *rotateFlag) String() string {
	if r == nil || r.count <= 1 {
		return ""
	}
	return fmt.Sprintf("%d,%d", r.count, r.start)
}

func (r *rotateFlag) Set(s string) error {
	n, start, ok := strings.Cut(s, ",")
	if !ok {
		return fmt.Errorf("want N,START, got %q", s)
	}
	count, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", count)
	}
	angle, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return fmt.Errorf("start angle: %w", err)
	}
	r.count, r.start = count, angle
	return nil
}

// newSDKFromConfig selects a device implementation based on configuration.
func newSDKFromConfig(cfg *config.Config) (camera.SDK, error) {
	switch cfg.Device.Driver {
	case "sim":
		sim, err := camera.NewSim(cfg.Device.Model)
		if err != nil {
			return nil, err
		}
		debug.Value("Simulated model", sim.Model())
		return sim, nil
	case "vivid":
		return camera.NewVivid()
	default:
		return nil, fmt.Errorf("unsupported device driver: %s", cfg.Device.Driver)
	}
}

// newNotifier connects the shot publisher. A broker that cannot be reached
// only disables publishing.
func newNotifier(cfg *config.Config, runID string) notify.Notifier {
	if cfg.Notify.Broker == "" {
		return notify.Nop{}
	}
	clientID := cfg.Notify.ClientID
	if clientID == "" {
		clientID = "v2scan-" + runID[:8]
	}
	m, err := notify.DialMQTT(cfg.Notify.Broker, cfg.Notify.Topic, clientID, cfg.NotifyTimeout())
	if err != nil {
		debug.Error(fmt.Errorf("shot notifications disabled: %w", err))
		return notify.Nop{}
	}
	return m
}
