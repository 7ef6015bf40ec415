package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/theckman/yacspin"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	yml "gopkg.in/yaml.v2"

	"github.com/nasa-jpl/photron/photron"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "2"

	// ConfigFileName is what it sounds like
	ConfigFileName = "photronsrv.yml"
	k              = koanf.New(".")
)

func setupconfig() {
	k.Load(structs.Provider(defaultConfig(), "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func loadConfig() Config {
	c := Config{}
	if err := k.Unmarshal("", &c); err != nil {
		log.Fatal(err)
	}
	return c
}

func root() {
	str := `photronsrv serves Photron high speed cameras over HTTP
Each camera's parameters, memory readout and latest image are exposed under
its endpoint, and frames may be written to FITS or .npy files or published
over ZeroMQ.

Usage:
	photronsrv <command>

Commands:
	run
	help
	mkconf
	conf [file]
	detect
	version`
	fmt.Println(str)
}

func help() {
	str := `photronsrv is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

Run mkconf to write the default configuration to photronsrv.yml, then edit it.

Each entry of Cameras has an Endpoint.  No two endpoints can have the same URL.
URLs may look like any variation between "lab/hsc" or "/lab/hsc/*", the leading
and trailing slashes, as well as the *, are added by the server if missing.

Under each endpoint:
	GET/POST /param/<NAME>    read or write a parameter
	GET      /params          every parameter
	GET      /enum/<NAME>     the choices of an enum parameter
	POST     /connect, /disconnect
	GET      /report?details=N
	GET      /image?fmt=jpg|png|fits
	GET      /stats
	GET/POST /autowrite/fits/{root,prefix,enabled}
	GET/POST /autowrite/npy/{root,prefix,enabled}
	GET/POST /lock

To acquire live frames, write 0 to PHOTRON_ACQUIRE_MODE and 1 to ACQUIRE.
To record, write 1 to PHOTRON_ACQUIRE_MODE and 1 to ACQUIRE, trigger the
camera, and when ACQUIRE drops to 0 write 1 to PHOTRON_READ_MEM.

Mock: true serves a simulated camera at the address of the first camera.
The PDC library is used only by builds made with -tags pdc.`
	fmt.Println(str)
}

func mkconf() {
	c := loadConfig()
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

// printconf prints the configuration in use, or the file given as the
// second argument exactly as it parses
func printconf() {
	c := loadConfig()
	if len(os.Args) > 2 {
		var err error
		if c, err = LoadYaml(os.Args[2]); err != nil {
			log.Fatal(err)
		}
	}
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("photronsrv version %v, driver version %v\n", Version, photron.DriverVersion)
}

// detect searches for each configured camera and prints what answers
func detect() {
	c := loadConfig()
	sdk, err := newSDK(c)
	if err != nil {
		log.Fatal(err)
	}
	if err = sdk.Init(); err != nil {
		log.Fatal(err)
	}
	spinner, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " ",
		StopCharacter:     "✓",
		StopFailCharacter: "✗",
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, setup := range c.Cameras {
		cfg := setup.Camera
		spinner.Message(fmt.Sprintf("searching for %s at %s", cfg.PortName, cfg.IPAddress))
		spinner.Start()
		found, err := sdk.DetectDevice(cfg.IPAddress, cfg.AutoDetect)
		if err != nil || len(found) == 0 {
			spinner.StopFailMessage(fmt.Sprintf("%s: nothing found (%v)", cfg.PortName, err))
			spinner.StopFail()
			continue
		}
		msgs := make([]string, 0, len(found))
		for _, d := range found {
			msgs = append(msgs, fmt.Sprintf("code 0x%x at %s", d.DeviceCode, d.IPAddress))
		}
		spinner.StopMessage(fmt.Sprintf("%s: %s", cfg.PortName, strings.Join(msgs, ", ")))
		spinner.Stop()
	}
}

// logOutput returns the writer logs go to, rotating the log file if one is configured
func logOutput(c Config) io.Writer {
	if c.LogFile == "" {
		return os.Stderr
	}
	return io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   c.LogFile,
		MaxSize:    10,  // megabytes after which new file is created
		MaxBackups: 4,   // number of backups
		MaxAge:     180, // days
		Compress:   true,
	})
}

func run() {
	c := loadConfig()
	out := logOutput(c)
	log.SetOutput(out)
	if len(c.Cameras) == 0 {
		log.Fatal("no cameras configured, run mkconf and edit ", ConfigFileName)
	}
	s, err := BuildServer(c, out)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	srv := &http.Server{Addr: c.Addr, Handler: s.Router}
	g.Go(func() error {
		log.Println("now listening for requests at ", c.Addr)
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(sctx)
		if err2 := s.Close(); err == nil {
			err = err2
		}
		return err
	})
	if err = g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Println("shut down")
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "detect":
		detect()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
