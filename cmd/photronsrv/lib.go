package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-yaml/yaml"
	"goji.io"

	"github.com/nasa-jpl/photron/generichttp"
	"github.com/nasa-jpl/photron/generichttp/camera"
	"github.com/nasa-jpl/photron/imgrec"
	"github.com/nasa-jpl/photron/pdc"
	"github.com/nasa-jpl/photron/photron"
	"github.com/nasa-jpl/photron/plugin"
	"github.com/nasa-jpl/photron/plugin/zmqpub"
	"github.com/nasa-jpl/photron/server/middleware/locker"
)

// Files configures the file writers of a camera.  An empty root disables
// the writer; it can be set later over HTTP.
type Files struct {
	// FITSRoot is the folder FITS files are written under
	FITSRoot string `yaml:"FITSRoot"`

	// NPYRoot is the folder .npy files are written under
	NPYRoot string `yaml:"NPYRoot"`

	// Prefix is the filename prefix of both writers
	Prefix string `yaml:"Prefix"`

	// Enabled starts the writers enabled
	Enabled bool `yaml:"Enabled"`
}

// CameraSetup holds everything needed to create and serve one camera
type CameraSetup struct {
	// Camera is passed to the driver
	Camera photron.Config `yaml:"Camera"`

	// Endpoint is the path the camera's routes are served under, e.g. /hsc
	Endpoint string `yaml:"Endpoint"`

	// Connect connects at startup, retrying for up to ConnectTimeout
	Connect bool `yaml:"Connect"`

	// ConnectTimeout bounds the startup connection retries
	ConnectTimeout time.Duration `yaml:"ConnectTimeout"`

	// ViewerFPS limits the frames copied for GET /image.  0 copies every frame
	ViewerFPS float64 `yaml:"ViewerFPS"`

	// ZMQ is the endpoint frames are published on, e.g. tcp://*:8001.
	// Empty disables publishing
	ZMQ string `yaml:"ZMQ"`

	Files Files `yaml:"Files"`
}

// Config is the configuration of the server
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// Mock uses a simulated camera instead of the PDC library
	Mock bool `yaml:"Mock"`

	// LogFile, if set, also writes the log to a rotated file
	LogFile string `yaml:"LogFile"`

	// Cameras is the list of cameras to serve
	Cameras []CameraSetup `yaml:"Cameras"`
}

// defaultConfig is written by mkconf and underlies the config file
func defaultConfig() Config {
	return Config{
		Addr: ":8000",
		Cameras: []CameraSetup{{
			Camera: photron.Config{
				PortName:   "PHOTRON1",
				IPAddress:  "192.168.0.10",
				MaxMemory:  1 << 30,
				StatusPoll: 100 * time.Millisecond,
			},
			Endpoint:       "/photron1",
			Connect:        true,
			ConnectTimeout: 10 * time.Second,
			ViewerFPS:      10,
			Files:          Files{Prefix: "photron1_"},
		}},
	}
}

// LoadYaml converts a (path to a) yaml file into a Config struct, without
// the defaults
func LoadYaml(path string) (Config, error) {
	cfg := Config{}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	err = yaml.NewDecoder(f).Decode(&cfg)
	return cfg, err
}

// newSDK returns the simulator in mock mode and the vendor library otherwise.
// The simulator answers at the address of the first camera.
func newSDK(c Config) (pdc.SDK, error) {
	if c.Mock {
		ip := ""
		if len(c.Cameras) > 0 {
			ip = c.Cameras[0].Camera.IPAddress
		}
		return pdc.NewSimulator(ip), nil
	}
	return vendorSDK()
}

// connect connects a camera, retrying with an exponential backoff
func connect(cam *photron.Camera, timeout time.Duration) error {
	if timeout <= 0 {
		return cam.Connect()
	}
	return backoff.Retry(cam.Connect, &backoff.ExponentialBackOff{
		InitialInterval:     250 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         2 * time.Second,
		MaxElapsedTime:      timeout,
		Clock:               backoff.SystemClock})
}

// Server holds the cameras, their plugins and the HTTP router
type Server struct {
	Registry *photron.Registry
	Router   chi.Router

	publishers []*zmqpub.Publisher
}

// Close stops the cameras and the frame publishers
func (s *Server) Close() error {
	err := s.Registry.Shutdown()
	for _, p := range s.publishers {
		if err2 := p.Close(); err == nil {
			err = err2
		}
	}
	return err
}

// attachPlugins creates the plugins of a camera and returns its HTTP wrapper
func (s *Server) attachPlugins(cam *photron.Camera, setup CameraSetup) (generichttp.HTTPer, error) {
	pub := cam.Publisher()
	viewer := plugin.NewViewer(setup.ViewerFPS)
	stats, err := plugin.NewStats(cam.Params())
	if err != nil {
		return nil, err
	}
	fw := plugin.NewFITSWriter(setup.Files.FITSRoot, setup.Files.Prefix)
	fw.Rec.Enabled = setup.Files.Enabled
	nw := plugin.NewNPYWriter(setup.Files.NPYRoot, setup.Files.Prefix)
	nw.Rec.Enabled = setup.Files.Enabled
	pub.Attach("viewer", viewer)
	pub.Attach("stats", stats)
	pub.Attach("fits", fw)
	pub.Attach("npy", nw)
	if setup.ZMQ != "" {
		zp, err := zmqpub.New(setup.ZMQ)
		if err != nil {
			return nil, err
		}
		s.publishers = append(s.publishers, zp)
		pub.Attach("zmq", zp)
	}

	hc := camera.NewHTTPCamera(cam, viewer, stats)
	imgrec.NewHTTPWrapper(fw.Rec, "fits").Inject(hc)
	imgrec.NewHTTPWrapper(nw.Rec, "npy").Inject(hc)
	return hc, nil
}

// BuildServer creates every camera in c and a router serving them.  A
// camera that cannot connect is logged and served anyway so it can be
// connected over HTTP later.
func BuildServer(c Config, logOut io.Writer) (*Server, error) {
	sdk, err := newSDK(c)
	if err != nil {
		return nil, err
	}
	s := &Server{Registry: photron.NewRegistry(sdk)}
	if err = s.Registry.Init(); err != nil {
		return nil, err
	}

	root := chi.NewRouter()
	root.Use(middleware.Logger)
	supergraph := map[string][]string{}

	for _, setup := range c.Cameras {
		msg := log.New(logOut, fmt.Sprintf("photron %s: ", setup.Camera.PortName), log.LstdFlags)
		cam, err := s.Registry.Add(setup.Camera, msg, false)
		if err != nil {
			s.Close()
			return nil, err
		}
		if setup.Connect {
			if err := connect(cam, setup.ConnectTimeout); err != nil {
				msg.Printf("not connected at startup: %v", err)
			}
		}
		httper, err := s.attachPlugins(cam, setup)
		if err != nil {
			s.Close()
			return nil, err
		}

		// prepare the URL, "omc/nkt" => "/omc/nkt"
		hndlS := generichttp.SubMuxSanitize(setup.Endpoint)

		// add a lock interface for this camera
		lock := locker.New()
		locker.Inject(httper, lock)
		supergraph[hndlS] = httper.RT().Endpoints()

		mux := goji.NewMux()
		mux.Use(lock.Check)
		httper.RT().Bind(mux)
		root.Mount(hndlS, http.StripPrefix(hndlS, mux))
	}
	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(supergraph)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router = root
	return s, nil
}
