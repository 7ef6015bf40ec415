// Package imgrec contains an image recorder used to automatically save images to disk.
package imgrec

import (
	"encoding/json"
	"fmt"
	"go/types"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nasa-jpl/photron/generichttp"
)

// Recorder records image sequences with incrementing filenames in
// yyyy-mm-dd subfolders.  It is safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	// counter is the internally incrementing counter
	counter int

	// Root is the root path
	Root string

	// Prefix is the prefix for the filenames
	Prefix string

	// Ext is the file extension, including the dot.  Defaults to .fits
	Ext string

	// timeFldr is the subfolder with yyyy-mm-dd format.
	timeFldr string

	// Enabled is a flag unused by this struct that allows consumers to disable its use in their code
	Enabled bool
}

// Settings is a snapshot of the user-facing fields of a recorder
type Settings struct {
	Root    string `json:"root"`
	Prefix  string `json:"prefix"`
	Enabled bool   `json:"enabled"`
}

func (r *Recorder) ext() string {
	if r.Ext == "" {
		return ".fits"
	}
	return r.Ext
}

// updateFolder checks the current time and updates the folder as needed
func (r *Recorder) updateFolder() {
	now := time.Now()
	r.timeFldr = fmt.Sprintf("%04d-%02d-%02d", now.Year(), now.Month(), now.Day())
}

// mkDir makes the folder and returns it
func (r *Recorder) mkDir() (string, error) {
	fldr := filepath.Join(r.Root, r.timeFldr)
	err := os.MkdirAll(fldr, 0777)
	return fldr, err
}

// path is the current file name.  Must hold the lock.
func (r *Recorder) path() (string, error) {
	r.updateFolder()
	fldr, err := r.mkDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(fldr, fmt.Sprintf("%s%06d%s", r.Prefix, r.counter, r.ext())), nil
}

// Path returns the file the next Write goes to, making its folder
func (r *Recorder) Path() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path()
}

// Write implements io.Writer and appends p to the current file
func (r *Recorder) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn, err := r.path()
	if err != nil {
		return 0, err
	}
	fid, err := os.OpenFile(fn, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0666)
	if err != nil {
		return 0, err
	}
	defer fid.Close()
	return fid.Write(p)
}

// Incr updates the filename counter; it scans the folder to do so.  If
// there is an error, the counter is not incremented
func (r *Recorder) Incr() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateFolder()
	dn, err := r.mkDir()
	if err != nil {
		return
	}
	files, err := os.ReadDir(dn)
	if err != nil {
		return
	}
	count := 0
	ext := r.ext()
	for _, file := range files {
		// skip directories, other extensions, and wrong prefix
		if file.IsDir() {
			continue
		}
		fn := file.Name()
		if !strings.HasSuffix(fn, ext) || !strings.HasPrefix(fn, r.Prefix) {
			continue
		}
		bit := strings.TrimSuffix(strings.TrimPrefix(fn, r.Prefix), ext)
		n, err := strconv.Atoi(bit)
		if err != nil {
			continue
		}
		if count < n {
			count = n
		}
	}
	r.counter = count + 1
}

// Snapshot returns the user-facing settings
func (r *Recorder) Snapshot() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Settings{Root: r.Root, Prefix: r.Prefix, Enabled: r.Enabled}
}

// SetRoot changes the root folder, making it if needed
func (r *Recorder) SetRoot(root string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Root = root
	r.updateFolder()
	_, err := r.mkDir()
	return err
}

// SetPrefix changes the filename prefix and restarts the counter
func (r *Recorder) SetPrefix(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Prefix = prefix
	r.counter = 0
}

// SetEnabled turns recording on or off
func (r *Recorder) SetEnabled(b bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Enabled = b
}

// Active returns true if the recorder is enabled and has somewhere to write
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Enabled && r.Root != ""
}

// HTTPWrapper is an HTTP wrapper around an image recorder that allows the folder and prefix to be changed on the fly
//
// it does not implement generichttp.HTTPer, offering an Inject method allowing it to be injected
// into another HTTPer
type HTTPWrapper struct {
	*Recorder

	// Name is inserted into the routes, /autowrite/<name>/root.  Empty gives /autowrite/root
	Name string
}

// NewHTTPWrapper returns an HTTP wrapper around a recorder
func NewHTTPWrapper(r *Recorder, name string) HTTPWrapper {
	return HTTPWrapper{Recorder: r, Name: name}
}

// SetRootHTTP updates the root folder of the recorder
func (h HTTPWrapper) SetRootHTTP(w http.ResponseWriter, r *http.Request) {
	str := generichttp.StrT{}
	err := json.NewDecoder(r.Body).Decode(&str)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err = h.Recorder.SetRoot(str.Str); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetRootHTTP gets the recorder's root folder and sends it back as JSON
func (h HTTPWrapper) GetRootHTTP(w http.ResponseWriter, r *http.Request) {
	hp := generichttp.HumanPayload{T: types.String, String: h.Recorder.Snapshot().Root}
	hp.EncodeAndRespond(w, r)
}

// SetPrefixHTTP updates the filename prefix of the recorder
func (h HTTPWrapper) SetPrefixHTTP(w http.ResponseWriter, r *http.Request) {
	str := generichttp.StrT{}
	err := json.NewDecoder(r.Body).Decode(&str)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.Recorder.SetPrefix(str.Str)
	w.WriteHeader(http.StatusOK)
}

// GetPrefixHTTP gets the recorder's prefix and sends it back as JSON
func (h HTTPWrapper) GetPrefixHTTP(w http.ResponseWriter, r *http.Request) {
	hp := generichttp.HumanPayload{T: types.String, String: h.Recorder.Snapshot().Prefix}
	hp.EncodeAndRespond(w, r)
}

// GetEnabledHTTP returns the Recorder's Enabled field
func (h HTTPWrapper) GetEnabledHTTP(w http.ResponseWriter, r *http.Request) {
	hp := generichttp.HumanPayload{T: types.Bool, Bool: h.Recorder.Snapshot().Enabled}
	hp.EncodeAndRespond(w, r)
}

// SetEnabledHTTP sets the recorder's Enabled field
func (h HTTPWrapper) SetEnabledHTTP(w http.ResponseWriter, r *http.Request) {
	bT := generichttp.BoolT{}
	err := json.NewDecoder(r.Body).Decode(&bT)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.Recorder.SetEnabled(bT.Bool)
	w.WriteHeader(http.StatusOK)
}

// Inject adds GET and POST routes for /autowrite/root, /autowrite/prefix
// and /autowrite/enabled to the HTTPer which manipulate this wrapper's recorder
func (h HTTPWrapper) Inject(other generichttp.HTTPer) {
	base := "/autowrite"
	if h.Name != "" {
		base += "/" + h.Name
	}
	rt := other.RT()
	rt[generichttp.MethodPath{Method: http.MethodPost, Path: base + "/root"}] = h.SetRootHTTP
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: base + "/root"}] = h.GetRootHTTP
	rt[generichttp.MethodPath{Method: http.MethodPost, Path: base + "/prefix"}] = h.SetPrefixHTTP
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: base + "/prefix"}] = h.GetPrefixHTTP
	rt[generichttp.MethodPath{Method: http.MethodPost, Path: base + "/enabled"}] = h.SetEnabledHTTP
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: base + "/enabled"}] = h.GetEnabledHTTP
}
