/*Package camera exposes a detector's parameter table, connection, report
and latest image over HTTP.

Routes:
	GET  /param/:name     {"name": ..., "int"|"f64"|"str": ...}
	POST /param/:name     {"int": 1}, {"f64": 0.5} or {"str": "x"}
	GET  /params          every parameter
	GET  /enum/:name      {"strings": [...], "values": [...]}
	POST /connect
	POST /disconnect
	GET  /connected       {"bool": ...}
	GET  /report?details=1
	GET  /image?fmt=jpg   latest frame as jpg, png or fits
	GET  /stats           statistics of the latest frame
	GET  /endpoints
*/
package camera

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"goji.io/pat"

	cam "github.com/nasa-jpl/photron/camera"
	"github.com/nasa-jpl/photron/generichttp"
	"github.com/nasa-jpl/photron/ndarray"
	"github.com/nasa-jpl/photron/params"
	"github.com/nasa-jpl/photron/photron"
	"github.com/nasa-jpl/photron/plugin"
)

// HTTPCamera binds routes for a Detector
type HTTPCamera struct {
	Det cam.Detector

	// Viewer supplies /image, may be nil
	Viewer *plugin.Viewer

	// Stats supplies /stats, may be nil
	Stats *plugin.Stats

	RouteTable generichttp.RouteTable
}

// NewHTTPCamera returns a new HTTP wrapper around a detector
func NewHTTPCamera(d cam.Detector, v *plugin.Viewer, s *plugin.Stats) HTTPCamera {
	w := HTTPCamera{Det: d, Viewer: v, Stats: s}
	rt := generichttp.RouteTable{
		{Method: http.MethodGet, Path: "/param/:name"}:  w.GetParam,
		{Method: http.MethodPost, Path: "/param/:name"}: w.SetParam,
		{Method: http.MethodGet, Path: "/params"}:       w.ListParams,
		{Method: http.MethodGet, Path: "/enum/:name"}:   w.GetEnum,
		{Method: http.MethodPost, Path: "/connect"}:     w.connect,
		{Method: http.MethodPost, Path: "/disconnect"}:  w.disconnect,
		{Method: http.MethodGet, Path: "/connected"}:    generichttp.GetBool(func() (bool, error) { return d.Connected(), nil }),
		{Method: http.MethodGet, Path: "/report"}:       w.Report,
	}
	if v != nil {
		rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/image"}] = w.Image
	}
	if s != nil {
		rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/stats"}] = w.GetStats
	}
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/endpoints"}] = func(w http.ResponseWriter, r *http.Request) {
		hp := generichttp.HumanPayload{StringSlice: rt.Endpoints()}
		hp.EncodeAndRespond(w, r)
	}
	w.RouteTable = rt
	return w
}

// RT satisfies generichttp.HTTPer
func (h HTTPCamera) RT() generichttp.RouteTable {
	return h.RouteTable
}

// errorCode maps a driver error to an HTTP status
func errorCode(err error) int {
	switch {
	case errors.Is(err, photron.ErrUnknownParam), errors.Is(err, params.ErrUnknown):
		return http.StatusNotFound
	case errors.Is(err, photron.ErrInvalidValue), errors.Is(err, photron.ErrReadOnly),
		errors.Is(err, photron.ErrNotSupported), errors.Is(err, params.ErrKind):
		return http.StatusBadRequest
	case errors.Is(err, photron.ErrNotConnected):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetParam returns one parameter as JSON
func (h HTTPCamera) GetParam(w http.ResponseWriter, r *http.Request) {
	v, err := h.Det.Params().Get(pat.Param(r, "name"))
	if err != nil {
		http.Error(w, err.Error(), errorCode(err))
		return
	}
	writeJSON(w, v)
}

// paramPayload is the body of a parameter write.  Exactly the field
// matching the parameter's kind is used; an int is accepted for a float.
type paramPayload struct {
	Int *int32   `json:"int"`
	F64 *float64 `json:"f64"`
	Str *string  `json:"str"`
}

// SetParam writes one parameter
func (h HTTPCamera) SetParam(w http.ResponseWriter, r *http.Request) {
	name := pat.Param(r, "name")
	p := paramPayload{}
	err := json.NewDecoder(r.Body).Decode(&p)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	kind, err := h.Det.Params().KindOf(name)
	if err != nil {
		http.Error(w, err.Error(), errorCode(err))
		return
	}
	switch {
	case kind == params.Int32 && p.Int != nil:
		err = h.Det.WriteInt32(name, *p.Int)
	case kind == params.Float64 && p.F64 != nil:
		err = h.Det.WriteFloat64(name, *p.F64)
	case kind == params.Float64 && p.Int != nil:
		err = h.Det.WriteFloat64(name, float64(*p.Int))
	case kind == params.String && p.Str != nil:
		err = h.Det.WriteString(name, *p.Str)
	default:
		http.Error(w, fmt.Sprintf("%s is %s, payload has no matching field", name, kind), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), errorCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ListParams returns every parameter as a JSON array
func (h HTTPCamera) ListParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Det.Params().List())
}

// GetEnum returns the choices of an enum parameter
func (h HTTPCamera) GetEnum(w http.ResponseWriter, r *http.Request) {
	e, err := h.Det.ReadEnum(pat.Param(r, "name"))
	if err != nil {
		http.Error(w, err.Error(), errorCode(err))
		return
	}
	writeJSON(w, e)
}

func (h HTTPCamera) connect(w http.ResponseWriter, r *http.Request) {
	if err := h.Det.Connect(); err != nil {
		http.Error(w, err.Error(), errorCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h HTTPCamera) disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.Det.Disconnect(); err != nil {
		http.Error(w, err.Error(), errorCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Report writes the detector report as plain text
func (h HTTPCamera) Report(w http.ResponseWriter, r *http.Request) {
	details := 1
	if s := r.URL.Query().Get("details"); s != "" {
		d, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		details = d
	}
	w.Header().Set("Content-Type", "text/plain")
	h.Det.Report(w, details)
}

// Image sends the latest frame in the format given by the fmt query
// parameter, jpg by default
func (h HTTPCamera) Image(w http.ResponseWriter, r *http.Request) {
	a, err := h.Viewer.Latest()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	format := r.URL.Query().Get("fmt")
	switch format {
	case "fits":
		w.Header().Set("Content-Type", "image/fits")
		err = plugin.WriteFits(w, plugin.Cards(a), a)
	case "png":
		w.Header().Set("Content-Type", "image/png")
		err = plugin.Encode(w, a, h.pixelBits(a), format)
	case "", "jpg", "jpeg":
		w.Header().Set("Content-Type", "image/jpeg")
		err = plugin.Encode(w, a, h.pixelBits(a), format)
	default:
		http.Error(w, "format must be jpg, png or fits", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// pixelBits is the depth of the data in a 16-bit frame
func (h HTTPCamera) pixelBits(a *ndarray.Array) int {
	if a.DataType == ndarray.UInt8 {
		return 8
	}
	bits, err := h.Det.Params().Int(photron.ParamPixelBits)
	if err != nil || bits <= 8 {
		return 16
	}
	return int(bits)
}

// GetStats returns the statistics of the latest frame
func (h HTTPCamera) GetStats(w http.ResponseWriter, r *http.Request) {
	res, n := h.Stats.Last()
	writeJSON(w, struct {
		plugin.Result
		Count int `json:"count"`
	}{res, n})
}
