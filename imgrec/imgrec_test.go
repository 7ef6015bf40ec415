package imgrec

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa-jpl/photron/generichttp"
)

func TestIncrScansFolder(t *testing.T) {
	r := &Recorder{Root: t.TempDir(), Prefix: "cam", Ext: ".npy"}
	r.Incr()
	p1, err := r.Path()
	require.NoError(t, err)
	assert.Equal(t, "cam000001.npy", filepath.Base(p1))

	_, err = r.Write([]byte("ab"))
	require.NoError(t, err)
	_, err = r.Write([]byte("cd"))
	require.NoError(t, err)
	buf, err := os.ReadFile(p1)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf))

	// files of another extension or prefix do not count
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(p1), "cam000009.fits"), nil, 0666))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(p1), "other000009.npy"), nil, 0666))
	r.Incr()
	p2, err := r.Path()
	require.NoError(t, err)
	assert.Equal(t, "cam000002.npy", filepath.Base(p2))
}

func TestActive(t *testing.T) {
	r := &Recorder{}
	r.SetEnabled(true)
	assert.False(t, r.Active(), "no root")
	require.NoError(t, r.SetRoot(t.TempDir()))
	assert.True(t, r.Active())
	assert.Equal(t, ".fits", r.ext())
}

type table struct{ rt generichttp.RouteTable }

func (t table) RT() generichttp.RouteTable { return t.rt }

func TestInject(t *testing.T) {
	r := &Recorder{}
	tbl := table{rt: generichttp.RouteTable{}}
	NewHTTPWrapper(r, "fits").Inject(tbl)
	assert.Len(t, tbl.rt, 6)

	root := t.TempDir()
	h := tbl.rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/autowrite/fits/root"}]
	require.NotNil(t, h)
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/autowrite/fits/root", strings.NewReader(`{"str":"`+filepath.ToSlash(root)+`"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, root, r.Snapshot().Root)

	h = tbl.rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/autowrite/fits/enabled"}]
	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/autowrite/fits/enabled", strings.NewReader(`{"bool":true}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, r.Active())

	h = tbl.rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/autowrite/fits/prefix"}]
	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/autowrite/fits/prefix", nil))
	assert.JSONEq(t, `{"str":""}`, w.Body.String())
}
