package container

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	containerTypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDaemon answers image inspect and container create requests and
// records the paths it was asked for.
type fakeDaemon struct {
	imagePresent bool

	mu    sync.Mutex
	paths []string
}

func (d *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.paths = append(d.paths, r.Method+" "+r.URL.Path)
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.Contains(r.URL.Path, "/images/") && strings.HasSuffix(r.URL.Path, "/json"):
		if !d.imagePresent {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"No such image"}`)
			return
		}
		io.WriteString(w, `{"Id":"sha256:abc"}`)
	case strings.HasSuffix(r.URL.Path, "/containers/create"):
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"message":"create refused"}`)
	default:
		w.WriteHeader(http.StatusNotImplemented)
		io.WriteString(w, `{"message":"unexpected request"}`)
	}
}

func (d *fakeDaemon) requested(fragment string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.paths {
		if strings.Contains(p, fragment) {
			return true
		}
	}
	return false
}

func newTestAPIInvoker(t *testing.T, d *fakeDaemon) *APIInvoker {
	t.Helper()

	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)

	c, err := client.NewClientWithOpts(
		client.WithHTTPClient(srv.Client()),
		client.WithHost(srv.URL),
		client.WithVersion("1.47"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return &APIInvoker{client: c, logger: log.New(io.Discard)}
}

func TestAPIInvoker_ImageExists(t *testing.T) {
	for _, present := range []bool{true, false} {
		inv := newTestAPIInvoker(t, &fakeDaemon{imagePresent: present})

		exists, err := inv.ImageExists(context.Background(), "nwchemorg/nwchem-qc:latest")
		require.NoError(t, err)
		assert.Equal(t, present, exists)
	}
}

func TestAPIInvoker_SkipPullMissingImage(t *testing.T) {
	d := &fakeDaemon{}
	inv := newTestAPIInvoker(t, d)

	_, err := inv.Invoke(context.Background(), Request{
		Image:    "nwchemorg/nwchem-qc",
		SkipPull: true,
		Stdin:    strings.NewReader(""),
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	})
	require.ErrorIs(t, err, ErrImageNotFound)
	assert.Contains(t, err.Error(), "nwchemctl pull")

	assert.True(t, d.requested("/images/"))
	assert.False(t, d.requested("/containers/create"), "no container should be created")
	assert.False(t, d.requested("/images/create"), "image must not be pulled")
}

func TestAPIInvoker_SkipPullLocalImage(t *testing.T) {
	d := &fakeDaemon{imagePresent: true}
	inv := newTestAPIInvoker(t, d)

	_, err := inv.Invoke(context.Background(), Request{
		Image:    "nwchemorg/nwchem-qc",
		SkipPull: true,
		Stdin:    strings.NewReader(""),
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrImageNotFound)
	assert.Contains(t, err.Error(), "failed to create container")
	assert.True(t, d.requested("/containers/create"))
}

func TestBuildConfigs(t *testing.T) {
	req := Request{
		Image:   "nwchemorg/nwchem-qc",
		Mounts:  []Mount{{Source: "/tmp/nwchemctl-abc", Target: "/opt/data"}},
		Command: []string{"sample.nw"},
	}
	flags, err := ParseRunFlags([]string{"-v", "/basis:/opt/basis:ro", "--network", "none", "-m", "1g", "-e", "OMP_NUM_THREADS=4"})
	require.NoError(t, err)

	cfg, host := buildConfigs(req, flags, "docker.io/nwchemorg/nwchem-qc:latest")

	assert.Equal(t, "docker.io/nwchemorg/nwchem-qc:latest", cfg.Image)
	assert.Equal(t, []string{"sample.nw"}, []string(cfg.Cmd))
	assert.Equal(t, []string{"OMP_NUM_THREADS=4"}, cfg.Env)
	assert.True(t, cfg.OpenStdin)

	require.Len(t, host.Mounts, 2)
	assert.Equal(t, mount.Mount{Type: mount.TypeBind, Source: "/tmp/nwchemctl-abc", Target: "/opt/data"}, host.Mounts[0])
	assert.Equal(t, "/opt/basis", host.Mounts[1].Target)
	assert.True(t, host.Mounts[1].ReadOnly)

	assert.Equal(t, containerTypes.NetworkMode("none"), host.NetworkMode)
	assert.Equal(t, int64(1<<30), host.Memory)
	assert.False(t, host.AutoRemove)
}

func TestBuildConfigs_RequestMountsUntouched(t *testing.T) {
	req := Request{Mounts: make([]Mount, 1, 4)}
	req.Mounts[0] = Mount{Source: "/a", Target: "/b"}
	flags, err := ParseRunFlags([]string{"-v", "/c:/d"})
	require.NoError(t, err)

	_, host := buildConfigs(req, flags, "img:latest")
	assert.Len(t, host.Mounts, 2)
	assert.Len(t, req.Mounts, 1)
	assert.Equal(t, Mount{}, req.Mounts[:2][1], "request backing array must not be written")
}
