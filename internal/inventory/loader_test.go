package inventory

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const sampleInventory = `
hosts:
  - id: h1
    hostname: node1.internal
    public_hostname: node1.cloud
    port: 2375
  - id: h2
    hostname: node2.internal
    port: 2375
applications:
  - id: app1
    domain: app1.example.com
    protocol: http
    backend_port: 8080
  - id: app2
    domain: app2.example.com
    protocol: https
    backend_port: 443
    host_interface: 10.0.0.5
containers:
  - id: c2
    host_id: h2
    application_id: app1
    ports:
      "8080/tcp":
        "0.0.0.0": "40002"
  - id: c1
    host_id: h1
    application_id: app1
    ports:
      "8080/tcp":
        "0.0.0.0": "40001"
  - id: job1
    host_id: h1
`

func writeInventory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write inventory: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	snap, err := NewLoader(writeInventory(t, sampleInventory)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(snap.Hosts) != 2 || len(snap.Applications) != 2 || len(snap.Containers) != 3 {
		t.Fatalf("Load() = %d hosts, %d apps, %d containers", len(snap.Hosts), len(snap.Applications), len(snap.Containers))
	}

	app1 := snap.Applications[0]
	if app1.ID != "app1" || len(app1.Containers) != 2 {
		t.Fatalf("app1 = %+v", app1)
	}
	// file order is kept
	if app1.Containers[0].ID != "c2" || app1.Containers[1].ID != "c1" {
		t.Errorf("container order = %s, %s", app1.Containers[0].ID, app1.Containers[1].ID)
	}
	if app1.Containers[1].Host.PublicHostname != "node1.cloud" {
		t.Errorf("c1 host not resolved: %+v", app1.Containers[1].Host)
	}
	if port, ok := app1.Containers[1].ExternalPort(8080, "tcp", "0.0.0.0"); !ok || port != "40001" {
		t.Errorf("c1 port = %q, %v", port, ok)
	}

	if snap.Applications[1].HostInterface != "10.0.0.5" {
		t.Errorf("app2 host interface = %q", snap.Applications[1].HostInterface)
	}
	if snap.Containers["job1"].ApplicationID != "" {
		t.Error("job1 should not belong to an application")
	}

	domains := snap.Domains()
	if len(domains) != 2 || domains[0] != "app1.example.com" || domains[1] != "app2.example.com" {
		t.Errorf("Domains() = %v", domains)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/inventory.yaml").Load(); err == nil {
		t.Error("Load() with missing file should return error")
	}
}

func TestParseEmptyDocument(t *testing.T) {
	snap, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(snap.Applications) != 0 {
		t.Errorf("Parse() = %+v", snap)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "unknown field",
			content: "hosts:\n  - id: h1\n    hostname: a\n    colour: blue\n",
			wantMsg: "colour",
		},
		{
			name:    "unknown host reference",
			content: "containers:\n  - id: c1\n    host_id: nope\n",
			wantMsg: "unknown host",
		},
		{
			name: "unknown application reference",
			content: "hosts:\n  - id: h1\n    hostname: a\n" +
				"containers:\n  - id: c1\n    host_id: h1\n    application_id: ghost\n",
			wantMsg: "unknown application",
		},
		{
			name: "duplicate domain",
			content: "applications:\n" +
				"  - {id: a, domain: x.example.com, protocol: http, backend_port: 80}\n" +
				"  - {id: b, domain: x.example.com, protocol: http, backend_port: 80}\n",
			wantMsg: "claimed by both",
		},
		{
			name:    "bad backend port",
			content: "applications:\n  - {id: a, domain: x.example.com, protocol: http, backend_port: 0}\n",
			wantMsg: "backend_port",
		},
		{
			name:    "protocol with separator",
			content: "applications:\n  - {id: a, domain: x.example.com, protocol: 'http://', backend_port: 80}\n",
			wantMsg: "invalid protocol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Parse() error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestRegistryLookups(t *testing.T) {
	snap, err := Parse([]byte(sampleInventory))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	reg := NewRegistry()
	if !reg.LastReload().IsZero() {
		t.Error("new registry should never have reloaded")
	}
	if prev := reg.Replace(snap); len(prev.Applications) != 0 {
		t.Errorf("Replace() returned non-empty previous snapshot")
	}

	if app, err := reg.Application("app2"); err != nil || app.Domain != "app2.example.com" {
		t.Errorf("Application(app2) = %+v, %v", app, err)
	}
	if _, err := reg.Application("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Application(missing) error = %v, want ErrNotFound", err)
	}
	if c, err := reg.Container("job1"); err != nil || c.Host.ID != "h1" {
		t.Errorf("Container(job1) = %+v, %v", c, err)
	}
	if _, err := reg.Host("h9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Host(h9) error = %v, want ErrNotFound", err)
	}
	if !reg.HasDomain("app1.example.com") || reg.HasDomain("other.example.com") {
		t.Error("HasDomain() mismatch")
	}

	hosts, apps, containers := reg.Counts()
	if hosts != 2 || apps != 2 || containers != 3 {
		t.Errorf("Counts() = %d, %d, %d", hosts, apps, containers)
	}
	if reg.LastReload().IsZero() {
		t.Error("LastReload() should be set after Replace()")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	snap, err := Parse([]byte(sampleInventory))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Replace(snap)
		}()
		go func() {
			defer wg.Done()
			_ = reg.Applications()
			_, _ = reg.Application("app1")
			_ = reg.HasDomain("app1.example.com")
		}()
	}
	wg.Wait()
}
