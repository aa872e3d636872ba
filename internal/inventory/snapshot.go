package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/harbor/internal/domain"
)

// ErrNotFound is returned by lookups for ids the inventory does not know.
var ErrNotFound = errors.New("not found")

// Snapshot is one coherent view of hosts, applications and containers.
// Applications and their containers keep file order.
type Snapshot struct {
	Hosts        map[string]*domain.Host
	Applications []*domain.Application
	Containers   map[string]*domain.Container
}

// Build resolves references between the document's sections.
func Build(doc Document) (*Snapshot, error) {
	snap := &Snapshot{
		Hosts:        make(map[string]*domain.Host, len(doc.Hosts)),
		Applications: make([]*domain.Application, 0, len(doc.Applications)),
		Containers:   make(map[string]*domain.Container, len(doc.Containers)),
	}

	for _, h := range doc.Hosts {
		if h.ID == "" || h.Hostname == "" {
			return nil, fmt.Errorf("host %q: id and hostname are required", h.ID)
		}
		if _, dup := snap.Hosts[h.ID]; dup {
			return nil, fmt.Errorf("duplicate host %q", h.ID)
		}
		snap.Hosts[h.ID] = &domain.Host{
			ID:             h.ID,
			Hostname:       h.Hostname,
			PublicHostname: h.PublicHostname,
			Port:           h.Port,
		}
	}

	apps := make(map[string]*domain.Application, len(doc.Applications))
	domains := make(map[string]string, len(doc.Applications))
	for _, a := range doc.Applications {
		if err := validateApplication(a); err != nil {
			return nil, err
		}
		if _, dup := apps[a.ID]; dup {
			return nil, fmt.Errorf("duplicate application %q", a.ID)
		}
		if owner, dup := domains[a.Domain]; dup {
			return nil, fmt.Errorf("domain %q claimed by both %q and %q", a.Domain, owner, a.ID)
		}
		app := &domain.Application{
			ID:            a.ID,
			Domain:        a.Domain,
			Protocol:      a.Protocol,
			BackendPort:   a.BackendPort,
			HostInterface: a.HostInterface,
		}
		apps[a.ID] = app
		domains[a.Domain] = a.ID
		snap.Applications = append(snap.Applications, app)
	}

	for _, c := range doc.Containers {
		if c.ID == "" {
			return nil, errors.New("container without id")
		}
		if _, dup := snap.Containers[c.ID]; dup {
			return nil, fmt.Errorf("duplicate container %q", domain.ShortID(c.ID))
		}
		host, ok := snap.Hosts[c.HostID]
		if !ok {
			return nil, fmt.Errorf("container %s: unknown host %q", domain.ShortID(c.ID), c.HostID)
		}
		container := &domain.Container{
			ID:            c.ID,
			ApplicationID: c.ApplicationID,
			Host:          host,
			Ports:         domain.PortMap(c.Ports),
		}
		snap.Containers[c.ID] = container

		// Containers not attached to an application (one-off jobs) are still
		// addressable for console sessions.
		if c.ApplicationID == "" {
			continue
		}
		app, ok := apps[c.ApplicationID]
		if !ok {
			return nil, fmt.Errorf("container %s: unknown application %q", domain.ShortID(c.ID), c.ApplicationID)
		}
		app.Containers = append(app.Containers, container)
	}

	return snap, nil
}

func validateApplication(a ApplicationSpec) error {
	switch {
	case a.ID == "":
		return errors.New("application without id")
	case a.Domain == "":
		return fmt.Errorf("application %q: domain is required", a.ID)
	case a.Protocol == "" || strings.Contains(a.Protocol, "://"):
		return fmt.Errorf("application %q: invalid protocol %q", a.ID, a.Protocol)
	case a.BackendPort <= 0 || a.BackendPort > 65535:
		return fmt.Errorf("application %q: invalid backend_port %d", a.ID, a.BackendPort)
	}
	return nil
}

// Domains lists the domain of every application.
func (s *Snapshot) Domains() []string {
	out := make([]string, 0, len(s.Applications))
	for _, a := range s.Applications {
		out = append(out, a.Domain)
	}
	return out
}
