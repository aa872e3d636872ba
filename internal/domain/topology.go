package domain

import (
	"fmt"
	"strconv"
)

// WildcardInterface is the bind address meaning "every interface of the host".
const WildcardInterface = "0.0.0.0"

// Host is a machine running a container engine and a harbor agent.
type Host struct {
	ID string

	// Hostname is the name the control plane uses to reach the host.
	Hostname string

	// PublicHostname is the name advertised to the outside world.
	// Empty when the host does not advertise one.
	PublicHostname string

	// Port is the container engine API port on Hostname.
	Port int
}

// Application is a routable workload published under one domain.
type Application struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the stable identifier. It is written as the head element of the
	// frontend routing entry.
	ID string

	// Domain is the public name the reverse proxy serves.
	// Example: app1.example.com
	Domain string

	// ─────────────────────────────
	// Backend contract
	// ─────────────────────────────

	// Protocol is the upstream scheme, copied verbatim into upstream URLs.
	Protocol string

	// BackendPort is the port the application listens on inside its containers.
	BackendPort int

	// HostInterface is the interface the backend port is published on.
	// Empty means WildcardInterface.
	HostInterface string

	// ─────────────────────────────
	// Topology
	// ─────────────────────────────

	// Containers in enumeration order. Upstreams are published in this order.
	Containers []*Container
}

// BindInterface returns the interface backends are published on.
func (a *Application) BindInterface() string {
	if a.HostInterface == "" {
		return WildcardInterface
	}
	return a.HostInterface
}

// PortMap maps "<port>/<proto>" to interface to external port, mirroring the
// container engine's port binding report.
type PortMap map[string]map[string]string

// Container is one running instance of an application on a host.
type Container struct {
	ID            string
	ApplicationID string
	Host          *Host
	Ports         PortMap
}

// PortKey builds the PortMap key for a container port and transport protocol.
func PortKey(port int, proto string) string {
	return strconv.Itoa(port) + "/" + proto
}

// ExternalPort looks up the host port bound for port/proto on iface.
func (c *Container) ExternalPort(port int, proto, iface string) (string, bool) {
	bindings, ok := c.Ports[PortKey(port, proto)]
	if !ok {
		return "", false
	}
	external, ok := bindings[iface]
	if !ok || external == "" {
		return "", false
	}
	return external, true
}

// EngineAddr is the host:port of the container engine that runs c.
func (c *Container) EngineAddr() string {
	return fmt.Sprintf("%s:%d", c.Host.Hostname, c.Host.Port)
}
