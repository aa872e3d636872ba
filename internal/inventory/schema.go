package inventory

// Document is the on-disk inventory snapshot exported by the control plane.
type Document struct {
	Hosts        []HostSpec        `yaml:"hosts"`
	Applications []ApplicationSpec `yaml:"applications"`
	Containers   []ContainerSpec   `yaml:"containers"`
}

type HostSpec struct {
	ID             string `yaml:"id"`
	Hostname       string `yaml:"hostname"`
	PublicHostname string `yaml:"public_hostname,omitempty"`
	Port           int    `yaml:"port"`
}

type ApplicationSpec struct {
	ID            string `yaml:"id"`
	Domain        string `yaml:"domain"`
	Protocol      string `yaml:"protocol"`
	BackendPort   int    `yaml:"backend_port"`
	HostInterface string `yaml:"host_interface,omitempty"`
}

// ContainerSpec mirrors the engine's port report: "8080/tcp" -> interface -> host port.
type ContainerSpec struct {
	ID            string                       `yaml:"id"`
	HostID        string                       `yaml:"host_id"`
	ApplicationID string                       `yaml:"application_id"`
	Ports         map[string]map[string]string `yaml:"ports,omitempty"`
}
