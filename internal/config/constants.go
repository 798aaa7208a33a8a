package config

// Runtime backends
const (
	BackendCLI = "cli"
	BackendAPI = "api"
)

// Image defaults
const (
	DefaultImage = "nwchemorg/nwchem-qc"
	DefaultTag   = "latest"
)

// Conversion defaults
const (
	DefaultTargetExtension = "yaml"
	DefaultMountTarget     = "/opt/data"
	DefaultRuntimeBinary   = "docker"
)

// Network modes
const (
	NetworkBridge = "bridge"
	NetworkHost   = "host"
	NetworkNone   = "none"
)
