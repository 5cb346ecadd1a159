package model

// CacheManifest names the current cache version and the assets to
// precache. Exactly one manifest is current at a time; activation
// deletes every store whose name differs from CacheName.
type CacheManifest struct {
	CacheName string   `json:"cache_name"`
	Assets    []string `json:"assets"`
}

// Gateway lifecycle states
const (
	GatewayInstalling = "installing"
	GatewayInstalled  = "installed" // waiting for activation
	GatewayActivating = "activating"
	GatewayActivated  = "activated"
)
