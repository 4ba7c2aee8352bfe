package domain

import "fmt"

// Region identifies a cluster of cooperating sites/nodes.
type Region struct {
	ID          string `json:"id"`
	NetworkID   string `json:"network_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NodeAddr is the reachability record for a node on the mesh.
type NodeAddr struct {
	NodeID string       `json:"node_id"`
	Info   NodeAddrInfo `json:"info"`
}

type NodeAddrInfo struct {
	RelayURL        string   `json:"relay_url"`
	DirectAddresses []string `json:"direct_addresses"`
}

// Node is the local machine's identity within a Region.
type Node struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	NetworkName string     `json:"network_name,omitempty"`
	PandaNodeID string     `json:"panda_node_id,omitempty"`
	Addr        NodeAddr   `json:"iroh_node_addr"`
	Peers       []NodeAddr `json:"peers"`
}

// Site is the parallel local identity used by site-first deployments.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PandaNode describes the running network node: its public key,
// addresses, and the peers it currently knows about.
type PandaNode struct {
	PandaNodeID string     `json:"panda_node_id"`
	Addr        NodeAddr   `json:"iroh_node_addr"`
	Peers       []NodeAddr `json:"peers"`
}

// BootstrapPeer is only ever an input to a join; it is not persisted.
type BootstrapPeer struct {
	NodeID string `json:"node_id"`
	IP4    string `json:"ip4"`
}

// App is an application installed on this site.
type App struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	URL     string `json:"url,omitempty"`
	Version string `json:"version,omitempty"`
}

// ScopeKind selects which local identity a deployment onboards.
type ScopeKind string

const (
	ScopeNode ScopeKind = "node"
	ScopeSite ScopeKind = "site"
)

func ParseScopeKind(s string) (ScopeKind, error) {
	switch ScopeKind(s) {
	case ScopeNode, ScopeSite:
		return ScopeKind(s), nil
	}
	return "", fmt.Errorf("unknown scope kind %q", s)
}

// Local is the machine's identity within a Region: a Node or a Site.
type Local interface {
	LocalID() string
	LocalName() string
	Kind() ScopeKind
}

func (n Node) LocalID() string   { return n.ID }
func (n Node) LocalName() string { return n.Name }
func (n Node) Kind() ScopeKind   { return ScopeNode }

func (s Site) LocalID() string   { return s.ID }
func (s Site) LocalName() string { return s.Name }
func (s Site) Kind() ScopeKind   { return ScopeSite }

// NewRegion is the "create region" form.
type NewRegion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// JoinRegion is the "join an existing region" form.
type JoinRegion struct {
	NetworkName   string         `json:"network_name"`
	BootstrapPeer *BootstrapPeer `json:"bootstrap_peer"`
}

// NewLocal names a new node or site.
type NewLocal struct {
	Name string `json:"name"`
}

// BootstrapNode connects this node to a known peer of an existing network.
type BootstrapNode struct {
	NetworkName string `json:"network_name"`
	NodeID      string `json:"node_id"`
	IPAddress   string `json:"ip_address"`
}
