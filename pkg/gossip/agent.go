// Package gossip discovers backend servers through a memberlist
// cluster. Backends that join announce their serving address and
// weight in node metadata; the balancer registers them as they come
// and go. It supplements the management API as a topology source.
package gossip

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/hashicorp/memberlist"
)

// Backend is the pool entry a gossiping node advertises.
type Backend struct {
	Name   string
	Host   string
	Port   int
	Weight int
}

// Registrar receives membership changes. The balancer app implements
// it on top of the core service.
type Registrar interface {
	AddBackend(backend Backend) error
	RemoveBackend(name string) error
}

// Meta is the JSON payload carried in memberlist node metadata.
type Meta struct {
	Role   string `json:"role"`
	Host   string `json:"host,omitempty"`
	Port   int    `json:"port,omitempty"`
	Weight int    `json:"weight,omitempty"`
}

const (
	RoleBalancer = "balancer"
	RoleBackend  = "backend"
)

// Config describes this node's presence in the gossip cluster.
type Config struct {
	NodeName string
	BindAddr string
	BindPort int
	Meta     Meta
}

// Agent bridges memberlist events to the Registrar.
type Agent struct {
	list      *memberlist.Memberlist
	conf      *memberlist.Config
	registrar Registrar
	meta      Meta
}

var _ memberlist.Delegate = (*Agent)(nil)
var _ memberlist.EventDelegate = (*Agent)(nil)

func NewAgent(cfg Config, registrar Registrar) (*Agent, error) {
	mlConf := memberlist.DefaultLANConfig()
	mlConf.Name = cfg.NodeName
	mlConf.BindAddr = cfg.BindAddr
	mlConf.BindPort = cfg.BindPort
	mlConf.AdvertisePort = cfg.BindPort
	mlConf.LogOutput = io.Discard

	agent := &Agent{
		conf:      mlConf,
		registrar: registrar,
		meta:      cfg.Meta,
	}
	mlConf.Events = agent
	mlConf.Delegate = agent

	list, err := memberlist.Create(mlConf)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	agent.list = list
	return agent, nil
}

// Join joins the cluster through the given seed addresses.
func (a *Agent) Join(seeds []string) error {
	if len(seeds) == 0 {
		return nil
	}
	if _, err := a.list.Join(seeds); err != nil {
		return fmt.Errorf("failed to join gossip cluster: %w", err)
	}
	return nil
}

// Leave announces departure and shuts the agent down.
func (a *Agent) Leave() error {
	if err := a.list.Leave(5 * time.Second); err != nil {
		return err
	}
	return a.list.Shutdown()
}

// NodeMeta returns this node's advertised metadata.
func (a *Agent) NodeMeta(limit int) []byte {
	data, err := json.Marshal(a.meta)
	if err != nil {
		logger.Warnw("failed to marshal gossip node meta", "error", err.Error())
		return nil
	}
	if len(data) > limit {
		logger.Warnw("gossip node meta exceeds limit", "size", len(data), "limit", limit)
		return nil
	}
	return data
}

// NotifyMsg, GetBroadcasts, LocalState and MergeRemoteState are
// required by Delegate but unused here.
func (a *Agent) NotifyMsg([]byte)                           {}
func (a *Agent) GetBroadcasts(overhead, limit int) [][]byte { return nil }
func (a *Agent) LocalState(join bool) []byte                { return nil }
func (a *Agent) MergeRemoteState(buf []byte, join bool)     {}

// NotifyJoin registers backend nodes as they join. Non-backend members
// (other balancers) are ignored.
func (a *Agent) NotifyJoin(node *memberlist.Node) {
	backend, ok := decodeBackend(node)
	if !ok {
		return
	}
	logger.Infow("Backend joined gossip cluster",
		"name", backend.Name, "host", backend.Host, "port", backend.Port, "weight", backend.Weight)
	if err := a.registrar.AddBackend(backend); err != nil {
		logger.Debugw("Backend registration skipped", "name", backend.Name, "error", err.Error())
	}
}

// NotifyLeave deregisters departed backends.
func (a *Agent) NotifyLeave(node *memberlist.Node) {
	backend, ok := decodeBackend(node)
	if !ok {
		return
	}
	logger.Infow("Backend left gossip cluster", "name", backend.Name)
	if err := a.registrar.RemoveBackend(backend.Name); err != nil {
		logger.Debugw("Backend removal skipped", "name", backend.Name, "error", err.Error())
	}
}

// NotifyUpdate re-registers a backend whose metadata changed.
func (a *Agent) NotifyUpdate(node *memberlist.Node) {
	backend, ok := decodeBackend(node)
	if !ok {
		return
	}
	if err := a.registrar.RemoveBackend(backend.Name); err != nil {
		logger.Debugw("Backend removal before update skipped", "name", backend.Name, "error", err.Error())
	}
	a.NotifyJoin(node)
}

func decodeBackend(node *memberlist.Node) (Backend, bool) {
	if len(node.Meta) == 0 {
		return Backend{}, false
	}
	var m Meta
	if err := json.Unmarshal(node.Meta, &m); err != nil {
		logger.Warnw("failed to decode gossip node metadata", "node", node.Name, "error", err.Error())
		return Backend{}, false
	}
	if m.Role != RoleBackend {
		return Backend{}, false
	}
	host := m.Host
	if host == "" {
		host = node.Addr.String()
	}
	weight := m.Weight
	if weight < 1 {
		weight = 1
	}
	return Backend{
		Name:   node.Name,
		Host:   host,
		Port:   m.Port,
		Weight: weight,
	}, true
}
