// Package relay forwards JSON notices between websocket clients that
// identify themselves with a self-declared peer id.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/crypto"
	"github.com/gitmesh/gitmesh/pkg/monitor"
)

const storeTimeout = 5 * time.Second

// PeerStore persists what the relay learns about peers.
type PeerStore interface {
	Upsert(ctx context.Context, peerID string, metadata json.RawMessage, now time.Time) (*model.Peer, error)
	ListActive(ctx context.Context, now time.Time) ([]model.Peer, error)
	Share(ctx context.Context, repositoryID uint, peerID string) (*model.SharedRepository, error)
}

type Relay struct {
	registry *Registry
	store    PeerStore
	verifier crypto.Verifier
	log      logr.Logger
	upgrader websocket.Upgrader
	buffer   int
	now      func() time.Time
}

type Option func(*Relay)

func WithCheckOrigin(f func(*http.Request) bool) Option {
	return func(r *Relay) { r.upgrader.CheckOrigin = f }
}

func WithSendBuffer(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.buffer = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

func New(store PeerStore, verifier crypto.Verifier, log logr.Logger, opts ...Option) *Relay {
	r := &Relay{
		registry: NewRegistry(),
		store:    store,
		verifier: verifier,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		buffer: SendBuffer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relay) Registry() *Registry {
	return r.registry
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ws, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Error(err, "websocket upgrade failed", "remote", req.RemoteAddr)
		return
	}
	r.ServeConn(req.Context(), ws)
}

// ServeConn runs the read loop of ws and blocks until the peer goes away.
func (r *Relay) ServeConn(ctx context.Context, ws *websocket.Conn) {
	c := newConn(ws, r.buffer)
	go c.writeLoop()
	ws.SetReadLimit(MaxMessageSize)
	log := r.log.WithValues("remote", ws.RemoteAddr().String())
	log.V(2).Info("connection opened")

	defer r.disconnect(c, log)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, context.Canceled) {
				log.V(1).Info("read failed", "err", err.Error())
			}
			return
		}
		r.handle(ctx, c, data, log)
	}
}

func (r *Relay) disconnect(c *Conn, log logr.Logger) {
	c.close()
	_ = c.ws.Close()

	id := c.PeerID()
	if id == "" || !r.registry.Unregister(id, c) {
		log.V(2).Info("connection closed")
		return
	}
	log.Info("peer disconnected", "peerId", id)
	msg, err := encode(TypePeerDisconnected, PeerDisconnectedPayload{PeerID: id})
	if err != nil {
		log.Error(err, "encode peer disconnected")
		return
	}
	r.registry.Broadcast(msg, c)
}

// handle never returns an error: bad frames are logged and dropped.
func (r *Relay) handle(ctx context.Context, c *Conn, data []byte, log logr.Logger) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Info("dropping malformed message", "err", err.Error())
		return
	}
	monitor.RelayMessages.WithLabelValues(string(msg.Type)).Inc()

	switch msg.Type {
	case TypeRegisterPeer:
		r.registerPeer(ctx, c, msg.Payload, log)
	case TypeShareRepository:
		r.shareRepository(ctx, c, msg.Payload, log)
	case TypeVerifyData:
		r.verifyData(c, msg.Payload, log)
	default:
		log.Info("dropping message of unknown type", "type", msg.Type)
	}
}

func (r *Relay) registerPeer(ctx context.Context, c *Conn, raw json.RawMessage, log logr.Logger) {
	var p RegisterPeerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Info("dropping malformed REGISTER_PEER", "err", err.Error())
		return
	}
	if p.PeerID == "" {
		log.Info("ignoring REGISTER_PEER without peerId")
		return
	}

	if prev := c.setPeerID(p.PeerID); prev != "" && prev != p.PeerID {
		r.registry.Unregister(prev, c)
	}
	if displaced := r.registry.Register(p.PeerID, c); displaced != nil {
		log.Info("peer id taken over by a newer connection", "peerId", p.PeerID)
	}
	log.Info("peer registered", "peerId", p.PeerID)

	now := r.now()
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if _, err := r.store.Upsert(sctx, p.PeerID, p.Metadata, now); err != nil {
		log.Error(err, "upsert peer", "peerId", p.PeerID)
	}

	metadata := p.Metadata
	if len(metadata) == 0 || string(metadata) == "null" {
		metadata = json.RawMessage("{}")
	}
	if msg, err := encode(TypeNewPeer, NewPeerPayload{PeerID: p.PeerID, Metadata: metadata}); err == nil {
		r.registry.Broadcast(msg, c)
	}

	peers, err := r.store.ListActive(sctx, now)
	if err != nil {
		log.Error(err, "list active peers")
		return
	}
	list := make([]PeerInfo, 0, len(peers))
	for i := range peers {
		list = append(list, PeerInfo{
			PeerID:   peers[i].PeerID,
			LastSeen: peers[i].LastSeen.UTC().Format(time.RFC3339Nano),
			Metadata: json.RawMessage(peers[i].Metadata),
		})
	}
	if msg, err := encode(TypePeerList, list); err == nil {
		c.Send(msg)
	}
}

func (r *Relay) shareRepository(ctx context.Context, c *Conn, raw json.RawMessage, log logr.Logger) {
	source := c.PeerID()
	if source == "" {
		log.Info("ignoring SHARE_REPOSITORY from unregistered connection")
		return
	}
	var p ShareRepositoryPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Info("dropping malformed SHARE_REPOSITORY", "err", err.Error())
		return
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if _, err := r.store.Share(sctx, p.RepositoryID, p.TargetPeerID); err != nil {
		log.Error(err, "record share", "repositoryId", p.RepositoryID, "targetPeerId", p.TargetPeerID)
		return
	}

	target, ok := r.registry.Lookup(p.TargetPeerID)
	if !ok {
		log.V(1).Info("share target not connected", "targetPeerId", p.TargetPeerID)
		return
	}
	msg, err := encode(TypeRepositoryShared, RepositorySharedPayload{
		RepositoryID: p.RepositoryID,
		SourcePeerID: source,
	})
	if err != nil {
		log.Error(err, "encode repository shared")
		return
	}
	target.Send(msg)
}

func (r *Relay) verifyData(c *Conn, raw json.RawMessage, log logr.Logger) {
	if c.PeerID() == "" {
		log.Info("ignoring VERIFY_DATA from unregistered connection")
		return
	}
	var p VerifyDataPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Info("dropping malformed VERIFY_DATA", "err", err.Error())
		return
	}
	valid := r.verifier.Verify(p.Data, p.Signature, p.PublicKey)
	msg, err := encode(TypeVerificationResult, VerificationResultPayload{DataID: p.DataID, IsValid: valid})
	if err != nil {
		log.Error(err, "encode verification result")
		return
	}
	c.Send(msg)
}
