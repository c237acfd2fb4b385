package relay

import (
	"encoding/json"
)

type MessageType string

// Client to server
const (
	TypeRegisterPeer    MessageType = "REGISTER_PEER"
	TypeShareRepository MessageType = "SHARE_REPOSITORY"
	TypeVerifyData      MessageType = "VERIFY_DATA"
)

// Server to client
const (
	TypeNewPeer            MessageType = "NEW_PEER"
	TypePeerList           MessageType = "PEER_LIST"
	TypeRepositoryShared   MessageType = "REPOSITORY_SHARED"
	TypeVerificationResult MessageType = "VERIFICATION_RESULT"
	TypePeerDisconnected   MessageType = "PEER_DISCONNECTED"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type (
	RegisterPeerPayload struct {
		PeerID   string          `json:"peerId"`
		Metadata json.RawMessage `json:"metadata,omitempty"`
	}

	ShareRepositoryPayload struct {
		RepositoryID uint   `json:"repositoryId"`
		TargetPeerID string `json:"targetPeerId"`
	}

	VerifyDataPayload struct {
		DataID    string          `json:"dataId"`
		Data      json.RawMessage `json:"data"`
		Signature string          `json:"signature"`
		PublicKey string          `json:"publicKey"`
	}

	NewPeerPayload struct {
		PeerID   string          `json:"peerId"`
		Metadata json.RawMessage `json:"metadata"`
	}

	PeerInfo struct {
		PeerID   string          `json:"peerId"`
		LastSeen string          `json:"lastSeen"`
		Metadata json.RawMessage `json:"metadata"`
	}

	RepositorySharedPayload struct {
		RepositoryID uint   `json:"repositoryId"`
		SourcePeerID string `json:"sourcePeerId"`
	}

	VerificationResultPayload struct {
		DataID  string `json:"dataId"`
		IsValid bool   `json:"isValid"`
	}

	PeerDisconnectedPayload struct {
		PeerID string `json:"peerId"`
	}
)

func encode(t MessageType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: t, Payload: raw})
}
