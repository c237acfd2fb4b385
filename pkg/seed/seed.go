// Package seed fills an empty database with demo users, repositories and peers.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db/user"
	"github.com/gitmesh/gitmesh/pkg/storage"
)

const demoPassword = "password123"

const day = 24 * time.Hour

type seedUser struct {
	username, displayName, avatar string
	storageUsed                   int64
	age                           time.Duration
}

var users = []seedUser{
	{"alex", "Alex Johnson", "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?ixlib=rb-4.0.3&auto=format&fit=crop&w=150&h=150", 1_200_000_000, 30 * day},
	{"ethan", "Ethan Wright", "https://images.unsplash.com/photo-1599566150163-29194dcaad36?ixlib=rb-4.0.3&auto=format&fit=crop&w=100&h=100", 800_000_000, 20 * day},
	{"lisa", "Lisa Chen", "https://images.unsplash.com/photo-1550525811-e5869dd03032?ixlib=rb-4.0.3&auto=format&fit=crop&w=100&h=100", 500_000_000, 15 * day},
	{"sarah", "Sarah Reynolds", "https://images.unsplash.com/photo-1570295999919-56ceb5ecca61?ixlib=rb-4.0.3&auto=format&fit=crop&w=100&h=100", 1_500_000_000, 25 * day},
}

type seedRepo struct {
	owner, name, description, language string
	public, verified                   bool
	stars, forks, branches, commits    int
	created, updated                   time.Duration
	tags                               []string
	collaborators                      map[string]model.Permission
	peers                              []string
}

var repos = []seedRepo{
	{
		owner: "alex", name: "decentralized-storage-client",
		description: "Client library for connecting to decentralized storage networks",
		language:    "TypeScript", public: true, verified: true,
		stars: 24, forks: 8, branches: 3, commits: 128,
		created: 28 * day, updated: 2 * day,
		tags:          []string{"p2p", "typescript", "decentralized"},
		collaborators: map[string]model.Permission{"ethan": model.PermissionWrite, "lisa": model.PermissionRead},
		peers:         []string{"QmPeerid1", "QmPeerid2"},
	},
	{
		owner: "alex", name: "p2p-blockchain-explorer",
		description: "Decentralized blockchain explorer with peer-to-peer architecture",
		language:    "JavaScript", public: true, verified: true,
		stars: 42, forks: 15, branches: 5, commits: 216,
		created: 25 * day, updated: 5 * day,
		tags:  []string{"p2p", "blockchain", "javascript", "web3"},
		peers: []string{"QmPeerid1", "QmPeerid3"},
	},
	{
		owner: "alex", name: "crypto-identity-manager",
		description: "Secure identity management using cryptographic signatures",
		language:    "Rust",
		branches:    2, commits: 96,
		created: 20 * day, updated: 1 * day,
		tags:          []string{"decentralized", "rust"},
		collaborators: map[string]model.Permission{"lisa": model.PermissionWrite},
	},
	{
		owner: "ethan", name: "decentralized-git-protocol",
		description: "Implementation of Git protocol over libp2p with cryptographic verification",
		language:    "Rust", public: true, verified: true,
		stars: 126, forks: 32, branches: 4, commits: 345,
		created: 18 * day, updated: 3 * day,
		tags:          []string{"p2p", "git", "rust"},
		collaborators: map[string]model.Permission{"alex": model.PermissionRead},
		peers:         []string{"QmPeerid2"},
	},
	{
		owner: "sarah", name: "p2p-issue-tracker",
		description: "Decentralized issue tracking system with offline-first capabilities",
		language:    "JavaScript", public: true, verified: true,
		stars: 89, forks: 15, branches: 3, commits: 178,
		created: 15 * day, updated: 4 * day,
		tags:  []string{"p2p", "javascript", "issues", "offline-first"},
		peers: []string{"QmPeerid3"},
	},
}

var tagNames = []string{
	"p2p", "blockchain", "javascript", "typescript", "decentralized", "git",
	"rust", "web3", "defi", "issues", "offline-first",
}

var peers = []struct {
	id, name, location string
}{
	{"QmPeerid1", "Peer 1", "US"},
	{"QmPeerid2", "Peer 2", "EU"},
	{"QmPeerid3", "Peer 3", "AS"},
}

var activities = []struct {
	user, repo, typ string
	payload         map[string]string
	age             time.Duration
}{
	{"alex", "p2p-blockchain-explorer", "commit", map[string]string{
		"commitHash": "8fb21a9e7d2c3de4a5b6c7d8e9f0a1b2c3d4e5f6",
		"message":    "Fix peer discovery in NAT environments",
	}, 3 * time.Hour},
	{"alex", "decentralized-storage-client", "commit", map[string]string{
		"commitHash": "1a2b3c4d5e6f7g8h9i0j1k2l3m4n5o6p7q8r9s0",
		"message":    "Add support for IPFS integration",
	}, 2 * day},
	{"ethan", "decentralized-storage-client", "issue", map[string]string{
		"action": "opened",
		"title":  "Add support for encrypted content addressing",
	}, 1 * day},
	{"lisa", "crypto-identity-manager", "pull_request", map[string]string{
		"action": "opened",
		"title":  "Implement multi-device key synchronization",
	}, 2 * day},
}

// Seeder inserts the demo data set.
type Seeder struct {
	DB     *gorm.DB
	Store  storage.Store
	KeyGen func() (publicPEM, privatePEM string, err error)
	Now    func() time.Time
}

// Run seeds the database unless it already has users. It reports whether anything was written.
func (s *Seeder) Run(ctx context.Context) (bool, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		klog.Info("database already has users, skipping seed")
		return false, nil
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	hash, err := user.HashPassword(demoPassword)
	if err != nil {
		return false, err
	}

	var created []string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t := now().UTC()

		userIDs := map[string]uint{}
		for _, su := range users {
			pub, priv, err := s.KeyGen()
			if err != nil {
				return err
			}
			u := model.User{
				Username:     su.username,
				PasswordHash: hash,
				DisplayName:  su.displayName,
				PublicKey:    pub,
				PrivateKey:   &priv,
				AvatarURL:    &su.avatar,
				StorageUsed:  su.storageUsed,
				StorageLimit: model.DefaultStorageLimit,
				CreatedAt:    t.Add(-su.age),
			}
			if err := tx.Create(&u).Error; err != nil {
				return fmt.Errorf("create user %s: %w", su.username, err)
			}
			userIDs[su.username] = u.ID
		}

		tagIDs := map[string]uint{}
		for _, name := range tagNames {
			tag := model.Tag{Name: name}
			if err := tx.Create(&tag).Error; err != nil {
				return fmt.Errorf("create tag %s: %w", name, err)
			}
			tagIDs[name] = tag.ID
		}

		for _, p := range peers {
			metadata, _ := json.Marshal(map[string]string{"name": p.name, "location": p.location})
			if err := tx.Create(&model.Peer{PeerID: p.id, LastSeen: t, Metadata: datatypes.JSON(metadata)}).Error; err != nil {
				return fmt.Errorf("create peer %s: %w", p.id, err)
			}
		}

		repoIDs := map[string]uint{}
		perOwner := map[string]int{}
		for i := range repos {
			sr := &repos[i]
			perOwner[sr.owner]++
			ownerID := userIDs[sr.owner]
			repo := model.Repository{
				Name:        sr.name,
				Description: &sr.description,
				IsPublic:    sr.public,
				IsVerified:  sr.verified,
				OwnerID:     ownerID,
				Language:    &sr.language,
				Stars:       sr.stars,
				Forks:       sr.forks,
				Branches:    sr.branches,
				Commits:     sr.commits,
				LocalPath:   fmt.Sprintf("/repos/%d_%d", ownerID, perOwner[sr.owner]),
				CreatedAt:   t.Add(-sr.created),
				UpdatedAt:   t.Add(-sr.updated),
			}
			if err := tx.Create(&repo).Error; err != nil {
				return fmt.Errorf("create repository %s: %w", sr.name, err)
			}
			repoIDs[sr.name] = repo.ID

			for _, name := range sr.tags {
				if err := tx.Create(&model.RepositoryTag{RepositoryID: repo.ID, TagID: tagIDs[name]}).Error; err != nil {
					return err
				}
			}
			for username, perm := range sr.collaborators {
				if err := tx.Create(&model.Collaborator{
					RepositoryID: repo.ID, UserID: userIDs[username], Permission: perm,
				}).Error; err != nil {
					return err
				}
			}
			for _, peerID := range sr.peers {
				if err := tx.Create(&model.SharedRepository{RepositoryID: repo.ID, PeerID: peerID}).Error; err != nil {
					return err
				}
			}

			if err := s.Store.Create(repo.LocalPath); err != nil && !errors.Is(err, storage.ErrExist) {
				return fmt.Errorf("create directory for %s: %w", sr.name, err)
			}
			created = append(created, repo.LocalPath)
		}

		for _, a := range activities {
			payload, _ := json.Marshal(a.payload)
			repoID := repoIDs[a.repo]
			if err := tx.Create(&model.Activity{
				UserID:       userIDs[a.user],
				RepositoryID: &repoID,
				Type:         a.typ,
				Payload:      datatypes.JSON(payload),
				CreatedAt:    t.Add(-a.age),
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		for _, p := range created {
			_ = s.Store.Remove(p)
		}
		return false, err
	}
	klog.Infof("seeded %d users, %d repositories, %d peers", len(users), len(repos), len(peers))
	return true, nil
}
