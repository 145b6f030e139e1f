package relationship

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"vault/models"
)

const searchLimit = 50

type SearchResult struct {
	Friends []models.UserResponse `json:"friends"`
	Others  []models.UserResponse `json:"others"`
}

// Partition splits candidates into already-befriended peers and the rest,
// dropping the searching user.
func Partition(currentUserID string, candidates []models.User, existingFriends []string) SearchResult {
	friends := make(map[string]bool, len(existingFriends))
	for _, id := range existingFriends {
		friends[id] = true
	}

	res := SearchResult{
		Friends: []models.UserResponse{},
		Others:  []models.UserResponse{},
	}
	for i := range candidates {
		u := &candidates[i]
		if u.ID == currentUserID {
			continue
		}
		if friends[u.ID] {
			res.Friends = append(res.Friends, *u.ToResponse())
		} else {
			res.Others = append(res.Others, *u.ToResponse())
		}
	}
	return res
}

// Search runs a case-insensitive substring match on display names. It only
// reads and is safe to call concurrently.
func (m *Manager) Search(ctx context.Context, currentUserID, query string, existingFriends []string) (SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Partition(currentUserID, nil, nil), nil
	}
	users, err := m.store.SearchUsers(ctx, q, searchLimit)
	if err != nil {
		return SearchResult{}, errors.Wrap(err, "search users")
	}
	return Partition(currentUserID, users, existingFriends), nil
}

// FriendIDs lists the peers userID already has an edge to.
func (m *Manager) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	rels, err := m.store.ListRelationships(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list relationships")
	}
	ids := make([]string, 0, len(rels))
	for _, r := range rels {
		ids = append(ids, r.PeerID)
	}
	return ids, nil
}
