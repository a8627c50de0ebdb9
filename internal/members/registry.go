// Package members manages the association's member registry and exposes the
// read-only directory view the cycle and settlement engines depend on.
package members

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"tontine/internal/core"
	"tontine/internal/storage"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?\d{8,15}$`)
	phoneNoise   = regexp.MustCompile(`[\s\-()]`)
)

// ValidateEmail checks email format.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return core.ErrInvalidEmail
	}
	return nil
}

// ValidatePhone checks phone format: optional leading +, 8 to 15 digits.
// Spaces, dashes and parentheses are tolerated.
func ValidatePhone(phone string) error {
	cleaned := phoneNoise.ReplaceAllString(phone, "")
	if !phonePattern.MatchString(cleaned) {
		return core.ErrInvalidPhone
	}
	return nil
}

// Registry holds the member records in memory with an explicit save boundary
// to the store. Mutations are staged and only committed after a successful
// save, so a persistence failure leaves memory and disk identical.
type Registry struct {
	mu      sync.Mutex
	store   storage.Store
	members map[string]core.Member
	now     func() time.Time
}

func NewRegistry(ctx context.Context, store storage.Store) (*Registry, error) {
	members, err := store.LoadMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	return &Registry{
		store:   store,
		members: members,
		now:     time.Now,
	}, nil
}

// Register adds a new member. Email must be unique across the registry.
func (r *Registry) Register(ctx context.Context, lastName, firstName, email, phone string) (core.Member, error) {
	m := core.Member{
		LastName:  strings.TrimSpace(lastName),
		FirstName: strings.TrimSpace(firstName),
		Email:     strings.TrimSpace(email),
		Phone:     strings.TrimSpace(phone),
		Active:    true,
	}
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	if err := ValidateEmail(m.Email); err != nil {
		return core.Member{}, err
	}
	if err := ValidatePhone(m.Phone); err != nil {
		return core.Member{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.members {
		if strings.EqualFold(existing.Email, m.Email) {
			return core.Member{}, core.ErrDuplicateEmail
		}
	}

	m.ID = core.NextID(core.MemberIDPrefix, core.MemberIDWidth, ids(r.members))
	m.JoinedAt = r.now()

	staged := clone(r.members)
	staged[m.ID] = m
	if err := r.store.SaveMembers(ctx, staged); err != nil {
		return core.Member{}, fmt.Errorf("save members: %w", err)
	}
	r.members = staged

	slog.InfoContext(ctx, "Member registered", "member_id", m.ID, "name", m.DisplayName())
	return m, nil
}

// UpdateContact changes a member's email and/or phone. Empty values keep the
// current ones.
func (r *Registry) UpdateContact(ctx context.Context, id, email, phone string) (core.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[id]
	if !ok {
		return core.Member{}, core.ErrMemberNotFound
	}

	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if email != "" {
		if err := ValidateEmail(email); err != nil {
			return core.Member{}, err
		}
		for otherID, other := range r.members {
			if otherID != id && strings.EqualFold(other.Email, email) {
				return core.Member{}, core.ErrDuplicateEmail
			}
		}
		m.Email = email
	}
	if phone != "" {
		if err := ValidatePhone(phone); err != nil {
			return core.Member{}, err
		}
		m.Phone = phone
	}

	staged := clone(r.members)
	staged[id] = m
	if err := r.store.SaveMembers(ctx, staged); err != nil {
		return core.Member{}, fmt.Errorf("save members: %w", err)
	}
	r.members = staged

	slog.InfoContext(ctx, "Member contact updated", "member_id", id)
	return m, nil
}

// Deactivate marks a member inactive. History and balance are kept.
func (r *Registry) Deactivate(ctx context.Context, id string) error {
	return r.setActive(ctx, id, false)
}

// Reactivate marks a member active again.
func (r *Registry) Reactivate(ctx context.Context, id string) error {
	return r.setActive(ctx, id, true)
}

func (r *Registry) setActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[id]
	if !ok {
		return core.ErrMemberNotFound
	}
	if m.Active == active {
		return nil
	}
	m.Active = active

	staged := clone(r.members)
	staged[id] = m
	if err := r.store.SaveMembers(ctx, staged); err != nil {
		return fmt.Errorf("save members: %w", err)
	}
	r.members = staged

	slog.InfoContext(ctx, "Member status changed", "member_id", id, "active", active)
	return nil
}

// Get returns a member by id.
func (r *Registry) Get(id string) (core.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return core.Member{}, core.ErrMemberNotFound
	}
	return m, nil
}

// List returns all members sorted by id.
func (r *Registry) List() []core.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ExistsAndActive implements core.Directory.
func (r *Registry) ExistsAndActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	return ok && m.Active
}

// DisplayName implements core.Directory. Unknown ids yield the id itself so
// reports stay readable.
func (r *Registry) DisplayName(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		return m.DisplayName()
	}
	return id
}

// ActiveMemberIDs implements core.Directory, sorted by id.
func (r *Registry) ActiveMemberIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id, m := range r.members {
		if m.Active {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func ids(members map[string]core.Member) []string {
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

func clone(members map[string]core.Member) map[string]core.Member {
	out := make(map[string]core.Member, len(members))
	for k, v := range members {
		out[k] = v
	}
	return out
}
