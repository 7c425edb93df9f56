// Package memory is an in-process implementation of repo.Store.
// It enforces the same uniqueness, foreign-key and check rules as the
// Postgres schema so services behave identically on either backend.
// It is safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// Store holds all tables behind one mutex. Every statement, and every InTx
// call as a whole, runs with the mutex held.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{data: newState(), now: time.Now}
}

var _ repo.Store = (*Store)(nil)

// Repos returns repositories that lock the store for each call.
func (s *Store) Repos() repo.Repos {
	return s.reposOver(func(fn func(*state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.data)
	})
}

// InTx runs fn against a private copy of the tables and publishes the copy
// only when fn returns nil. fn must use the Repos it is given; calling
// s.Repos() inside fn deadlocks.
func (s *Store) InTx(ctx context.Context, fn func(repo.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory.Store.InTx: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	err := fn(s.reposOver(func(f func(*state) error) error {
		return f(working)
	}))
	if err != nil {
		return fmt.Errorf("memory.Store.InTx: %w", err)
	}
	s.data = working
	return nil
}

type runner func(fn func(*state) error) error

func (s *Store) reposOver(run runner) repo.Repos {
	return repo.Repos{
		Users:    &userRepo{run: run, now: s.now},
		Trips:    &tripRepo{run: run, now: s.now},
		Members:  &membershipRepo{run: run, now: s.now},
		Places:   &placeRepo{run: run, now: s.now},
		Expenses: &expenseRepo{run: run, now: s.now},
	}
}

// tripRow stamps each trip with an insertion sequence so newest-first ordering
// is stable even when two rows share a timestamp.
type tripRow struct {
	trip domain.Trip
	seq  int64
}

type memberKey struct {
	tripID uuid.UUID
	userID uuid.UUID
}

type state struct {
	seq      int64
	users    map[uuid.UUID]domain.User
	trips    map[uuid.UUID]tripRow
	members  map[memberKey]domain.Membership
	places   []domain.Place   // insertion order
	expenses []domain.Expense // insertion order
}

func newState() *state {
	return &state{
		users:   make(map[uuid.UUID]domain.User),
		trips:   make(map[uuid.UUID]tripRow),
		members: make(map[memberKey]domain.Membership),
	}
}

func (st *state) clone() *state {
	cp := &state{
		seq:      st.seq,
		users:    make(map[uuid.UUID]domain.User, len(st.users)),
		trips:    make(map[uuid.UUID]tripRow, len(st.trips)),
		members:  make(map[memberKey]domain.Membership, len(st.members)),
		places:   append([]domain.Place(nil), st.places...),
		expenses: append([]domain.Expense(nil), st.expenses...),
	}
	for k, v := range st.users {
		cp.users[k] = v
	}
	for k, v := range st.trips {
		cp.trips[k] = v
	}
	for k, v := range st.members {
		cp.members[k] = v
	}
	return cp
}

func (st *state) nextSeq() int64 {
	st.seq++
	return st.seq
}

func (st *state) username(id uuid.UUID) string {
	return st.users[id].Username
}

// userRepo

type userRepo struct {
	run runner
	now func() time.Time
}

func (r *userRepo) Create(_ context.Context, u domain.User) (domain.User, error) {
	var out domain.User
	err := r.run(func(st *state) error {
		for _, existing := range st.users {
			if existing.Username == u.Username {
				return fmt.Errorf("%w: users_username_key", domain.ErrConflict)
			}
			if existing.Email == u.Email {
				return fmt.Errorf("%w: users_email_key", domain.ErrConflict)
			}
		}
		out = u
		out.ID = uuid.New()
		out.CreatedAt = r.now().UTC()
		st.users[out.ID] = out
		return nil
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("memory.UserRepo.Create: %w", err)
	}
	return out, nil
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	return r.find("GetByID", func(u domain.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	return r.find("GetByEmail", func(u domain.User) bool { return u.Email == email })
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	return r.find("GetByUsername", func(u domain.User) bool { return u.Username == username })
}

func (r *userRepo) find(op string, match func(domain.User) bool) (domain.User, error) {
	var (
		out   domain.User
		found bool
	)
	_ = r.run(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				out, found = u, true
				return nil
			}
		}
		return nil
	})
	if !found {
		return domain.User{}, fmt.Errorf("memory.UserRepo.%s: %w", op, domain.ErrNotFound)
	}
	return out, nil
}

// tripRepo

type tripRepo struct {
	run runner
	now func() time.Time
}

func (r *tripRepo) Create(_ context.Context, t domain.Trip) (domain.Trip, error) {
	var out domain.Trip
	err := r.run(func(st *state) error {
		owner, ok := st.users[t.OwnerID]
		if !ok {
			return fmt.Errorf("owner: %w", domain.ErrNotFound)
		}
		if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
			return fmt.Errorf("%w: trips_dates_ordered", domain.ErrValidation)
		}
		out = t
		out.ID = uuid.New()
		out.StartDate = cloneDate(t.StartDate)
		out.EndDate = cloneDate(t.EndDate)
		out.CreatedAt = r.now().UTC()
		st.trips[out.ID] = tripRow{trip: out, seq: st.nextSeq()}
		out.OwnerName = owner.Username
		return nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("memory.TripRepo.Create: %w", err)
	}
	return out, nil
}

func (r *tripRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	var out domain.Trip
	err := r.run(func(st *state) error {
		row, ok := st.trips[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = readTrip(st, row)
		return nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("memory.TripRepo.GetByID: %w", err)
	}
	return out, nil
}

func (r *tripRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]domain.Trip, error) {
	var rows []tripRow
	out := []domain.Trip{}
	_ = r.run(func(st *state) error {
		for id, row := range st.trips {
			_, member := st.members[memberKey{tripID: id, userID: userID}]
			if row.trip.OwnerID == userID || member {
				rows = append(rows, row)
			}
		}
		sortTripRows(rows)
		for _, row := range rows {
			out = append(out, readTrip(st, row))
		}
		return nil
	})
	return out, nil
}

func readTrip(st *state, row tripRow) domain.Trip {
	t := row.trip
	t.StartDate = cloneDate(t.StartDate)
	t.EndDate = cloneDate(t.EndDate)
	t.OwnerName = st.username(t.OwnerID)
	return t
}

// sortTripRows orders by start date descending with undated trips last,
// then newest first.
func sortTripRows(rows []tripRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].trip.StartDate, rows[j].trip.StartDate
		switch {
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		}
		return rows[i].seq > rows[j].seq
	})
}

func cloneDate(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	d := *p
	return &d
}

// membershipRepo

type membershipRepo struct {
	run runner
	now func() time.Time
}

func (r *membershipRepo) Add(_ context.Context, m domain.Membership) (domain.Membership, error) {
	out := m
	err := r.run(func(st *state) error {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: trip_members_role_check", domain.ErrValidation)
		}
		if _, ok := st.trips[m.TripID]; !ok {
			return fmt.Errorf("%w: trip_members_trip_id_fkey", domain.ErrNotFound)
		}
		if _, ok := st.users[m.UserID]; !ok {
			return fmt.Errorf("%w: trip_members_user_id_fkey", domain.ErrNotFound)
		}
		key := memberKey{tripID: m.TripID, userID: m.UserID}
		if _, ok := st.members[key]; ok {
			return fmt.Errorf("%w: trip_members_pkey", domain.ErrConflict)
		}
		if m.Role == domain.RoleOwner {
			for k, existing := range st.members {
				if k.tripID == m.TripID && existing.Role == domain.RoleOwner {
					return fmt.Errorf("%w: trip_members_one_owner_idx", domain.ErrConflict)
				}
			}
		}
		out.JoinedAt = r.now().UTC()
		st.members[key] = domain.Membership{TripID: m.TripID, UserID: m.UserID, Role: m.Role, JoinedAt: out.JoinedAt}
		return nil
	})
	if err != nil {
		return domain.Membership{}, fmt.Errorf("memory.MembershipRepo.Add: %w", err)
	}
	return out, nil
}

func (r *membershipRepo) Role(_ context.Context, tripID, userID uuid.UUID) (domain.Role, error) {
	var role domain.Role
	err := r.run(func(st *state) error {
		m, ok := st.members[memberKey{tripID: tripID, userID: userID}]
		if !ok {
			return domain.ErrNotFound
		}
		role = m.Role
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("memory.MembershipRepo.Role: %w", err)
	}
	return role, nil
}

func (r *membershipRepo) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.Membership, error) {
	out := []domain.Membership{}
	_ = r.run(func(st *state) error {
		for k, m := range st.members {
			if k.tripID != tripID {
				continue
			}
			u := st.users[k.userID]
			m.Username = u.Username
			m.Email = u.Email
			out = append(out, m)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		ri, rj := roleRank(out[i].Role), roleRank(out[j].Role)
		if ri != rj {
			return ri < rj
		}
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func roleRank(r domain.Role) int {
	switch r {
	case domain.RoleOwner:
		return 0
	case domain.RoleAdmin:
		return 1
	}
	return 2
}

// placeRepo

type placeRepo struct {
	run runner
	now func() time.Time
}

func (r *placeRepo) Create(_ context.Context, p domain.Place) (domain.Place, error) {
	var out domain.Place
	err := r.run(func(st *state) error {
		if _, ok := st.trips[p.TripID]; !ok {
			return fmt.Errorf("%w: places_trip_id_fkey", domain.ErrNotFound)
		}
		if _, ok := st.users[p.AddedBy]; !ok {
			return fmt.Errorf("%w: places_added_by_fkey", domain.ErrNotFound)
		}
		out = p
		out.ID = uuid.New()
		out.AddedByName = ""
		out.CreatedAt = r.now().UTC()
		if p.APIData != nil {
			out.APIData = append([]byte(nil), p.APIData...)
		}
		st.places = append(st.places, out)
		return nil
	})
	if err != nil {
		return domain.Place{}, fmt.Errorf("memory.PlaceRepo.Create: %w", err)
	}
	return out, nil
}

func (r *placeRepo) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.Place, error) {
	out := []domain.Place{}
	_ = r.run(func(st *state) error {
		for i := len(st.places) - 1; i >= 0; i-- {
			p := st.places[i]
			if p.TripID != tripID {
				continue
			}
			p.AddedByName = st.username(p.AddedBy)
			out = append(out, p)
		}
		return nil
	})
	return out, nil
}

// expenseRepo

type expenseRepo struct {
	run runner
	now func() time.Time
}

func (r *expenseRepo) Create(_ context.Context, e domain.Expense) (domain.Expense, error) {
	var out domain.Expense
	err := r.run(func(st *state) error {
		if !e.Amount.IsPositive() {
			return fmt.Errorf("%w: expenses_amount_check", domain.ErrValidation)
		}
		if _, ok := st.trips[e.TripID]; !ok {
			return fmt.Errorf("%w: expenses_trip_id_fkey", domain.ErrNotFound)
		}
		if _, ok := st.users[e.PaidBy]; !ok {
			return fmt.Errorf("%w: expenses_paid_by_fkey", domain.ErrNotFound)
		}
		out = e
		out.ID = uuid.New()
		out.Amount = e.Amount.Round(2) // NUMERIC(12,2)
		out.PaidByName = ""
		out.CreatedAt = r.now().UTC()
		st.expenses = append(st.expenses, out)
		return nil
	})
	if err != nil {
		return domain.Expense{}, fmt.Errorf("memory.ExpenseRepo.Create: %w", err)
	}
	return out, nil
}

func (r *expenseRepo) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.Expense, error) {
	out := []domain.Expense{}
	_ = r.run(func(st *state) error {
		for i := len(st.expenses) - 1; i >= 0; i-- {
			e := st.expenses[i]
			if e.TripID != tripID {
				continue
			}
			e.PaidByName = st.username(e.PaidBy)
			out = append(out, e)
		}
		return nil
	})
	return out, nil
}
