// Package testutil provides in-memory stores that enforce the same key,
// uniqueness and delete rules as the Postgres schema.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/repository"
)

type pair struct{ a, b int }

type membership struct {
	groupID, userID int
	seq             int
}

// MemStore holds every table in memory behind one mutex.
type MemStore struct {
	mu sync.Mutex

	seq         int
	users       map[int]models.User
	groups      map[int]models.Group
	memberships []membership
	movies      map[int]models.Movie
	polls       map[int]models.Poll
	options     map[int]models.PollOption
	votes       map[pair]models.Vote
	watched     map[int]models.WatchedMovie
	ratings     map[pair]models.Rating
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:   make(map[int]models.User),
		groups:  make(map[int]models.Group),
		movies:  make(map[int]models.Movie),
		polls:   make(map[int]models.Poll),
		options: make(map[int]models.PollOption),
		votes:   make(map[pair]models.Vote),
		watched: make(map[int]models.WatchedMovie),
		ratings: make(map[pair]models.Rating),
	}
}

func (s *MemStore) next() int {
	s.seq++
	return s.seq
}

// Users returns the user table.
func (s *MemStore) Users() *MemUsers { return &MemUsers{s} }

// Groups returns the group and membership tables.
func (s *MemStore) Groups() *MemGroups { return &MemGroups{s} }

// Movies returns the catalog table.
func (s *MemStore) Movies() *MemMovies { return &MemMovies{s} }

// Polls returns the poll, option and vote tables.
func (s *MemStore) Polls() *MemPolls { return &MemPolls{s} }

// Watched returns the watch history and rating tables.
func (s *MemStore) Watched() *MemWatched { return &MemWatched{s} }

// VoteCount returns the number of stored votes for a poll and voter.
func (s *MemStore) VoteCount(pollID, voterID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.votes[pair{pollID, voterID}]; ok {
		return 1
	}
	return 0
}

func duplicate(constraint string) error {
	return fmt.Errorf("%w: %s", repository.ErrDuplicate, constraint)
}

func foreignKey(constraint string) error {
	return fmt.Errorf("%w: %s", repository.ErrForeignKey, constraint)
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return make([]T, 0)
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

// ---- Users ----

// MemUsers implements the user store.
type MemUsers struct{ s *MemStore }

func (r *MemUsers) Create(_ context.Context, u *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return duplicate("users_username_key")
		}
		if existing.Email == u.Email {
			return duplicate("users_email_key")
		}
	}
	u.ID = s.next()
	u.CreatedAt = time.Now()
	s.users[u.ID] = *u
	return nil
}

func (r *MemUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *MemUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *MemUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *MemUsers) find(match func(models.User) bool) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *MemUsers) List(_ context.Context, skip, limit int) ([]models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return page(users, skip, limit), nil
}

func (r *MemUsers) Delete(_ context.Context, id int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range s.polls {
		if p.CreatorID == id {
			return foreignKey("polls_creator_id_fkey")
		}
	}
	for _, o := range s.options {
		if o.SuggestedByID == id {
			return foreignKey("poll_options_suggested_by_id_fkey")
		}
	}
	for k := range s.votes {
		if k.b == id {
			return foreignKey("votes_voter_id_fkey")
		}
	}
	for _, w := range s.watched {
		if w.LoggedByID == id {
			return foreignKey("watched_movies_logged_by_id_fkey")
		}
	}
	for k := range s.ratings {
		if k.b == id {
			return foreignKey("ratings_rater_id_fkey")
		}
	}

	kept := s.memberships[:0]
	for _, m := range s.memberships {
		if m.userID != id {
			kept = append(kept, m)
		}
	}
	s.memberships = kept
	delete(s.users, id)
	return nil
}

// ---- Groups ----

// MemGroups implements the group store.
type MemGroups struct{ s *MemStore }

func (r *MemGroups) CreateWithOwner(_ context.Context, g *models.Group, ownerID int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.groups {
		if existing.Name == g.Name {
			return duplicate("groups_name_key")
		}
	}
	if _, ok := s.users[ownerID]; !ok {
		return foreignKey("memberships_user_id_fkey")
	}
	g.ID = s.next()
	g.CreatedAt = time.Now()
	s.groups[g.ID] = *g
	s.memberships = append(s.memberships, membership{groupID: g.ID, userID: ownerID, seq: s.next()})
	return nil
}

func (r *MemGroups) GetByID(_ context.Context, id int) (*models.Group, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r *MemGroups) List(_ context.Context, skip, limit int) ([]models.Group, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return page(groups, skip, limit), nil
}

func (r *MemGroups) ListForUser(_ context.Context, userID int) ([]models.Group, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := make([]models.Group, 0)
	for _, m := range s.memberships {
		if m.userID == userID {
			groups = append(groups, s.groups[m.groupID])
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (r *MemGroups) IsMember(_ context.Context, groupID, userID int) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isMember(groupID, userID), nil
}

func (s *MemStore) isMember(groupID, userID int) bool {
	for _, m := range s.memberships {
		if m.groupID == groupID && m.userID == userID {
			return true
		}
	}
	return false
}

func (r *MemGroups) AddMember(_ context.Context, groupID, userID int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isMember(groupID, userID) {
		return duplicate("memberships_pkey")
	}
	if _, ok := s.groups[groupID]; !ok {
		return foreignKey("memberships_group_id_fkey")
	}
	if _, ok := s.users[userID]; !ok {
		return foreignKey("memberships_user_id_fkey")
	}
	s.memberships = append(s.memberships, membership{groupID: groupID, userID: userID, seq: s.next()})
	return nil
}

func (r *MemGroups) Members(_ context.Context, groupID int) ([]models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]models.User, 0)
	for _, m := range s.memberships {
		if m.groupID == groupID {
			members = append(members, s.users[m.userID])
		}
	}
	return members, nil
}

func (r *MemGroups) Delete(_ context.Context, id int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return repository.ErrNotFound
	}

	kept := s.memberships[:0]
	for _, m := range s.memberships {
		if m.groupID != id {
			kept = append(kept, m)
		}
	}
	s.memberships = kept

	for pid, p := range s.polls {
		if p.GroupID == id {
			s.deletePoll(pid)
		}
	}
	for wid, w := range s.watched {
		if w.GroupID == id {
			s.deleteWatched(wid)
		}
	}
	delete(s.groups, id)
	return nil
}

// ---- Movies ----

// MemMovies implements the catalog store.
type MemMovies struct{ s *MemStore }

func (r *MemMovies) Create(_ context.Context, m *models.Movie) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.movies {
		if existing.TMDBId == m.TMDBId {
			return duplicate("movies_tmdb_id_key")
		}
	}
	m.ID = s.next()
	s.movies[m.ID] = *m
	return nil
}

func (r *MemMovies) GetByID(_ context.Context, id int) (*models.Movie, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *MemMovies) GetByTMDBId(_ context.Context, tmdbID string) (*models.Movie, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movies {
		if m.TMDBId == tmdbID {
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *MemMovies) List(_ context.Context, skip, limit int) ([]models.Movie, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	movies := make([]models.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		movies = append(movies, m)
	}
	sort.Slice(movies, func(i, j int) bool {
		if movies[i].Title != movies[j].Title {
			return movies[i].Title < movies[j].Title
		}
		return movies[i].ID < movies[j].ID
	})
	return page(movies, skip, limit), nil
}

func (r *MemMovies) ExistingIDs(_ context.Context, ids []int) (map[int]bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	found := make(map[int]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.movies[id]; ok {
			found[id] = true
		}
	}
	return found, nil
}

func (r *MemMovies) Delete(_ context.Context, id int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[id]; !ok {
		return repository.ErrNotFound
	}
	for _, o := range s.options {
		if o.MovieID == id {
			return foreignKey("poll_options_movie_id_fkey")
		}
	}
	for _, w := range s.watched {
		if w.MovieID == id {
			return foreignKey("watched_movies_movie_id_fkey")
		}
	}
	delete(s.movies, id)
	return nil
}

// ---- Polls ----

// MemPolls implements the poll store.
type MemPolls struct{ s *MemStore }

func (r *MemPolls) Create(_ context.Context, p *models.Poll, movieIDs []int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[p.GroupID]; !ok {
		return foreignKey("polls_group_id_fkey")
	}
	if _, ok := s.users[p.CreatorID]; !ok {
		return foreignKey("polls_creator_id_fkey")
	}
	seen := make(map[int]bool, len(movieIDs))
	for _, id := range movieIDs {
		if _, ok := s.movies[id]; !ok {
			return foreignKey("poll_options_movie_id_fkey")
		}
		if seen[id] {
			return duplicate("poll_options_poll_id_movie_id_key")
		}
		seen[id] = true
	}

	p.ID = s.next()
	p.CreatedAt = time.Now()
	p.IsActive = true
	p.Options = make([]models.PollOption, 0, len(movieIDs))
	for _, id := range movieIDs {
		o := models.PollOption{
			ID:            s.next(),
			PollID:        p.ID,
			MovieID:       id,
			SuggestedByID: p.CreatorID,
			SuggestedAt:   p.CreatedAt,
		}
		s.options[o.ID] = o
		p.Options = append(p.Options, o)
	}
	stored := *p
	stored.Options = nil
	s.polls[p.ID] = stored
	return nil
}

func (r *MemPolls) GetByID(_ context.Context, id int) (*models.Poll, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.attachOptions(&p)
	return &p, nil
}

func (r *MemPolls) ListActiveByGroup(_ context.Context, groupID int) ([]models.Poll, error) {
	return r.list(func(p models.Poll) bool { return p.GroupID == groupID && p.IsActive }, true, 0, -1)
}

func (r *MemPolls) List(_ context.Context, skip, limit int) ([]models.Poll, error) {
	return r.list(func(models.Poll) bool { return true }, false, skip, limit)
}

func (r *MemPolls) list(match func(models.Poll) bool, newestFirst bool, skip, limit int) ([]models.Poll, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	polls := make([]models.Poll, 0)
	for _, p := range s.polls {
		if match(p) {
			s.attachOptions(&p)
			polls = append(polls, p)
		}
	}
	sort.Slice(polls, func(i, j int) bool {
		if newestFirst {
			return polls[i].ID > polls[j].ID
		}
		return polls[i].ID < polls[j].ID
	})
	if limit < 0 {
		return polls, nil
	}
	return page(polls, skip, limit), nil
}

func (s *MemStore) attachOptions(p *models.Poll) {
	p.Options = make([]models.PollOption, 0)
	for _, o := range s.options {
		if o.PollID == p.ID {
			m := s.movies[o.MovieID]
			o.Movie = &m
			p.Options = append(p.Options, o)
		}
	}
	sort.Slice(p.Options, func(i, j int) bool { return p.Options[i].ID < p.Options[j].ID })
}

func (r *MemPolls) GetOption(_ context.Context, optionID int) (*models.PollOption, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.options[optionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *MemPolls) HasVoted(_ context.Context, pollID, voterID int) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.votes[pair{pollID, voterID}]
	return ok, nil
}

func (r *MemPolls) CreateVote(_ context.Context, v *models.Vote) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{v.PollID, v.VoterID}
	if _, ok := s.votes[key]; ok {
		return duplicate("votes_pkey")
	}
	if _, ok := s.options[v.PollOptionID]; !ok {
		return foreignKey("votes_poll_option_id_fkey")
	}
	v.VotedAt = time.Now()
	s.votes[key] = *v
	return nil
}

func (r *MemPolls) VoteCounts(_ context.Context, pollID int) (map[int]int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[int]int)
	for _, o := range s.options {
		if o.PollID == pollID {
			counts[o.ID] = 0
		}
	}
	for _, v := range s.votes {
		if v.PollID == pollID {
			counts[v.PollOptionID]++
		}
	}
	return counts, nil
}

func (r *MemPolls) Close(_ context.Context, pollID int, resolvedAt time.Time, winningOptionID *int) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[pollID]
	if !ok || !p.IsActive {
		return false, nil
	}
	p.IsActive = false
	p.ResolvedAt = &resolvedAt
	p.WinningOptionID = winningOptionID
	s.polls[pollID] = p
	return true, nil
}

func (r *MemPolls) Delete(_ context.Context, id int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.polls[id]; !ok {
		return repository.ErrNotFound
	}
	s.deletePoll(id)
	return nil
}

func (s *MemStore) deletePoll(id int) {
	for oid, o := range s.options {
		if o.PollID == id {
			delete(s.options, oid)
		}
	}
	for k := range s.votes {
		if k.a == id {
			delete(s.votes, k)
		}
	}
	for wid, w := range s.watched {
		if w.OriginatingPollID != nil && *w.OriginatingPollID == id {
			w.OriginatingPollID = nil
			s.watched[wid] = w
		}
	}
	delete(s.polls, id)
}

// ---- Watched ----

// MemWatched implements the watch history store.
type MemWatched struct{ s *MemStore }

func (r *MemWatched) Create(_ context.Context, w *models.WatchedMovie) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[w.MovieID]; !ok {
		return foreignKey("watched_movies_movie_id_fkey")
	}
	if w.OriginatingPollID != nil {
		if _, ok := s.polls[*w.OriginatingPollID]; !ok {
			return foreignKey("watched_movies_originating_poll_id_fkey")
		}
		for _, existing := range s.watched {
			if existing.OriginatingPollID != nil && *existing.OriginatingPollID == *w.OriginatingPollID {
				return duplicate("watched_movies_originating_poll_id_key")
			}
		}
	}
	w.ID = s.next()
	s.watched[w.ID] = *w
	return nil
}

func (r *MemWatched) GetByID(_ context.Context, id int) (*models.WatchedMovie, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.watched[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.aggregate(&w)
	return &w, nil
}

func (r *MemWatched) ListByGroup(_ context.Context, groupID int) ([]models.WatchedMovie, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]models.WatchedMovie, 0)
	for _, w := range s.watched {
		if w.GroupID == groupID {
			s.aggregate(&w)
			entries = append(entries, w)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].WatchedDate.Equal(entries[j].WatchedDate) {
			return entries[i].WatchedDate.After(entries[j].WatchedDate)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

func (s *MemStore) aggregate(w *models.WatchedMovie) {
	w.AverageRating = nil
	w.RatingCount = 0
	sum := 0
	for k, rt := range s.ratings {
		if k.a == w.ID {
			sum += rt.Value
			w.RatingCount++
		}
	}
	if w.RatingCount > 0 {
		avg := float64(sum) / float64(w.RatingCount)
		w.AverageRating = &avg
	}
}

func (r *MemWatched) UpsertRating(_ context.Context, rt *models.Rating) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watched[rt.WatchedMovieID]; !ok {
		return foreignKey("ratings_watched_movie_id_fkey")
	}
	rt.RatedAt = time.Now()
	s.ratings[pair{rt.WatchedMovieID, rt.RaterID}] = *rt
	return nil
}

func (r *MemWatched) Ratings(_ context.Context, watchedID int) ([]models.Rating, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	ratings := make([]models.Rating, 0)
	for k, rt := range s.ratings {
		if k.a == watchedID {
			ratings = append(ratings, rt)
		}
	}
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].RaterID < ratings[j].RaterID })
	return ratings, nil
}

func (s *MemStore) deleteWatched(id int) {
	for k := range s.ratings {
		if k.a == id {
			delete(s.ratings, k)
		}
	}
	delete(s.watched, id)
}
