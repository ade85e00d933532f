package http_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tours/entity"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]entity.User{}}
}

func (f *fakeUsers) Add(_ context.Context, u entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email taken: %w", entity.ErrConflict)
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) ByID(_ context.Context, id string) (entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return entity.User{}, entity.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ByEmail(_ context.Context, email string) (entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return entity.User{}, entity.ErrNotFound
}

func (f *fakeUsers) List(context.Context, entity.UserFilter, entity.Page) ([]entity.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var users []entity.User
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, len(users), nil
}

func (f *fakeUsers) update(id string, fn func(u *entity.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return entity.ErrNotFound
	}
	fn(&u)
	f.users[id] = u
	return nil
}

func (f *fakeUsers) UpdateStatus(_ context.Context, id string, status entity.UserStatus) error {
	return f.update(id, func(u *entity.User) { u.Status = status })
}

func (f *fakeUsers) UpdateRole(_ context.Context, id string, role entity.Role) error {
	return f.update(id, func(u *entity.User) { u.Role = role })
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id, name string, chatID *int64) error {
	return f.update(id, func(u *entity.User) {
		u.Name = name
		u.TelegramChatID = chatID
	})
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[id]; !ok {
		return entity.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeTours struct {
	mu    sync.Mutex
	tours map[string]entity.Tour
}

func newFakeTours() *fakeTours {
	return &fakeTours{tours: map[string]entity.Tour{}}
}

func (f *fakeTours) countActive(hostID string) int {
	n := 0
	for _, t := range f.tours {
		if t.HostID == hostID && t.Status != entity.TourArchived {
			n++
		}
	}
	return n
}

func (f *fakeTours) Add(_ context.Context, t entity.Tour, quota entity.Quota) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !quota.AllowsTour(f.countActive(t.HostID)) {
		return entity.ErrQuotaExceeded
	}
	f.tours[t.ID] = t
	return nil
}

func (f *fakeTours) ByID(_ context.Context, id string) (entity.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tours[id]
	if !ok {
		return entity.Tour{}, entity.ErrNotFound
	}
	return t, nil
}

func (f *fakeTours) List(_ context.Context, filter entity.TourFilter, _ entity.Page) ([]entity.Tour, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := map[string]bool{}
	for _, id := range filter.IDs {
		ids[id] = true
	}

	var tours []entity.Tour
	for _, t := range f.tours {
		if filter.HostID != "" && t.HostID != filter.HostID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Query)) {
			continue
		}
		if len(ids) > 0 && !ids[t.ID] {
			continue
		}
		tours = append(tours, t)
	}
	return tours, len(tours), nil
}

func (f *fakeTours) Update(_ context.Context, t entity.Tour) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tours[t.ID]; !ok {
		return entity.ErrNotFound
	}
	f.tours[t.ID] = t
	return nil
}

func (f *fakeTours) UpdateStatus(_ context.Context, id string, status entity.TourStatus, quota entity.Quota) (entity.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tours[id]
	if !ok {
		return entity.Tour{}, entity.ErrNotFound
	}
	if t.Status == entity.TourArchived && status != entity.TourArchived && !quota.AllowsTour(f.countActive(t.HostID)) {
		return entity.Tour{}, entity.ErrQuotaExceeded
	}
	t.Status = status
	f.tours[id] = t
	return t, nil
}

func (f *fakeTours) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.tours, id)
	return nil
}

func (f *fakeTours) CountActiveByHost(_ context.Context, hostID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.countActive(hostID), nil
}

type fakeSearch struct {
	ids []string
}

func (f fakeSearch) Search(context.Context, string, entity.Page) ([]string, int, error) {
	return f.ids, len(f.ids), nil
}

type fakeBookings struct {
	mu       sync.Mutex
	bookings map[string]entity.Booking
	events   []any
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{bookings: map[string]entity.Booking{}}
}

func (f *fakeBookings) Add(_ context.Context, tour entity.Tour, b entity.Booking) (entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seats := 0
	for _, existing := range f.bookings {
		if existing.IdempotencyKey == b.IdempotencyKey {
			return existing, nil
		}
		if existing.TourID == b.TourID && existing.StartDate.Equal(b.StartDate) && existing.Status != entity.BookingCancelled {
			seats += existing.People
		}
	}
	if seats+b.People > tour.MaxGroupSize {
		return entity.Booking{}, entity.NotEnoughSeatsError{SeatsAvailable: tour.MaxGroupSize - seats, SeatsRequested: b.People}
	}

	f.bookings[b.ID] = b
	return b, nil
}

func (f *fakeBookings) ByID(_ context.Context, id string) (entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok {
		return entity.Booking{}, entity.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) List(_ context.Context, filter entity.BookingFilter, _ entity.Page) ([]entity.Booking, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var bookings []entity.Booking
	for _, b := range f.bookings {
		if filter.TouristID != "" && b.TouristID != filter.TouristID {
			continue
		}
		if filter.HostID != "" && b.HostID != filter.HostID {
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings, len(bookings), nil
}

func (f *fakeBookings) Update(_ context.Context, id string, fn func(b *entity.Booking) ([]any, error)) (entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok {
		return entity.Booking{}, entity.ErrNotFound
	}
	events, err := fn(&b)
	if err != nil {
		return entity.Booking{}, err
	}
	f.bookings[id] = b
	f.events = append(f.events, events...)
	return b, nil
}

func (f *fakeBookings) put(b entity.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bookings[b.ID] = b
}

type fakePayments struct {
	mu       sync.Mutex
	payments map[string]entity.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{payments: map[string]entity.Payment{}}
}

func (f *fakePayments) AddForBooking(_ context.Context, p entity.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.payments {
		if existing.ReferenceID == p.ReferenceID && (existing.Status.Open() || existing.Status == entity.PaymentCompleted) {
			return entity.ErrConflict
		}
	}
	f.payments[p.ID] = p
	return nil
}

func (f *fakePayments) AddForSubscription(_ context.Context, _ entity.Subscription, p entity.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.payments[p.ID] = p
	return nil
}

func (f *fakePayments) ByID(_ context.Context, id string) (entity.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[id]
	if !ok {
		return entity.Payment{}, entity.ErrNotFound
	}
	return p, nil
}

func (f *fakePayments) List(context.Context, entity.PaymentFilter, entity.Page) ([]entity.Payment, int, error) {
	return nil, 0, nil
}

func (f *fakePayments) ApplyStatus(_ context.Context, id string, status entity.PaymentStatus, txID string) (entity.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[id]
	if !ok {
		return entity.Payment{}, false, entity.ErrNotFound
	}
	changed, err := p.Apply(status)
	if err != nil {
		return entity.Payment{}, false, err
	}
	p.TransactionID = txID
	f.payments[id] = p
	return p, changed, nil
}

type fakeSubscriptions struct{}

func (fakeSubscriptions) ByID(context.Context, string) (entity.Subscription, error) {
	return entity.Subscription{}, entity.ErrNotFound
}

func (fakeSubscriptions) Cancel(context.Context, string) error {
	return entity.ErrNotFound
}

func (fakeSubscriptions) Quota(_ context.Context, _ string, _ time.Time, free entity.Quota) (entity.Quota, *entity.Subscription, error) {
	return free, nil, nil
}

func (fakeSubscriptions) List(context.Context, string, entity.SubscriptionStatus, entity.Page) ([]entity.Subscription, int, error) {
	return nil, 0, nil
}

type fakeReviews struct {
	mu      sync.Mutex
	reviews map[string]entity.Review
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{reviews: map[string]entity.Review{}}
}

func (f *fakeReviews) Add(_ context.Context, r entity.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.reviews {
		if existing.BookingID == r.BookingID {
			return fmt.Errorf("booking %s already reviewed: %w", r.BookingID, entity.ErrConflict)
		}
	}
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeReviews) ByID(_ context.Context, id string) (entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.reviews[id]
	if !ok {
		return entity.Review{}, entity.ErrNotFound
	}
	return r, nil
}

func (f *fakeReviews) List(_ context.Context, filter entity.ReviewFilter, _ entity.Page) ([]entity.Review, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var reviews []entity.Review
	for _, r := range f.reviews {
		if filter.TourID != "" && r.TourID != filter.TourID {
			continue
		}
		if filter.TouristID != "" && r.TouristID != filter.TouristID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		reviews = append(reviews, r)
	}
	return reviews, len(reviews), nil
}

func (f *fakeReviews) UpdateStatus(_ context.Context, id string, status entity.ReviewStatus) (entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.reviews[id]
	if !ok {
		return entity.Review{}, entity.ErrNotFound
	}
	r.Status = status
	f.reviews[id] = r
	return r, nil
}

func (f *fakeReviews) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.reviews[id]; !ok {
		return entity.ErrNotFound
	}
	delete(f.reviews, id)
	return nil
}

type fakeBlogs struct {
	mu    sync.Mutex
	blogs map[string]entity.Blog
}

func newFakeBlogs() *fakeBlogs {
	return &fakeBlogs{blogs: map[string]entity.Blog{}}
}

func (f *fakeBlogs) countActive(authorID string) int {
	n := 0
	for _, b := range f.blogs {
		if b.AuthorID == authorID && b.Status != entity.BlogRejected {
			n++
		}
	}
	return n
}

func (f *fakeBlogs) Add(_ context.Context, b entity.Blog, quota *entity.Quota) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if quota != nil && !quota.AllowsBlog(f.countActive(b.AuthorID)) {
		return fmt.Errorf("author %s: %w", b.AuthorID, entity.ErrQuotaExceeded)
	}
	f.blogs[b.ID] = b
	return nil
}

func (f *fakeBlogs) ByID(_ context.Context, id string) (entity.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.blogs[id]
	if !ok {
		return entity.Blog{}, entity.ErrNotFound
	}
	return b, nil
}

func (f *fakeBlogs) List(_ context.Context, filter entity.BlogFilter, _ entity.Page) ([]entity.Blog, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var blogs []entity.Blog
	for _, b := range f.blogs {
		if filter.AuthorID != "" && b.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		blogs = append(blogs, b)
	}
	return blogs, len(blogs), nil
}

func (f *fakeBlogs) Update(_ context.Context, b entity.Blog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.blogs[b.ID]; !ok {
		return entity.ErrNotFound
	}
	f.blogs[b.ID] = b
	return nil
}

func (f *fakeBlogs) UpdateStatus(_ context.Context, id string, status entity.BlogStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.blogs[id]
	if !ok {
		return entity.ErrNotFound
	}
	b.Status = status
	f.blogs[id] = b
	return nil
}

func (f *fakeBlogs) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.blogs[id]; !ok {
		return entity.ErrNotFound
	}
	delete(f.blogs, id)
	return nil
}

func (f *fakeBlogs) CountActiveByAuthor(_ context.Context, authorID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.countActive(authorID), nil
}

type fakePlans struct {
	mu    sync.Mutex
	plans map[string]entity.SubscriptionPlan
}

func newFakePlans() *fakePlans {
	return &fakePlans{plans: map[string]entity.SubscriptionPlan{}}
}

func (f *fakePlans) Add(_ context.Context, p entity.SubscriptionPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.plans[p.ID] = p
	return nil
}

func (f *fakePlans) ByID(_ context.Context, id string) (entity.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.plans[id]
	if !ok {
		return entity.SubscriptionPlan{}, entity.ErrNotFound
	}
	return p, nil
}

func (f *fakePlans) List(_ context.Context, activeOnly bool) ([]entity.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var plans []entity.SubscriptionPlan
	for _, p := range f.plans {
		if activeOnly && !p.Active {
			continue
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (f *fakePlans) Update(_ context.Context, p entity.SubscriptionPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.plans[p.ID]; !ok {
		return entity.ErrNotFound
	}
	f.plans[p.ID] = p
	return nil
}

func (f *fakePlans) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.plans[id]; !ok {
		return entity.ErrNotFound
	}
	delete(f.plans, id)
	return nil
}
