package event_test

import (
	"context"
	"sync"

	"tours/entity"
)

type MockNotifier struct {
	lock     sync.Mutex
	Messages map[int64][]string
}

func (m *MockNotifier) Notify(_ context.Context, chatID int64, text string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.Messages == nil {
		m.Messages = map[int64][]string{}
	}
	m.Messages[chatID] = append(m.Messages[chatID], text)
	return nil
}

type MockUserRepo struct {
	Users map[string]entity.User
}

func (m MockUserRepo) ByID(_ context.Context, id string) (entity.User, error) {
	u, ok := m.Users[id]
	if !ok {
		return entity.User{}, entity.ErrNotFound
	}
	return u, nil
}

type MockHostStatsRepo struct {
	lock      sync.Mutex
	Processed map[string]bool
	Stats     map[string]*entity.HostStats
}

func (m *MockHostStatsRepo) Apply(_ context.Context, eventID, handler, hostID string, fn func(s *entity.HostStats)) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.Processed == nil {
		m.Processed = map[string]bool{}
		m.Stats = map[string]*entity.HostStats{}
	}
	key := eventID + "/" + handler
	if m.Processed[key] {
		return nil
	}
	m.Processed[key] = true

	s, ok := m.Stats[hostID]
	if !ok {
		s = &entity.HostStats{HostID: hostID}
		m.Stats[hostID] = s
	}
	fn(s)
	return nil
}

type MockSpreadsheetAppender struct {
	lock         sync.Mutex
	RowsAppended map[string][][]string
}

func (m *MockSpreadsheetAppender) AppendRow(_ context.Context, spreadsheetName string, row []string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.RowsAppended == nil {
		m.RowsAppended = map[string][][]string{}
	}
	m.RowsAppended[spreadsheetName] = append(m.RowsAppended[spreadsheetName], row)
	return nil
}

type MockVoucherGenerator struct {
	Vouchers []entity.Voucher
}

func (m *MockVoucherGenerator) GenerateVoucher(_ context.Context, v entity.Voucher) (string, error) {
	m.Vouchers = append(m.Vouchers, v)
	return v.BookingID + "-voucher.html", nil
}

type MockPublisher struct {
	Published []any
}

func (m *MockPublisher) Publish(_ context.Context, event any) error {
	m.Published = append(m.Published, event)
	return nil
}

type MockCommandSender struct {
	Sent []any
}

func (m *MockCommandSender) Send(_ context.Context, cmd any) error {
	m.Sent = append(m.Sent, cmd)
	return nil
}

type MockPaymentRepo struct {
	Payments map[string]entity.Payment
}

func (m MockPaymentRepo) LatestByReference(_ context.Context, _ entity.PaymentKind, referenceID string) (entity.Payment, error) {
	p, ok := m.Payments[referenceID]
	if !ok {
		return entity.Payment{}, entity.ErrNotFound
	}
	return p, nil
}

type MockTourRepo struct {
	Tours     map[string]entity.Tour
	Refreshed []string
}

func (m *MockTourRepo) ByID(_ context.Context, id string) (entity.Tour, error) {
	t, ok := m.Tours[id]
	if !ok {
		return entity.Tour{}, entity.ErrNotFound
	}
	return t, nil
}

func (m *MockTourRepo) RefreshRating(_ context.Context, tourID string) error {
	m.Refreshed = append(m.Refreshed, tourID)
	return nil
}

type MockDestinationRepo struct{}

func (MockDestinationRepo) ByID(_ context.Context, id string) (entity.Destination, error) {
	return entity.Destination{ID: id, Name: "Lisbon", Country: "Portugal"}, nil
}

type MockTourIndex struct {
	Indexed map[string]entity.Tour
	Removed []string
}

func (m *MockTourIndex) IndexTour(_ context.Context, tour entity.Tour, _ entity.Destination) error {
	if m.Indexed == nil {
		m.Indexed = map[string]entity.Tour{}
	}
	m.Indexed[tour.ID] = tour
	return nil
}

func (m *MockTourIndex) RemoveTour(_ context.Context, tourID string) error {
	delete(m.Indexed, tourID)
	m.Removed = append(m.Removed, tourID)
	return nil
}
