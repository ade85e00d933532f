package tests_test

import (
	"context"
	"sync"

	"tours/entity"
)

type MockPaymentsClient struct {
	lock    sync.Mutex
	Refunds []RefundRequest
}

type RefundRequest struct {
	idempotencyKey string
	paymentID      string
	amount         entity.Money
}

func (m *MockPaymentsClient) RefundPayment(_ context.Context, idempotencyKey, paymentID string, amount entity.Money) error {
	m.lock.Lock()
	m.Refunds = append(m.Refunds, RefundRequest{idempotencyKey: idempotencyKey, paymentID: paymentID, amount: amount})
	m.lock.Unlock()

	return nil
}

func (m *MockPaymentsClient) refunds() []RefundRequest {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]RefundRequest(nil), m.Refunds...)
}

type MockReceiptIssuer struct {
	lock           sync.Mutex
	IssuedReceipts []IssueReceiptRequest
}

type IssueReceiptRequest struct {
	bookingID string
	amount    entity.Money
}

func (m *MockReceiptIssuer) IssueReceipt(_ context.Context, bookingID string, amount entity.Money) error {
	m.lock.Lock()
	m.IssuedReceipts = append(m.IssuedReceipts, IssueReceiptRequest{bookingID: bookingID, amount: amount})
	m.lock.Unlock()

	return nil
}

func (m *MockReceiptIssuer) receipts() []IssueReceiptRequest {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]IssueReceiptRequest(nil), m.IssuedReceipts...)
}

type MockSpreadsheetAppender struct {
	lock         sync.Mutex
	RowsAppended []AppendRowRequest
}

type AppendRowRequest struct {
	spreadsheetName string
	row             []string
}

func (m *MockSpreadsheetAppender) AppendRow(_ context.Context, spreadsheetName string, row []string) error {
	m.lock.Lock()
	m.RowsAppended = append(m.RowsAppended, AppendRowRequest{spreadsheetName: spreadsheetName, row: row})
	m.lock.Unlock()

	return nil
}

func (m *MockSpreadsheetAppender) rows() []AppendRowRequest {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]AppendRowRequest(nil), m.RowsAppended...)
}

type MockVoucherGenerator struct {
	lock     sync.Mutex
	Vouchers []entity.Voucher
}

func (m *MockVoucherGenerator) GenerateVoucher(_ context.Context, v entity.Voucher) (string, error) {
	m.lock.Lock()
	m.Vouchers = append(m.Vouchers, v)
	m.lock.Unlock()

	return v.BookingID + "-voucher.html", nil
}

func (m *MockVoucherGenerator) vouchers() []entity.Voucher {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]entity.Voucher(nil), m.Vouchers...)
}
